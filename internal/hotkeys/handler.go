// Package hotkeys binds global X11 key sequences to callbacks.
package hotkeys

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/monlayout/internal/x11"
)

// Handler manages global keyboard shortcuts on one X connection.
type Handler struct {
	conn   *x11.Connection
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler prepares conn for key grabs.
func NewHandler(conn *x11.Connection, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	keybind.Initialize(conn.XUtil)

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})

	return &Handler{
		conn:   conn,
		xu:     conn.XUtil,
		root:   conn.Root,
		logger: logger,
	}
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
	if err != nil {
		return fmt.Errorf("failed to grab %q: %w", keySequence, err)
	}
	h.logger.Info("hotkey registered", "keys", keySequence)
	return nil
}

// Run dispatches key events until ctx is done. It closes the connection on
// return.
func (h *Handler) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		xevent.Quit(h.xu)
		h.conn.Close()
	})
	defer stop()
	defer h.conn.Close()

	xevent.Main(h.xu)
}

// Listen opens its own X connection, binds keySequence to callback and
// dispatches events until ctx is done.
func Listen(ctx context.Context, keySequence string, callback func(), logger *slog.Logger) error {
	conn, err := x11.NewConnection()
	if err != nil {
		return err
	}
	h := NewHandler(conn, logger)
	if err := h.RegisterFunc(keySequence, callback); err != nil {
		conn.Close()
		return err
	}
	h.Run(ctx)
	return nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	xevent.IgnoreMods = IgnoreMasks(caps, numLock, scrollLock)
}

// IgnoreMasks returns every combination of the lock modifiers that should
// not prevent a grab from matching, starting with no modifiers.
func IgnoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	masks := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		masks = append(masks, mask)
	}
	return masks
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
