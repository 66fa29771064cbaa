package x11

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/BurntSushi/xgb/randr"
)

// WatchConnected blocks, calling onChange with the connected output names
// whenever that set differs from the previous one. Mode, position and
// rotation changes alone do not trigger it, so applying a layout from the
// callback cannot cause a feedback loop. It returns when ctx is done; the
// caller should not use the connection afterwards.
func (c *Connection) WatchConnected(ctx context.Context, logger *slog.Logger, onChange func(names []string)) error {
	if logger == nil {
		logger = slog.Default()
	}
	conn := c.XUtil.Conn()

	err := randr.SelectInputChecked(conn, c.Root,
		randr.NotifyMaskScreenChange|randr.NotifyMaskOutputChange).Check()
	if err != nil {
		return fmt.Errorf("failed to select randr events: %w", err)
	}

	last, err := c.ConnectedNames()
	if err != nil {
		return err
	}
	slices.Sort(last)

	stop := context.AfterFunc(ctx, c.Close)
	defer stop()

	for {
		ev, xerr := conn.WaitForEvent()
		if ev == nil && xerr == nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("x connection closed")
		}
		if xerr != nil {
			logger.Warn("x event error", "error", xerr)
			continue
		}

		switch ev.(type) {
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
		default:
			continue
		}

		names, err := c.ConnectedNames()
		if err != nil {
			logger.Warn("failed to list outputs after randr event", "error", err)
			continue
		}
		sorted := slices.Clone(names)
		slices.Sort(sorted)
		if slices.Equal(sorted, last) {
			continue
		}
		last = sorted
		logger.Info("connected outputs changed", "outputs", names)
		onChange(names)
	}
}
