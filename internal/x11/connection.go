package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages the X11 connection and the RandR extension.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	closeOnce sync.Once
}

// NewConnection connects to the X server named by $DISPLAY and initializes RandR.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// Close disconnects from the X11 server. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.XUtil.Conn().Close()
	})
}
