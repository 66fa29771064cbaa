package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/monlayout/internal/layout"
	"github.com/1broseidon/monlayout/internal/x11"
)

// OutputWatcher blocks, calling onChange with the connected output names
// whenever that set changes, until ctx is done.
type OutputWatcher func(ctx context.Context, onChange func(names []string)) error

// HotplugConfig holds configuration for the hotplug handler.
type HotplugConfig struct {
	// Enabled is consulted on every change, so it can follow config reloads.
	Enabled func() bool
	// Settle delays the reapply so the server finishes its own
	// reconfiguration first.
	Settle time.Duration
	Logger *slog.Logger
}

// Hotplug reapplies the saved layout when outputs are connected or removed.
type Hotplug struct {
	ctrl    *layout.Controller
	enabled func() bool
	settle  time.Duration
	logger  *slog.Logger
}

// NewHotplug creates a hotplug handler for ctrl.
func NewHotplug(cfg HotplugConfig, ctrl *layout.Controller) *Hotplug {
	enabled := cfg.Enabled
	if enabled == nil {
		enabled = func() bool { return true }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hotplug{
		ctrl:    ctrl,
		enabled: enabled,
		settle:  cfg.Settle,
		logger:  logger,
	}
}

// X11Watcher watches RandR output changes on a fresh X connection.
func X11Watcher(logger *slog.Logger) OutputWatcher {
	return func(ctx context.Context, onChange func(names []string)) error {
		conn, err := x11.NewConnection()
		if err != nil {
			return err
		}
		defer conn.Close()
		return conn.WatchConnected(ctx, logger, onChange)
	}
}

// Run blocks until ctx is done or watch fails.
func (h *Hotplug) Run(ctx context.Context, watch OutputWatcher) error {
	h.logger.Info("hotplug watcher started")
	err := watch(ctx, func(names []string) {
		if ctx.Err() != nil {
			return
		}
		h.HandleChange(ctx, names)
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	h.logger.Info("hotplug watcher stopped")
	return nil
}

// HandleChange updates connected flags, then loads and applies the saved
// layout when hotplug apply is enabled.
func (h *Hotplug) HandleChange(ctx context.Context, names []string) {
	defer func() {
		if err := recover(); err != nil {
			h.logger.Error("hotplug panic recovered", "error", err)
		}
	}()

	h.ctrl.SetConnected(names)

	if !h.enabled() {
		h.logger.Debug("hotplug apply disabled, ignoring output change", "outputs", names)
		return
	}

	if h.settle > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(h.settle):
		}
	}

	restoreLayout(h.ctrl, h.logger, "hotplug")
}

// restoreLayout loads the saved layout and queues an apply. A missing
// layout still applies the current positions.
func restoreLayout(ctrl *layout.Controller, logger *slog.Logger, trigger string) {
	res, err := ctrl.Load()
	if err != nil {
		if errors.Is(err, layout.ErrNoLayout) {
			logger.Info("no saved layout, applying current positions", "trigger", trigger)
		} else {
			logger.Warn("load failed", "trigger", trigger, "error", err)
			return
		}
	} else {
		logger.Info("saved layout loaded",
			"trigger", trigger,
			"applied", res.Applied,
			"inactive", res.Inactive)
	}
	ctrl.Apply()
}
