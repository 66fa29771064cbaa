// Package daemon hosts a layout controller for IPC clients, following config
// file edits and output hotplug.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/monlayout/internal/config"
	"github.com/1broseidon/monlayout/internal/hotkeys"
	"github.com/1broseidon/monlayout/internal/ipc"
	"github.com/1broseidon/monlayout/internal/session"
	"github.com/1broseidon/monlayout/internal/worker"
)

// HotplugSettle is how long the daemon waits after an output change before
// reapplying.
const HotplugSettle = 500 * time.Millisecond

// Options configures a Daemon.
type Options struct {
	// ConfigPath is re-read on reload and watched for edits.
	ConfigPath string
	// Level is adjusted when log_level changes. May be nil.
	Level  *slog.LevelVar
	Logger *slog.Logger
	// Session overrides parts of the session assembly, mainly for tests.
	Session session.Options
	// Watch replaces the X11 output watcher. Nil uses RandR.
	Watch OutputWatcher
	// BindHotkey replaces the X11 key grab. Nil uses hotkeys.Listen.
	BindHotkey HotkeyBinder
}

// HotkeyBinder binds keys to fn and blocks until ctx is done.
type HotkeyBinder func(ctx context.Context, keys string, fn func()) error

// Daemon owns one session for its lifetime.
type Daemon struct {
	configPath string
	level      *slog.LevelVar
	logger     *slog.Logger
	sessOpts   session.Options
	watch      OutputWatcher
	bindHotkey HotkeyBinder

	mu      sync.Mutex
	cfg     *config.Config
	hotplug atomic.Bool
}

// New creates a daemon from an already loaded configuration.
func New(cfg *config.Config, opts Options) *Daemon {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{
		configPath: opts.ConfigPath,
		level:      opts.Level,
		logger:     logger,
		sessOpts:   opts.Session,
		watch:      opts.Watch,
		bindHotkey: opts.BindHotkey,
		cfg:        cfg,
	}
	d.hotplug.Store(cfg.HotplugApply)
	if d.level != nil {
		d.level.Set(cfg.SlogLevel())
	}
	return d
}

// Config returns the live configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run serves until ctx is done, then stops the IPC server and drains the
// queue.
func (d *Daemon) Run(ctx context.Context) error {
	opts := d.sessOpts
	opts.Logger = d.logger
	userResult := opts.OnResult
	opts.OnResult = func(res worker.Result) {
		d.logResult(res)
		if userResult != nil {
			userResult(res)
		}
	}

	sess, err := session.Open(ctx, d.Config(), opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	commandTimeout := func() time.Duration { return sess.Config.CommandTimeout }
	server, err := ipc.NewServer(sess.Controller, ipc.Hooks{
		Reload:         d.Reload,
		Pending:        sess.Pending,
		LastResult:     sess.LastResult,
		CommandTimeout: commandTimeout,
	})
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()

	if d.configPath != "" {
		cw, err := NewConfigWatcher(d.configPath, func() {
			if err := d.Reload(); err != nil {
				d.logger.Warn("config reload failed", "error", err)
			}
		}, d.logger)
		if err != nil {
			d.logger.Warn("config watcher unavailable", "error", err)
		} else if err := cw.Start(); err != nil {
			d.logger.Warn("config watcher unavailable", "path", d.configPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	watch := d.watch
	if watch == nil {
		watch = X11Watcher(d.logger)
	}
	hp := NewHotplug(HotplugConfig{
		Enabled: d.hotplug.Load,
		Settle:  HotplugSettle,
		Logger:  d.logger,
	}, sess.Controller)
	go func() {
		if err := hp.Run(ctx, watch); err != nil {
			d.logger.Info("hotplug watching unavailable", "error", err)
		}
	}()

	if keys := d.Config().ApplyHotkey; keys != "" {
		bind := d.bindHotkey
		if bind == nil {
			bind = func(ctx context.Context, keys string, fn func()) error {
				return hotkeys.Listen(ctx, keys, fn, d.logger)
			}
		}
		ctrl := sess.Controller
		go func() {
			err := bind(ctx, keys, func() {
				restoreLayout(ctrl, d.logger, "hotkey")
			})
			if err != nil {
				d.logger.Warn("apply hotkey unavailable", "keys", keys, "error", err)
			}
		}()
	}

	d.logger.Info("monlayout daemon started",
		"displays", sess.Controller.Len(),
		"layout_file", sess.Controller.StorePath(),
		"socket", server.SocketPath())

	<-ctx.Done()
	d.logger.Info("shutting down monlayout daemon", "pending_jobs", sess.Pending())
	return nil
}

// Failures are already logged by the queue.
func (d *Daemon) logResult(res worker.Result) {
	if res.Err == nil {
		d.logger.Info(session.Describe(res), "op", res.Op, "duration", res.Duration)
	}
}

// Reload re-reads the config file and swaps in the settings that can change
// at runtime.
func (d *Daemon) Reload() error {
	res, err := config.LoadFromPath(d.configPath)
	if err != nil {
		return fmt.Errorf("reload %s: %w", d.configPath, err)
	}
	d.Swap(res.Config)
	return nil
}

// Swap installs cfg as the live configuration. Only log_level and
// hotplug_apply take effect; other changes are logged as needing a restart.
func (d *Daemon) Swap(cfg *config.Config) {
	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if d.level != nil {
		d.level.Set(cfg.SlogLevel())
	}
	d.hotplug.Store(cfg.HotplugApply)

	if keys := RestartKeys(old, cfg); len(keys) > 0 {
		d.logger.Warn("config changes need a daemon restart", "keys", keys)
	}
	d.logger.Info("config reloaded",
		"log_level", cfg.LogLevel,
		"hotplug_apply", cfg.HotplugApply)
}

// RestartKeys lists the config keys that differ between old and updated
// and cannot be applied to a running session.
func RestartKeys(old, updated *config.Config) []string {
	if old == nil || updated == nil {
		return nil
	}
	var keys []string
	add := func(changed bool, key string) {
		if changed {
			keys = append(keys, key)
		}
	}
	add(old.LayoutFile != updated.LayoutFile, "layout_file")
	add(old.QueryCommand != updated.QueryCommand, "query_command")
	add(old.ConfigureCommand != updated.ConfigureCommand, "configure_command")
	add(old.Enumerator != updated.Enumerator, "enumerator")
	add(old.PositionSource != updated.PositionSource, "position_source")
	add(old.DefaultPosition != updated.DefaultPosition, "default_position")
	add(old.DefaultResolution != updated.DefaultResolution, "default_resolution")
	add(old.CommandTimeout != updated.CommandTimeout, "command_timeout")
	add(old.ApplyHotkey != updated.ApplyHotkey, "apply_hotkey")
	return keys
}
