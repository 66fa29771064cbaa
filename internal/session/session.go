// Package session assembles the enumerator, store, applier, worker queue
// and controller from a configuration.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/monlayout/internal/config"
	"github.com/1broseidon/monlayout/internal/layout"
	"github.com/1broseidon/monlayout/internal/worker"
	"github.com/1broseidon/monlayout/internal/x11"
	"github.com/1broseidon/monlayout/internal/xrandr"
)

// Options overrides parts of the assembly. Zero values select the
// configured implementations.
type Options struct {
	Logger     *slog.Logger
	Enumerator layout.Enumerator
	Applier    layout.Applier
	// OnResult receives every finished configuration job.
	OnResult func(worker.Result)
	// OnChange is forwarded to the controller.
	OnChange func()
}

// Session is one run's worth of display state.
type Session struct {
	Config     *config.Config
	Controller *layout.Controller
	Queue      *worker.Queue
	// Startup is the initial apply job, or nil when none was queued.
	Startup *worker.Job

	logger   *slog.Logger
	onResult func(worker.Result)

	mu      sync.Mutex
	last    worker.Result
	hasLast bool
}

// NewEnumerator returns the enumerator selected by cfg.
func NewEnumerator(cfg *config.Config, logger *slog.Logger) layout.Enumerator {
	switch cfg.Enumerator {
	case config.EnumeratorRandR:
		return x11.NewEnumerator(cfg.Defaults(), cfg.PositionSource, logger)
	default:
		e := xrandr.NewEnumerator(cfg.QueryCommand, cfg.Defaults(), logger)
		e.PositionSource = cfg.PositionSource
		e.Timeout = cfg.CommandTimeout
		return e
	}
}

// Open enumerates the connected displays, builds the controller and, when
// configured, queues the startup apply. It never blocks on the
// configuration tool.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session requires a config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		Config:   cfg,
		logger:   logger,
		onResult: opts.OnResult,
	}

	enum := opts.Enumerator
	if enum == nil {
		enum = NewEnumerator(cfg, logger)
	}
	applier := opts.Applier
	if applier == nil {
		a := xrandr.NewApplier(cfg.ConfigureCommand, logger)
		a.Timeout = cfg.CommandTimeout
		applier = a
	}

	displays := enum.Enumerate(ctx)
	if len(displays) == 0 {
		logger.Warn("no connected displays found", "enumerator", string(cfg.Enumerator))
	} else {
		logger.Info("displays enumerated", "count", len(displays))
	}

	// Jobs run without a deadline; command_timeout applies per invocation.
	s.Queue = worker.New(worker.Options{
		Logger:   logger,
		OnResult: s.record,
	})

	ctrl, err := layout.NewController(displays, layout.ControllerOptions{
		Store:    layout.NewStore(cfg.LayoutFile),
		Applier:  applier,
		Queue:    s.Queue,
		Defaults: cfg.Defaults(),
		Logger:   logger,
		OnChange: opts.OnChange,
	})
	if err != nil {
		s.Queue.Close()
		return nil, fmt.Errorf("failed to create layout controller: %w", err)
	}
	s.Controller = ctrl

	if cfg.ApplyOnStart && len(displays) > 0 {
		s.Startup = ctrl.Apply()
	}
	return s, nil
}

func (s *Session) record(res worker.Result) {
	s.mu.Lock()
	s.last = res
	s.hasLast = true
	s.mu.Unlock()

	if s.onResult != nil {
		s.onResult(res)
	}
}

// LastResult returns the most recent finished job.
func (s *Session) LastResult() (worker.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

// Pending returns the number of queued configuration jobs.
func (s *Session) Pending() int {
	return s.Queue.Pending()
}

// Close drains the queue.
func (s *Session) Close() {
	s.Queue.Close()
}

// Describe renders a job result as a one-line status message.
func Describe(res worker.Result) string {
	if res.Err != nil {
		return fmt.Sprintf("%s failed: %v", res.Op, res.Err)
	}
	switch res.Op {
	case "apply":
		return "Configuration complete!"
	case "reset":
		return "Displays reset to automatic modes"
	default:
		return fmt.Sprintf("%s finished", res.Op)
	}
}
