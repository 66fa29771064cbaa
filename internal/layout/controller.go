package layout

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/1broseidon/monlayout/internal/worker"
)

// Applier drives the display server to a layout.
type Applier interface {
	Apply(ctx context.Context, displays []DisplayConfig) error
	Reset(ctx context.Context, displays []DisplayConfig) error
}

// Dispatcher runs applier calls off the caller's goroutine.
type Dispatcher interface {
	Submit(op string, fn func(ctx context.Context) error) *worker.Job
}

// ControllerOptions wires a Controller to its collaborators.
type ControllerOptions struct {
	Store    *Store
	Applier  Applier
	Queue    Dispatcher
	Defaults Defaults
	Logger   *slog.Logger
	// OnChange is called after Load or Reset replace displayed state.
	OnChange func()
}

// LoadResult summarizes a Load.
type LoadResult struct {
	// Applied lists tracked displays that received saved settings.
	Applied []string
	// Inactive lists saved outputs that are not currently tracked.
	Inactive []string
}

// Controller owns the authoritative list of tracked displays. The list is
// fixed at construction; edits and loads only change settings in place.
type Controller struct {
	store    *Store
	applier  Applier
	queue    Dispatcher
	defaults Defaults
	logger   *slog.Logger
	onChange func()

	mu       sync.Mutex
	displays []DisplayConfig
	initial  []DisplayConfig
	inactive []Record
}

// NewController takes ownership of a copy of displays.
func NewController(displays []DisplayConfig, opts ControllerOptions) (*Controller, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("controller requires a store")
	}
	if opts.Applier == nil || opts.Queue == nil {
		return nil, fmt.Errorf("controller requires an applier and a queue")
	}
	if !opts.Defaults.Resolution.Valid() {
		opts.Defaults.Resolution = DefaultResolution
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]struct{}, len(displays))
	for _, d := range displays {
		if d.Name == "" {
			return nil, fmt.Errorf("display without a name")
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("duplicate display name %q", d.Name)
		}
		seen[d.Name] = struct{}{}
		if !d.Resolution.Valid() {
			return nil, fmt.Errorf("display %q: invalid resolution %s", d.Name, d.Resolution)
		}
	}

	return &Controller{
		store:    opts.Store,
		applier:  opts.Applier,
		queue:    opts.Queue,
		defaults: opts.Defaults,
		logger:   logger,
		onChange: opts.OnChange,
		displays: cloneDisplays(displays),
		initial:  cloneDisplays(displays),
	}, nil
}

func cloneDisplays(in []DisplayConfig) []DisplayConfig {
	out := make([]DisplayConfig, len(in))
	copy(out, in)
	return out
}

// Displays returns a copy of the tracked displays in order.
func (c *Controller) Displays() []DisplayConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneDisplays(c.displays)
}

// Inactive returns saved records for outputs that are not tracked in this run.
func (c *Controller) Inactive() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.inactive))
	copy(out, c.inactive)
	return out
}

// Len returns the number of tracked displays.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.displays)
}

// StorePath returns the configured layout file path.
func (c *Controller) StorePath() string {
	return c.store.Path
}

// Lookup resolves a display reference, either an output name or a list index.
func (c *Controller) Lookup(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, d := range c.displays {
		if d.Name == ref {
			return i, nil
		}
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		if idx >= 0 && idx < len(c.displays) {
			return idx, nil
		}
		return 0, fmt.Errorf("display index %d out of range (have %d)", idx, len(c.displays))
	}
	return 0, fmt.Errorf("unknown display %q", ref)
}

// Move shifts the display at index by dx, dy.
func (c *Controller) Move(index, dx, dy int) (DisplayConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIndex(index); err != nil {
		return DisplayConfig{}, err
	}
	c.displays[index].Position = c.displays[index].Position.Add(dx, dy)
	return c.displays[index], nil
}

// SetPosition places the display at index at pos.
func (c *Controller) SetPosition(index int, pos Position) (DisplayConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIndex(index); err != nil {
		return DisplayConfig{}, err
	}
	c.displays[index].Position = pos
	return c.displays[index], nil
}

// SetConnected marks tracked displays connected when their name is in names
// and disconnected otherwise. It reports whether any flag changed. Outputs
// that were not enumerated at startup stay untracked.
func (c *Controller) SetConnected(names []string) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	c.mu.Lock()
	changed := false
	for i := range c.displays {
		_, ok := set[c.displays[i].Name]
		if c.displays[i].Connected != ok {
			c.displays[i].Connected = ok
			changed = true
		}
	}
	c.mu.Unlock()

	if changed {
		c.notifyChange()
	}
	return changed
}

func (c *Controller) checkIndex(index int) error {
	if index < 0 || index >= len(c.displays) {
		return fmt.Errorf("display index %d out of range (have %d)", index, len(c.displays))
	}
	return nil
}

// Save persists tracked displays followed by any inactive saved records.
func (c *Controller) Save() error {
	c.mu.Lock()
	records := make([]Record, 0, len(c.displays)+len(c.inactive))
	for _, d := range c.displays {
		records = append(records, RecordOf(d))
	}
	records = append(records, c.inactive...)
	c.mu.Unlock()

	if err := c.store.SaveRecords(records); err != nil {
		return err
	}
	c.logger.Info("layout saved", "path", c.store.Path, "displays", len(records))
	return nil
}

// Load merges the saved layout into the tracked displays by output name.
// Records for outputs not tracked in this run are kept as inactive so a
// later Save does not drop them. An error matching ErrNoLayout leaves state
// unchanged.
func (c *Controller) Load() (LoadResult, error) {
	records, err := c.store.Load()
	if err != nil {
		c.logger.Info("no layout loaded", "path", c.store.Path, "reason", err)
		return LoadResult{}, err
	}

	var res LoadResult
	c.mu.Lock()
	index := make(map[string]int, len(c.displays))
	for i, d := range c.displays {
		index[d.Name] = i
	}
	seen := make(map[string]struct{}, len(records))
	var inactive []Record
	for _, r := range records {
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}

		i, ok := index[r.Name]
		if !ok {
			inactive = append(inactive, r)
			res.Inactive = append(res.Inactive, r.Name)
			continue
		}
		c.displays[i].Position = r.Position()
		c.displays[i].Resolution = r.Resolution
		c.displays[i].Rotation = r.Rotation
		res.Applied = append(res.Applied, r.Name)
	}
	c.inactive = inactive
	c.mu.Unlock()

	c.logger.Info("layout loaded",
		"path", c.store.Path,
		"applied", len(res.Applied),
		"inactive", len(res.Inactive))
	c.notifyChange()
	return res, nil
}

// Apply queues a batched apply of the current connected displays.
func (c *Controller) Apply() *worker.Job {
	c.mu.Lock()
	snapshot := make([]DisplayConfig, 0, len(c.displays))
	for _, d := range c.displays {
		if d.Connected {
			snapshot = append(snapshot, d)
		}
	}
	c.mu.Unlock()

	return c.queue.Submit("apply", func(ctx context.Context) error {
		return c.applier.Apply(ctx, snapshot)
	})
}

// Reset queues a per-output reset and restores in-memory defaults: the
// configured default position, normal rotation and the resolution seen at
// startup.
func (c *Controller) Reset() *worker.Job {
	c.mu.Lock()
	snapshot := cloneDisplays(c.displays)
	for i := range c.displays {
		c.displays[i].Position = c.defaults.Position
		c.displays[i].Rotation = RotationNormal
		c.displays[i].Resolution = c.initial[i].Resolution
	}
	c.mu.Unlock()

	job := c.queue.Submit("reset", func(ctx context.Context) error {
		return c.applier.Reset(ctx, snapshot)
	})
	c.notifyChange()
	return job
}

func (c *Controller) notifyChange() {
	if c.onChange != nil {
		c.onChange()
	}
}
