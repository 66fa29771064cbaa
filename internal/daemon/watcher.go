package daemon

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// ConfigWatcher calls onChange after the config file is written or
// recreated.
type ConfigWatcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	onChange func()
	debounce time.Duration
	logger   *slog.Logger

	done    chan struct{}
	mu      sync.Mutex
	running bool
	timer   *time.Timer
}

// NewConfigWatcher creates a watcher for filePath. It does nothing until
// Start is called.
func NewConfigWatcher(filePath string, onChange func(), logger *slog.Logger) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ConfigWatcher{
		watcher:  watcher,
		filePath: filePath,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The containing directory is watched rather than
// the file, so atomic replace-by-rename saves are seen.
func (cw *ConfigWatcher) Start() error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil
	}
	cw.running = true
	cw.mu.Unlock()

	dir := filepath.Dir(cw.filePath)
	if err := cw.watcher.Add(dir); err != nil {
		return err
	}

	go cw.watch()
	return nil
}

func (cw *ConfigWatcher) watch() {
	filename := filepath.Base(cw.filePath)

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				cw.logger.Debug("config file changed", "file", cw.filePath, "op", event.Op.String())
				cw.schedule()
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn("config watcher error", "error", err)

		case <-cw.done:
			return
		}
	}
}

func (cw *ConfigWatcher) schedule() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if !cw.running {
		return
	}
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounce, cw.onChange)
}

// Stop stops the watcher. Pending debounced callbacks are dropped.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	cw.running = false
	if cw.timer != nil {
		cw.timer.Stop()
	}
	close(cw.done)
	return cw.watcher.Close()
}
