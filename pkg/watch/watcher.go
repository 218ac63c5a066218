// Package watch regenerates block schemas when block code changes on disk.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/blockschema/pkg/blocks"
	"github.com/gnana997/blockschema/pkg/util"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Generator produces a block schema from code already read from disk.
// *blocks.Service implements it.
type Generator interface {
	GenerateFromCode(projectPath, name, codeFile, code string, opts blocks.GenerateOptions) (*blocks.GenerateResult, error)
}

// Event reports one regeneration. Exactly one of Result and Err is set.
type Event struct {
	Block  string
	File   string
	Result *blocks.GenerateResult
	Err    error
}

// Options configures a Watcher.
type Options struct {
	// ProjectPath is where schemas are written.
	ProjectPath string
	// BlocksPath is the directory holding one subdirectory per block.
	BlocksPath string
	Debounce   time.Duration
	// Cache, when set, has changed files invalidated before they are read.
	Cache *util.FileCache
	// OnEvent is called after every regeneration attempt.
	OnEvent func(Event)
}

// Watcher watches a blocks directory and regenerates the schema of a block
// when {name}/{name}.js or {name}/{name}.ts is written. Rapid changes to the
// same file are collapsed into one regeneration.
type Watcher struct {
	fsw     *fsnotify.Watcher
	gen     Generator
	opts    Options
	logger  *slog.Logger
	onEvent func(Event)

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopChan chan struct{}
	stopped  bool
	started  bool
	mu       sync.Mutex
}

// NewWatcher creates a Watcher. Call Start to begin watching.
func NewWatcher(gen Generator, opts Options, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.BlocksPath == "" {
		opts.BlocksPath = filepath.Join(opts.ProjectPath, "blocks")
	}
	onEvent := opts.OnEvent
	if onEvent == nil {
		onEvent = func(Event) {}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		fsw:            fsw,
		gen:            gen,
		opts:           opts,
		logger:         logger,
		onEvent:        onEvent,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start watches the blocks directory and every block directory in it.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher already stopped")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	root := w.opts.BlocksPath
	if err := w.fsw.Add(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.addDir(filepath.Join(root, entry.Name()))
		}
	}

	w.started = true
	w.logger.Info("block watcher started", "root", root, "debounce", w.opts.Debounce)
	go w.eventLoop()
	return nil
}

// Stop stops the watcher and drops pending regenerations. It is safe to
// call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	err := w.fsw.Close()
	w.logger.Info("block watcher stopped")
	return err
}

// Stats is a snapshot of the watcher state.
type Stats struct {
	PendingRegenerations int
	IsRunning            bool
}

// Stats returns the current watcher state.
func (w *Watcher) Stats() Stats {
	w.debounceMu.Lock()
	pending := len(w.debounceTimers)
	w.debounceMu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{PendingRegenerations: pending, IsRunning: w.started && !w.stopped}
}

func (w *Watcher) addDir(dir string) {
	if shouldIgnore(dir) {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn("failed to watch block directory", "path", dir, "error", err)
	}
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("block watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// a new block directory
	if event.Has(fsnotify.Create) && filepath.Dir(path) == filepath.Clean(w.opts.BlocksPath) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addDir(path)
			return
		}
	}

	name, ok := w.blockFor(path)
	if !ok {
		return
	}
	w.logger.Debug("block file event", "op", event.Op.String(), "file", path)

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.debounceRegenerate(name, path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if w.opts.Cache != nil {
			w.opts.Cache.Invalidate(path)
		}
		w.logger.Info("block code removed; keeping existing schema", "block", name, "file", path)
	}
}

// blockFor returns the block a path is the code file of.
func (w *Watcher) blockFor(path string) (string, bool) {
	dir := filepath.Dir(path)
	if filepath.Dir(dir) != filepath.Clean(w.opts.BlocksPath) {
		return "", false
	}
	name := filepath.Base(dir)
	if shouldIgnore(name) {
		return "", false
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != ".js" && ext != ".ts" {
		return "", false
	}
	if strings.TrimSuffix(base, ext) != name {
		return "", false
	}
	return name, true
}

// debounceRegenerate schedules a regeneration, replacing any pending one
// for the same file.
func (w *Watcher) debounceRegenerate(name, path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}
	w.debounceTimers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		select {
		case <-w.stopChan:
			return
		default:
		}
		w.onEvent(w.regenerate(name, path))
	})
}

func (w *Watcher) regenerate(name, path string) Event {
	event := Event{Block: name, File: path}
	if w.opts.Cache != nil {
		w.opts.Cache.Invalidate(path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("failed to read block code", "block", name, "file", path, "error", err)
		event.Err = err
		return event
	}

	result, err := w.gen.GenerateFromCode(w.opts.ProjectPath, name, path, string(content), blocks.GenerateOptions{})
	if err != nil {
		w.logger.Warn("failed to regenerate block schema", "block", name, "error", err)
		event.Err = err
		return event
	}
	w.logger.Info("regenerated block schema",
		"block", name,
		"path", result.FilePath,
		"valid", result.Validation.Valid)
	event.Result = result
	return event
}

func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	switch base {
	case "node_modules", "dist", "build":
		return true
	}
	return false
}
