package intent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"lifehub/internal/logging"
)

// RuleWatcher watches a keyword rule YAML file for changes and hot-reloads
// the classifier's keyword tables. Rapid saves are debounced so editors that
// write in bursts trigger a single reload.
type RuleWatcher struct {
	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	classifier *Classifier
	path       string
	dirty      bool
	lastEvent  time.Time
	debounce   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	running    bool

	// Reloads counts successful reloads; used by tests to synchronize.
	reloads int
}

// NewRuleWatcher creates a watcher for the given keyword file. The file does
// not need to exist yet; its directory is watched so a later create is
// picked up.
func NewRuleWatcher(path string, classifier *Classifier) (*RuleWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &RuleWatcher{
		watcher:    w,
		classifier: classifier,
		path:       path,
		debounce:   200 * time.Millisecond,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (rw *RuleWatcher) Start(ctx context.Context) error {
	rw.mu.Lock()
	if rw.running {
		rw.mu.Unlock()
		return nil
	}
	rw.running = true
	rw.mu.Unlock()

	dir := rw.path
	if i := strings.LastIndexAny(dir, "/\\"); i >= 0 {
		dir = dir[:i]
	}
	if dir == "" {
		dir = "."
	}
	if err := rw.watcher.Add(dir); err != nil {
		rw.mu.Lock()
		rw.running = false
		rw.mu.Unlock()
		return err
	}
	logging.Watcher("watching keyword rules in %s", dir)

	go rw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (rw *RuleWatcher) Stop() {
	rw.mu.Lock()
	if !rw.running {
		rw.mu.Unlock()
		return
	}
	rw.running = false
	rw.mu.Unlock()

	close(rw.stopCh)
	<-rw.doneCh
	if err := rw.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatcher).Warnf("close watcher: %v", err)
	}
}

// Reloads returns the number of successful reloads so far.
func (rw *RuleWatcher) Reloads() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.reloads
}

func (rw *RuleWatcher) run(ctx context.Context) {
	defer close(rw.doneCh)

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rw.stopCh:
			return
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			rw.handleEvent(event)
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatcher).Warnf("watch error: %v", err)
		case <-tick.C:
			rw.maybeReload()
		}
	}
}

func (rw *RuleWatcher) handleEvent(event fsnotify.Event) {
	if event.Name != rw.path {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	logging.WatcherDebug("event %s for %s", event.Op, event.Name)
	rw.mu.Lock()
	rw.dirty = true
	rw.lastEvent = time.Now()
	rw.mu.Unlock()
}

func (rw *RuleWatcher) maybeReload() {
	rw.mu.Lock()
	if !rw.dirty || time.Since(rw.lastEvent) < rw.debounce {
		rw.mu.Unlock()
		return
	}
	rw.dirty = false
	rw.mu.Unlock()

	set, err := LoadKeywordFile(rw.path)
	if err != nil {
		// Keep the previous tables on a bad file; the operator can fix and
		// save again.
		logging.Get(logging.CategoryWatcher).Warnf("reload failed: %v", err)
		return
	}
	rw.classifier.SetKeywords(set)

	rw.mu.Lock()
	rw.reloads++
	rw.mu.Unlock()
	logging.Watcher("keyword rules reloaded from %s", rw.path)
}
