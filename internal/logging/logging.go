// Package logging provides categorized logging for the lifehub assistant
// engine. Every engine subsystem logs through a per-category sugared logger
// so log output can be filtered by subsystem. The backing zap core is
// injected once at startup; before initialization all helpers are no-ops.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Category identifies an engine subsystem in log output.
type Category string

const (
	CategoryEngine       Category = "engine"       // Assembly, init, teardown
	CategoryIntent       Category = "intent"       // Classification decisions
	CategoryConversation Category = "conversation" // Turn lifecycle
	CategoryDispatch     Category = "dispatch"     // Action routing and outcomes
	CategoryAdvisory     Category = "advisory"     // Feed operations
	CategoryState        Category = "state"        // State container mutations
	CategoryStore        Category = "store"        // Audit log persistence
	CategoryWatcher      Category = "watcher"      // Keyword rule file reloads
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Initialize installs the backing logger. Call once at startup; safe to call
// again in tests to swap in an observer core.
func Initialize(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	root = l
	loggers = make(map[Category]*zap.SugaredLogger)
}

// Get returns the sugared logger for a category.
func Get(c Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[c]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[c]; ok {
		return l
	}
	l := root.Sugar().With("category", string(c))
	loggers[c] = l
	return l
}

// Per-category convenience helpers, matching call sites like
// logging.Dispatch("...") / logging.DispatchDebug("...").

func Engine(format string, args ...interface{})       { Get(CategoryEngine).Infof(format, args...) }
func EngineDebug(format string, args ...interface{})  { Get(CategoryEngine).Debugf(format, args...) }
func Intent(format string, args ...interface{})       { Get(CategoryIntent).Infof(format, args...) }
func IntentDebug(format string, args ...interface{})  { Get(CategoryIntent).Debugf(format, args...) }
func Turn(format string, args ...interface{})         { Get(CategoryConversation).Infof(format, args...) }
func TurnDebug(format string, args ...interface{})    { Get(CategoryConversation).Debugf(format, args...) }
func Dispatch(format string, args ...interface{})     { Get(CategoryDispatch).Infof(format, args...) }
func DispatchDebug(format string, args ...interface{}) {
	Get(CategoryDispatch).Debugf(format, args...)
}
func DispatchError(format string, args ...interface{}) {
	Get(CategoryDispatch).Errorf(format, args...)
}
func Advisory(format string, args ...interface{})     { Get(CategoryAdvisory).Infof(format, args...) }
func AdvisoryDebug(format string, args ...interface{}) {
	Get(CategoryAdvisory).Debugf(format, args...)
}
func State(format string, args ...interface{})      { Get(CategoryState).Debugf(format, args...) }
func Store(format string, args ...interface{})      { Get(CategoryStore).Infof(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debugf(format, args...) }
func Watcher(format string, args ...interface{})    { Get(CategoryWatcher).Infof(format, args...) }
func WatcherDebug(format string, args ...interface{}) {
	Get(CategoryWatcher).Debugf(format, args...)
}
