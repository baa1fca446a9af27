// Package advisory holds the three ranked read-only collections surfaced to
// the user outside any conversation: insights, recommendations, and
// predictions. Items are produced by an external advisory generator and only
// consumed here; once added they are immutable. An item's attached action
// template is materialized into a real Action only when the user triggers
// it, so repeated triggers never share execution state.
package advisory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifehub/internal/domain"
	"lifehub/internal/logging"
)

// Comparator orders items; less reports whether a sorts before b.
type Comparator func(a, b domain.AdvisoryItem) bool

// ListOptions narrows and orders a List call. The zero value lists every
// item of the kind, most-recent-first.
type ListOptions struct {
	// Module filters to one module when non-empty.
	Module domain.ModuleTag
	// Limit caps the result length when positive.
	Limit int
	// OrderBy overrides the default most-recent-first ordering.
	OrderBy Comparator
}

// Feed holds the advisory collections. The backing collections are small and
// wholly materialized, so listing is a pure filter/slice with no pagination.
type Feed struct {
	mu    sync.RWMutex
	items map[domain.AdvisoryKind][]domain.AdvisoryItem
	now   func() time.Time
}

// NewFeed returns an empty feed. now may be nil, defaulting to time.Now.
func NewFeed(now func() time.Time) *Feed {
	if now == nil {
		now = time.Now
	}
	return &Feed{
		items: make(map[domain.AdvisoryKind][]domain.AdvisoryItem),
		now:   now,
	}
}

// Add appends a generated item, assigning id and timestamp if unset.
// Generator-side entry point; end users never call this.
func (f *Feed) Add(item domain.AdvisoryItem) domain.AdvisoryItem {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = f.now()
	}
	f.mu.Lock()
	f.items[item.Kind] = append(f.items[item.Kind], item)
	f.mu.Unlock()
	logging.AdvisoryDebug("item added kind=%s module=%s id=%s", item.Kind, item.Module, item.ID)
	return item
}

// List returns items of one kind, filtered and ordered per opts.
func (f *Feed) List(kind domain.AdvisoryKind, opts ListOptions) []domain.AdvisoryItem {
	f.mu.RLock()
	src := f.items[kind]
	out := make([]domain.AdvisoryItem, 0, len(src))
	for _, item := range src {
		if opts.Module != "" && item.Module != opts.Module {
			continue
		}
		out = append(out, item)
	}
	f.mu.RUnlock()

	less := opts.OrderBy
	if less == nil {
		less = func(a, b domain.AdvisoryItem) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// Clear removes matching items. Housekeeping only, not exposed to end users.
// An empty module clears the whole kind.
func (f *Feed) Clear(kind domain.AdvisoryKind, module domain.ModuleTag) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	src := f.items[kind]
	if module == "" {
		f.items[kind] = nil
		logging.Advisory("cleared kind=%s count=%d", kind, len(src))
		return len(src)
	}
	kept := src[:0]
	removed := 0
	for _, item := range src {
		if item.Module == module {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	f.items[kind] = kept
	logging.Advisory("cleared kind=%s module=%s count=%d", kind, module, removed)
	return removed
}

// Materialize mints a fresh Action from the item's attached template.
// Returns nil when the item carries no template. Each call produces a new
// action id, so triggering the same advisory twice never leaks execution
// state from a prior trigger.
func (f *Feed) Materialize(item domain.AdvisoryItem) *domain.Action {
	if item.Template == nil {
		return nil
	}
	action := item.Template.Materialize(f.now())
	logging.AdvisoryDebug("materialized action %s from advisory %s", action.ID, item.ID)
	return action
}
