package directive

import (
	"sort"
	"sync"

	"plbind/internal/source"
)

// Entry records one annotated declaration seen by the driver.
type Entry struct {
	Intent   Intent
	Name     string
	Path     string
	Span     source.Span
	Accepted bool
}

// Registry collects annotated declarations across files. Files are
// processed in parallel, so every method locks.
type Registry struct {
	mu       sync.Mutex
	entries  []Entry
	byIntent map[Intent][]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byIntent: make(map[Intent][]int)}
}

// Add registers an entry.
func (r *Registry) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byIntent[e.Intent] = append(r.byIntent[e.Intent], len(r.entries))
	r.entries = append(r.entries, e)
}

// All returns every entry sorted by path and position.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	out := append([]Entry(nil), r.entries...)
	r.mu.Unlock()
	sortEntries(out)
	return out
}

// FilterByIntent returns entries matching any of intents, or all of them
// when intents is empty.
func (r *Registry) FilterByIntent(intents ...Intent) []Entry {
	if len(intents) == 0 {
		return r.All()
	}
	r.mu.Lock()
	var out []Entry
	for _, in := range intents {
		for _, idx := range r.byIntent[in] {
			out = append(out, r.entries[idx])
		}
	}
	r.mu.Unlock()
	sortEntries(out)
	return out
}

// Counts returns the number of entries per intent.
func (r *Registry) Counts() map[Intent]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Intent]int, len(r.byIntent))
	for in, idx := range r.byIntent {
		out[in] = len(idx)
	}
	return out
}

// Rejected returns the number of entries per intent that failed validation.
func (r *Registry) Rejected() map[Intent]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Intent]int)
	for _, e := range r.entries {
		if !e.Accepted {
			out[e.Intent]++
		}
	}
	return out
}

// Len returns the total number of entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Path != entries[j].Path {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].Span.Start < entries[j].Span.Start
	})
}
