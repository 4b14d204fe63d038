package executor

import (
	"sort"
	"sync"
)

// CategoryStats aggregates outcomes for one file category.
type CategoryStats struct {
	Attempted   int
	Succeeded   int
	Failed      int
	FailedItems []string
}

// Stats accumulates per-category counters as results arrive. Safe for
// concurrent Record calls.
type Stats struct {
	mu         sync.Mutex
	categories map[string]*CategoryStats
}

// NewStats creates an empty aggregate.
func NewStats() *Stats {
	return &Stats{categories: make(map[string]*CategoryStats)}
}

// Record folds one result into the aggregate.
func (s *Stats) Record(result Result) {
	category := result.Category
	if category == "" {
		category = "unknown"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.categories[category]
	if !ok {
		cs = &CategoryStats{}
		s.categories[category] = cs
	}
	cs.Attempted++
	if result.Succeeded() {
		cs.Succeeded++
	} else {
		cs.Failed++
		cs.FailedItems = append(cs.FailedItems, result.ID)
	}
}

// Category returns a copy of one category's counters.
func (s *Stats) Category(name string) CategoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.categories[name]; ok {
		out := *cs
		out.FailedItems = append([]string(nil), cs.FailedItems...)
		return out
	}
	return CategoryStats{}
}

// Categories returns the category names seen so far, sorted.
func (s *Stats) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.categories))
	for name := range s.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Totals sums counters across categories.
func (s *Stats) Totals() (attempted, succeeded, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cs := range s.categories {
		attempted += cs.Attempted
		succeeded += cs.Succeeded
		failed += cs.Failed
	}
	return attempted, succeeded, failed
}
