package ranking

import (
	"container/heap"
	"sync"
)

// Ranking keeps the recipes of one meal role ordered by preference score.
// Safe for concurrent use: Top takes a read lock, Update an exclusive one.
type Ranking struct {
	mu sync.RWMutex
	h  entries
}

// NewRanking builds a ranking from the given entries. Duplicate names keep the last score.
func NewRanking(items []Entry) *Ranking {
	h := entries{items: make([]Entry, 0, len(items)), pos: make(map[string]int, len(items))}
	for _, e := range items {
		if i, ok := h.pos[e.Name]; ok {
			h.items[i].Score = e.Score
			continue
		}
		h.pos[e.Name] = len(h.items)
		h.items = append(h.items, e)
	}
	heap.Init(&h)
	return &Ranking{h: h}
}

// Top returns up to k names in descending preference order.
func (r *Ranking) Top(k int) []string {
	top := r.TopEntries(k)
	names := make([]string, len(top))
	for i, e := range top {
		names[i] = e.Name
	}
	return names
}

// TopEntries is Top with scores attached.
func (r *Ranking) TopEntries(k int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.h.topK(k)
}

// Update relocates name to its new score. Reports false if name is not ranked.
func (r *Ranking) Update(name string, score float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.h.pos[name]
	if !ok {
		return false
	}
	r.h.items[i].Score = score
	heap.Fix(&r.h, i)
	return true
}

// Contains reports whether name is ranked here.
func (r *Ranking) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.h.pos[name]
	return ok
}

// Len returns the number of ranked recipes.
func (r *Ranking) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.h.items)
}
