package ranking

import "container/heap"

// Entry is a ranked recipe name with its preference score.
type Entry struct {
	Name  string
	Score float64
}

// higher orders entries by score descending, ties by name ascending.
func higher(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Name < b.Name
}

// entries is a binary max-heap with a name -> index position map.
type entries struct {
	items []Entry
	pos   map[string]int
}

func (h *entries) Len() int           { return len(h.items) }
func (h *entries) Less(i, j int) bool { return higher(h.items[i], h.items[j]) }

func (h *entries) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.pos[h.items[i].Name] = i
	h.pos[h.items[j].Name] = j
}

func (h *entries) Push(x any) {
	e := x.(Entry)
	h.pos[e.Name] = len(h.items)
	h.items = append(h.items, e)
}

func (h *entries) Pop() any {
	n := len(h.items) - 1
	e := h.items[n]
	h.items = h.items[:n]
	delete(h.pos, e.Name)
	return e
}

// frontier is a max-heap of indices into entries, used to walk the main
// heap in order without popping it.
type frontier struct {
	idx  []int
	main []Entry
}

func (f *frontier) Len() int           { return len(f.idx) }
func (f *frontier) Less(i, j int) bool { return higher(f.main[f.idx[i]], f.main[f.idx[j]]) }
func (f *frontier) Swap(i, j int)      { f.idx[i], f.idx[j] = f.idx[j], f.idx[i] }
func (f *frontier) Push(x any)         { f.idx = append(f.idx, x.(int)) }

func (f *frontier) Pop() any {
	n := len(f.idx) - 1
	i := f.idx[n]
	f.idx = f.idx[:n]
	return i
}

// topK returns the k best entries in order. Runs in O(k log k).
func (h *entries) topK(k int) []Entry {
	if k > len(h.items) {
		k = len(h.items)
	}
	if k <= 0 {
		return []Entry{}
	}

	out := make([]Entry, 0, k)
	f := &frontier{idx: []int{0}, main: h.items}
	for len(out) < k {
		i := heap.Pop(f).(int)
		out = append(out, h.items[i])
		for _, c := range [2]int{2*i + 1, 2*i + 2} {
			if c < len(h.items) {
				heap.Push(f, c)
			}
		}
	}
	return out
}
