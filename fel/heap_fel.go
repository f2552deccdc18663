package fel

import (
	"container/heap"

	"github.com/pthm-cable/edmd/particle"
)

// HeapFEL keeps one PEL per particle and an outer binary heap of owner ids
// keyed by each PEL's head event time. This is the "full binary heap of
// particles" discipline named in spec §3.
type HeapFEL struct {
	pels       []*pel
	ownerIndex []int // position of owner in ownerHeap, or -1 if absent
	ownerHeap  ownerHeap
}

// NewHeapFEL allocates a HeapFEL for n particles, preallocating each PEL
// to capacityHint entries (spec §5 — no allocation on the hot path after
// warm-up).
func NewHeapFEL(n int, capacityHint int) *HeapFEL {
	h := &HeapFEL{
		pels:       make([]*pel, n),
		ownerIndex: make([]int, n),
	}
	for i := 0; i < n; i++ {
		h.pels[i] = newPEL(i, capacityHint)
		h.ownerIndex[i] = -1
	}
	h.ownerHeap.fel = h
	return h
}

type ownerHeap struct {
	fel   *HeapFEL
	items []int
}

func (o *ownerHeap) Len() int { return len(o.items) }
func (o *ownerHeap) Less(i, j int) bool {
	oi, oj := o.items[i], o.items[j]
	ei, _ := o.fel.pels[oi].head()
	ej, _ := o.fel.pels[oj].head()
	if ei.T != ej.T {
		return ei.T < ej.T
	}
	if oi != oj {
		return oi < oj
	}
	return ei.Kind < ej.Kind
}
func (o *ownerHeap) Swap(i, j int) {
	o.items[i], o.items[j] = o.items[j], o.items[i]
	o.fel.ownerIndex[o.items[i]] = i
	o.fel.ownerIndex[o.items[j]] = j
}
func (o *ownerHeap) Push(x any) {
	owner := x.(int)
	o.fel.ownerIndex[owner] = len(o.items)
	o.items = append(o.items, owner)
}
func (o *ownerHeap) Pop() any {
	n := len(o.items)
	owner := o.items[n-1]
	o.items = o.items[:n-1]
	o.fel.ownerIndex[owner] = -1
	return owner
}

func (h *HeapFEL) Push(e particle.Event, owner int) {
	p := h.pels[owner]
	wasEmpty := len(p.events) == 0
	p.push(e)
	if wasEmpty {
		heap.Push(&h.ownerHeap, owner)
	} else if h.ownerIndex[owner] >= 0 {
		heap.Fix(&h.ownerHeap, h.ownerIndex[owner])
	}
}

func (h *HeapFEL) Next() (int, particle.Event, bool) {
	if h.ownerHeap.Len() == 0 {
		return 0, particle.Event{}, false
	}
	owner := h.ownerHeap.items[0]
	e, _ := h.pels[owner].head()
	return owner, e, true
}

func (h *HeapFEL) PopNextPELEvent(owner int) {
	p := h.pels[owner]
	if len(p.events) == 0 {
		return
	}
	p.popHead()
	idx := h.ownerIndex[owner]
	if idx < 0 {
		return
	}
	if len(p.events) == 0 {
		heap.Remove(&h.ownerHeap, idx)
	} else {
		heap.Fix(&h.ownerHeap, idx)
	}
}

func (h *HeapFEL) ClearPEL(owner int) {
	p := h.pels[owner]
	p.clear()
	if idx := h.ownerIndex[owner]; idx >= 0 {
		heap.Remove(&h.ownerHeap, idx)
	}
}

// Stream is a documented no-op: HeapFEL stores absolute times directly in
// the owner heap's comparator, so no rebase is required (spec §4.6).
func (h *HeapFEL) Stream(dt float64) {}

// Rebuild re-heapifies the owner heap from scratch, used after bulk
// insertion at simulation start.
func (h *HeapFEL) Rebuild() {
	h.ownerHeap.items = h.ownerHeap.items[:0]
	for i := range h.ownerIndex {
		h.ownerIndex[i] = -1
	}
	for owner, p := range h.pels {
		if len(p.events) > 0 {
			h.ownerIndex[owner] = len(h.ownerHeap.items)
			h.ownerHeap.items = append(h.ownerHeap.items, owner)
		}
	}
	heap.Init(&h.ownerHeap)
}
