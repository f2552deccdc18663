package fel

import (
	"container/heap"

	"github.com/pthm-cable/edmd/particle"
)

// pel is one Particle Event List: a small bounded min-heap of events in
// which this particle is the primary participant (spec §3 — PEL).
type pel struct {
	owner  int
	events []particle.Event
}

func newPEL(owner int, capacityHint int) *pel {
	return &pel{owner: owner, events: make([]particle.Event, 0, capacityHint)}
}

// head returns the earliest event in this PEL, without removing it.
func (p *pel) head() (particle.Event, bool) {
	if len(p.events) == 0 {
		return particle.Event{}, false
	}
	return p.events[0], true
}

// container/heap.Interface implementation, ordered by time and the
// (owner, kind) tie-break from spec §5. Within one PEL the owner is
// constant, so the tie-break reduces to event kind.
func (p *pel) Len() int { return len(p.events) }
func (p *pel) Less(i, j int) bool {
	a, b := p.events[i], p.events[j]
	if a.T != b.T {
		return a.T < b.T
	}
	return a.Kind < b.Kind
}
func (p *pel) Swap(i, j int) { p.events[i], p.events[j] = p.events[j], p.events[i] }
func (p *pel) Push(x any)    { p.events = append(p.events, x.(particle.Event)) }
func (p *pel) Pop() any {
	n := len(p.events)
	e := p.events[n-1]
	p.events = p.events[:n-1]
	return e
}

func (p *pel) push(e particle.Event) { heap.Push(p, e) }
func (p *pel) popHead()              { heap.Pop(p) }
func (p *pel) clear()                { p.events = p.events[:0] }
