// Package fel implements the Future Event List: the min-priority structure
// that selects the globally next event across all per-particle Particle
// Event Lists (spec §3, §4.6). Two disciplines are provided behind the
// same interface — HeapFEL (a binary heap of particles keyed by PEL head
// time) and CalendarFEL (a bucketed calendar queue) — matching the two
// families the source mixes, and the Open Question in spec §9 is resolved
// by exposing both rather than guessing a unified stream() semantics.
package fel

import "github.com/pthm-cable/edmd/particle"

// FEL is the contract every scheduler discipline must satisfy.
type FEL interface {
	// Push inserts e into owner's PEL. If it becomes the PEL head, the
	// owner's position in the global structure is updated.
	Push(e particle.Event, owner int)
	// Next returns the globally earliest PEL head without removing it.
	Next() (owner int, e particle.Event, ok bool)
	// PopNextPELEvent removes the head of owner's PEL.
	PopNextPELEvent(owner int)
	// ClearPEL empties one PEL entirely (used on token bump, ahead of a
	// full re-prediction for that particle).
	ClearPEL(owner int)
	// Stream is used only by time-rebased implementations; it subtracts
	// dt from every scheduled time. Heap implementations may no-op.
	Stream(dt float64)
	// Rebuild re-derives the global structure from the PELs, used after
	// bulk insertion at simulation start.
	Rebuild()
}
