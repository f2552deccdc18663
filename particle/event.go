package particle

import "github.com/pthm-cable/edmd/kind"

// NoParticle is the sentinel secondary-particle index for events that have
// no second participant (cell crossings, thermostat firings, halt).
const NoParticle = -1

// Payload carries kind-specific event data: the shell transitioned
// from/to for PairInteraction, or the cell face crossed for CellCross.
type Payload struct {
	ShellFrom int
	ShellTo   int
	CellFace  int
}

// Event is a scheduled occurrence. The engine never mutates one after
// construction (only a FEL's Stream shifts the stored times T); staleness
// is expressed purely through token comparison against
// the particles' current tokens (spec §3 — "invalidation is expressed by
// the token mismatch, not by mutation").
type Event struct {
	T       float64
	Kind    kind.EventKind
	A       int
	B       int
	TokenA  uint64
	TokenB  uint64
	Payload Payload
}

// NewPairEvent builds a PairInteraction event between a and b.
func NewPairEvent(t float64, a, b int, tokenA, tokenB uint64, shellFrom, shellTo int) Event {
	return Event{
		T: t, Kind: kind.PairInteraction,
		A: a, B: b, TokenA: tokenA, TokenB: tokenB,
		Payload: Payload{ShellFrom: shellFrom, ShellTo: shellTo},
	}
}

// NewCellCrossEvent builds a CellCross event for particle a.
func NewCellCrossEvent(t float64, a int, token uint64, face int) Event {
	return Event{
		T: t, Kind: kind.CellCross,
		A: a, B: NoParticle, TokenA: token, TokenB: 0,
		Payload: Payload{CellFace: face},
	}
}

// NewSystemEvent builds a non-pair system event (Thermostat/Compression/
// Halt/Recalculate) belonging to particle a, or to no particle in
// particular when a == NoParticle (e.g. Halt).
func NewSystemEvent(t float64, k kind.EventKind, a int, token uint64) Event {
	return Event{T: t, Kind: k, A: a, B: NoParticle, TokenA: token, TokenB: 0}
}
