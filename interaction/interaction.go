// Package interaction implements the pair-interaction registry (spec
// §4.3): per-pair-type Predict/Resolve operations dispatched through a
// flat table keyed by (typeA, typeB), per the monomorphised-dispatch
// design note in spec §9 (no per-pair allocation or indirection beyond
// one table lookup).
package interaction

import (
	"github.com/pthm-cable/edmd/kind"
	"github.com/pthm-cable/edmd/particle"
	"github.com/pthm-cable/edmd/vector"
)

// NoShell is the capture-shell sentinel meaning "outside every shell."
const NoShell = -1

// Prediction is the result of a successful Predict call: the time of the
// next discontinuity and the shell transition it represents.
type Prediction struct {
	T                   float64
	ShellFrom, ShellTo  int
}

// Interaction is the capability interface every registered pair-type must
// satisfy (spec §9 — "trait-style capability interfaces for the pair-event
// protocol").
type Interaction interface {
	// Predict solves for the earliest positive t at which the pair's
	// separation reaches the next shell boundary, given the pair's
	// current capture state (NoShell if uncaptured). Returns ok=false
	// for grazing/parallel/miss cases (spec §4.3).
	Predict(a, b *particle.Particle, now float64, bc vector.Boundary, capturedShell int) (Prediction, bool)
	// Resolve applies the impulse for a transition from shellFrom to
	// shellTo, mutating a.Vel and b.Vel in place. reflected reports that
	// there was insufficient kinetic energy to complete the transition
	// (spec §4.3): the caller must treat the post-event shell as
	// shellFrom, not shellTo.
	Resolve(a, b *particle.Particle, bc vector.Boundary, shellFrom, shellTo int) (reflected bool)
}

// EnergySource is implemented by interactions that carry a potential
// table, letting the engine fold captured-pair potential energy into its
// telemetry without a type switch over every concrete Interaction.
type EnergySource interface {
	// Energy returns the cumulative potential energy of shell i (spec
	// §3's stepped potential table), or 0 for i == NoShell.
	Energy(shell int) float64
}

// pairKey is an unordered key over kind.PairType for registry lookup.
type pairKey struct{ x, y kind.PairType }

func newPairKey(x, y kind.PairType) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{x, y}
}

// Registry is the table keyed by (typeA, typeB) mapping to the
// Interaction governing that pair (spec §9).
type Registry struct {
	table map[pairKey]Interaction
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{table: make(map[pairKey]Interaction)}
}

// Register installs the Interaction governing pairs of (x, y).
func (r *Registry) Register(x, y kind.PairType, in Interaction) {
	r.table[newPairKey(x, y)] = in
}

// Lookup returns the Interaction governing a pair of species, if any.
func (r *Registry) Lookup(x, y kind.PairType) (Interaction, bool) {
	in, ok := r.table[newPairKey(x, y)]
	return in, ok
}
