// Package potential converts a continuous pair potential U(r) into an
// ordered stepped-shell table (spec §4.2): a strictly decreasing sequence
// of radii with per-shell energy discontinuities, built lazily on demand
// and cached write-once-per-index (spec §9 — lazy shell cache).
package potential

import (
	"math"

	"github.com/pthm-cable/edmd/kind"
	"gonum.org/v1/gonum/floats"
)

// ContinuousPotential is a continuous pair potential U(r).
type ContinuousPotential interface {
	U(r float64) float64
	// Minimum returns the radius at which U is minimized and the cutoff
	// beyond which U is treated as zero.
	Minimum() (rMin, cutoff float64)
}

// LennardJones is U(r) = 4ε[(σ/r)^12 - (σ/r)^6], truncated at Cutoff.
type LennardJones struct {
	Sigma, Epsilon, Cutoff float64
}

func (lj LennardJones) U(r float64) float64 {
	if r >= lj.Cutoff {
		return 0
	}
	sr6 := math.Pow(lj.Sigma/r, 6)
	sr12 := sr6 * sr6
	return 4 * lj.Epsilon * (sr12 - sr6)
}

// Minimum returns r_min = 2^(1/6)*σ, and the configured cutoff.
func (lj LennardJones) Minimum() (float64, float64) {
	return math.Pow(2, 1.0/6.0) * lj.Sigma, lj.Cutoff
}

// VolumeAverage is the closed-form volume-weighted average of U over the
// spherical shell [rInner, rOuter] (spec §4.2: "analytic volume-average,
// closed-form for Lennard-Jones"). U(r)=4ε[(σ/r)^12-(σ/r)^6] integrates
// termwise by the power rule: ∫r^-10 dr = -1/(9r^9), ∫r^-4 dr = -1/(3r^3),
// and ∫r² dr = r³/3, so the ratio needs no quadrature at all.
func (lj LennardJones) VolumeAverage(rInner, rOuter float64) float64 {
	if rInner <= 0 {
		return lj.U(0.5 * (rInner + rOuter))
	}
	sigma6 := math.Pow(lj.Sigma, 6)
	sigma12 := sigma6 * sigma6

	inv9 := 1/math.Pow(rInner, 9) - 1/math.Pow(rOuter, 9)
	inv3 := 1/math.Pow(rInner, 3) - 1/math.Pow(rOuter, 3)
	numerator := 4 * lj.Epsilon * (sigma12*inv9/9 - sigma6*inv3/3)

	denominator := (rOuter*rOuter*rOuter - rInner*rInner*rInner) / 3
	if denominator == 0 {
		return lj.U(0.5 * (rInner + rOuter))
	}
	return numerator / denominator
}

// Shell is one row of the stepped-potential table: the pair (r_i, ΔE_i)
// defining the discontinuity at this shell (spec §3).
type Shell struct {
	R       float64 // outer radius of this shell
	E       float64 // cumulative energy at this shell
	DeltaE  float64 // E_i - E_(i-1): the jump crossing inward into this shell
	HardCore bool   // true if this is the innermost, truncated shell
}

// Table is an ordered, strictly-decreasing sequence of shells, extended
// lazily on demand to shell k. Shells already computed are never
// repositioned, so reads of shells below the current high-water mark
// require no synchronisation (spec §9).
type Table struct {
	shells  []Shell
	builder func(k int, prev *Shell) (Shell, bool) // returns ok=false when stepping is exhausted (hard core reached)
}

// newTable wraps a shell-generating function behind the lazy, append-only
// cache contract.
func newTable(builder func(k int, prev *Shell) (Shell, bool)) *Table {
	return &Table{builder: builder}
}

// Shell returns the k-th shell (0-indexed from the cutoff inward),
// extending the table if necessary. ok is false if k is beyond the hard
// core (the table is exhausted).
func (t *Table) Shell(k int) (Shell, bool) {
	for len(t.shells) <= k {
		var prev *Shell
		if len(t.shells) > 0 {
			prev = &t.shells[len(t.shells)-1]
		}
		s, ok := t.builder(len(t.shells), prev)
		if !ok {
			return Shell{}, false
		}
		t.shells = append(t.shells, s)
		if s.HardCore {
			break
		}
	}
	if k >= len(t.shells) {
		return Shell{}, false
	}
	return t.shells[k], true
}

// Radius returns shell i's outer radius, extending the table if needed.
// i < 0 (uncaptured) has no radius and returns ok=false.
func (t *Table) Radius(i int) (float64, bool) {
	if i < 0 {
		return 0, false
	}
	s, ok := t.Shell(i)
	return s.R, ok
}

// EnergyAt returns the cumulative energy of shell i, treating i < 0
// (uncaptured, outside every shell) as zero potential energy.
func (t *Table) EnergyAt(i int) float64 {
	if i < 0 {
		return 0
	}
	s, ok := t.Shell(i)
	if !ok {
		return 0
	}
	return s.E
}

// IsHardCore reports whether shell i is the innermost, truncated shell.
// i < 0 (uncaptured) is never a hard core.
func (t *Table) IsHardCore(i int) bool {
	if i < 0 {
		return false
	}
	s, ok := t.Shell(i)
	return ok && s.HardCore
}

// Highest returns the highest shell index computed so far (the monotonic
// "highest-valid-shell" index of spec §9), and whether any shell exists.
func (t *Table) Highest() (int, bool) {
	if len(t.shells) == 0 {
		return 0, false
	}
	return len(t.shells) - 1, true
}

// Stepper builds a Table from a continuous potential, a radial stepping
// mode and an energy-assignment mode (spec §4.2).
type Stepper struct {
	Pot        ContinuousPotential
	RadialMode kind.RadialMode
	EnergyMode kind.EnergyMode
	AttSteps   int     // N_att attractive steps
	DeltaU     float64 // target energy spacing for DeltaU mode
	KT         float64 // temperature for Virial mode
	HardCoreR  float64 // inner truncation radius; 0 means step to r=0
}

// Build constructs a lazily-extending Table for this stepper's
// configuration.
func (s Stepper) Build() *Table {
	switch s.RadialMode {
	case kind.DeltaU:
		return s.buildDeltaU()
	default:
		return s.buildDeltaR()
	}
}

func (s Stepper) buildDeltaR() *Table {
	rMin, cutoff := s.Pot.Minimum()
	steps := s.AttSteps
	if steps < 1 {
		steps = 1
	}
	spacing := (cutoff - rMin) / float64(steps)

	return newTable(func(k int, prev *Shell) (Shell, bool) {
		rOuter := cutoff
		if prev != nil {
			rOuter = prev.R
		}

		if k < steps {
			// Attractive shell k: boundary r_k = cutoff - (k+1)*spacing,
			// the last of which lands exactly on rMin.
			r := cutoff - float64(k+1)*spacing
			e := s.assignEnergy(rOuter, r)
			prevE := 0.0
			if prev != nil {
				prevE = prev.E
			}
			return Shell{R: r, E: e, DeltaE: e - prevE}, true
		}

		// Stepping has exhausted the N_att attractive shells (rOuter is
		// now at rMin). If a hard core is configured and strictly inside
		// rMin, append one terminal shell there; otherwise stepping
		// continues to r=0 (spec §4.2, "otherwise stepping reaches r=0").
		if k > steps || rOuter <= s.HardCoreR {
			return Shell{}, false
		}
		e := s.assignEnergy(rOuter, s.HardCoreR)
		prevE := 0.0
		if prev != nil {
			prevE = prev.E
		}
		return Shell{R: s.HardCoreR, E: e, DeltaE: e - prevE, HardCore: true}, true
	})
}

// NewFixedTable wraps an already-computed, strictly-decreasing shell
// sequence (e.g. a square well's natural one- or two-shell discretisation)
// with no further lazy extension: the sequence is complete as given.
func NewFixedTable(shells []Shell) *Table {
	return newTable(func(k int, prev *Shell) (Shell, bool) {
		if k >= len(shells) {
			return Shell{}, false
		}
		return shells[k], true
	})
}

// buildDeltaU finds shell radii by bisection on U(r) - targetU, spaced
// uniformly in energy and symmetric around the minimum (spec §4.2):
// shell radii above the minimum halve outward until U(maxR) > target,
// then bisection narrows to tolerance ≤ ΔU*1e-15 or 1000 iterations.
func (s Stepper) buildDeltaU() *Table {
	rMin, cutoff := s.Pot.Minimum()
	uMin := s.Pot.U(rMin)

	return newTable(func(k int, prev *Shell) (Shell, bool) {
		targetU := uMin + float64(k+1)*s.DeltaU
		rOuter := cutoff
		if prev != nil {
			rOuter = prev.R
		}
		if targetU >= 0 || (prev != nil && rOuter <= s.HardCoreR) {
			return Shell{}, false
		}

		r := findRadiusForEnergy(s.Pot, rMin, rOuter, targetU)
		hardCore := r <= s.HardCoreR
		if hardCore {
			r = s.HardCoreR
		}

		e := s.assignEnergy(rOuter, r)
		prevE := 0.0
		if prev != nil {
			prevE = prev.E
		}
		return Shell{R: r, E: e, DeltaE: e - prevE, HardCore: hardCore}, true
	})
}

// findRadiusForEnergy bisects for the radius in (rMin, rOuter) where
// U(r) == targetU, per spec §4.2's DeltaU procedure: radii above the
// minimum are halved outward from rMin until U(maxR) > target, then
// bisection narrows the bracket.
func findRadiusForEnergy(pot ContinuousPotential, rMin, rOuter, targetU float64) float64 {
	lo, hi := rMin, rOuter
	step := rOuter - rMin
	if step <= 0 {
		step = rOuter * 0.5
	}
	hi = rMin + step
	for pot.U(hi) <= targetU && hi < rOuter {
		step *= 2
		hi = math.Min(rMin+step, rOuter)
		if hi >= rOuter {
			hi = rOuter
			break
		}
	}

	const maxIter = 1000
	for i := 0; i < maxIter; i++ {
		mid := 0.5 * (lo + hi)
		if pot.U(mid) > targetU {
			hi = mid
		} else {
			lo = mid
		}
		if hi-lo <= math.Abs(targetU)*1e-15 {
			break
		}
	}
	return 0.5 * (lo + hi)
}

// assignEnergy computes E_i for the shell [rInner, rOuter) under the
// stepper's configured energy-assignment mode (spec §4.2).
func (s Stepper) assignEnergy(rOuter, rInner float64) float64 {
	switch s.EnergyMode {
	case kind.Left:
		return s.Pot.U(rInner)
	case kind.Right:
		return s.Pot.U(rOuter)
	case kind.Volume:
		return volumeAverage(s.Pot, rInner, rOuter)
	case kind.Virial:
		return virialMatchedEnergy(s.Pot, rInner, rOuter, s.KT)
	default: // Midpoint
		return s.Pot.U(0.5 * (rInner + rOuter))
	}
}

// analyticVolumeAverager is implemented by potentials with a closed-form
// antiderivative of U(r)·r² (spec §4.2 names Lennard-Jones explicitly).
// volumeAverage prefers this over quadrature whenever the potential
// offers it.
type analyticVolumeAverager interface {
	VolumeAverage(rInner, rOuter float64) float64
}

// volumeAverage computes the volume-weighted average of U over the
// spherical shell [rInner, rOuter]: ∫U(r) r² dr / ∫r² dr. Potentials that
// implement analyticVolumeAverager (Lennard-Jones) get their closed form;
// anything else falls back to trapezoidal quadrature, since §4.2 only
// requires a closed form for the potentials that have one — a generic
// ContinuousPotential has no symbolic antiderivative to exploit.
func volumeAverage(pot ContinuousPotential, rInner, rOuter float64) float64 {
	if a, ok := pot.(analyticVolumeAverager); ok {
		return a.VolumeAverage(rInner, rOuter)
	}
	const n = 100000
	h := (rOuter - rInner) / n
	num := make([]float64, n+1)
	den := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		r := rInner + float64(i)*h
		w := r * r
		weight := h
		if i == 0 || i == n {
			weight *= 0.5
		}
		num[i] = pot.U(r) * w * weight
		den[i] = w * weight
	}
	denSum := floats.Sum(den)
	if denSum == 0 {
		return pot.U(0.5 * (rInner + rOuter))
	}
	return floats.Sum(num) / denSum
}

// virialMatchedEnergy chooses E so the discretised second virial
// coefficient over [rInner, rOuter] matches the continuous one at
// temperature kT, via trapezoidal integration with 100000 sub-intervals
// (spec §4.2). The continuous contribution to B2 over the shell is
// ∫(1 - exp(-U(r)/kT)) r² dr; the stepped contribution for a constant
// E on the shell is (1 - exp(-E/kT)) * ∫r² dr. Solving for E:
func virialMatchedEnergy(pot ContinuousPotential, rInner, rOuter, kT float64) float64 {
	const n = 100000
	h := (rOuter - rInner) / n
	continuousTerms := make([]float64, n+1)
	volumeTerms := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		r := rInner + float64(i)*h
		w := r * r
		weight := h
		if i == 0 || i == n {
			weight *= 0.5
		}
		continuousTerms[i] = (1 - math.Exp(-pot.U(r)/kT)) * w * weight
		volumeTerms[i] = w * weight
	}
	continuous := floats.Sum(continuousTerms)
	volume := floats.Sum(volumeTerms)
	if volume == 0 || kT == 0 {
		return pot.U(0.5 * (rInner + rOuter))
	}
	avgMayer := continuous / volume
	if avgMayer >= 1 {
		avgMayer = 1 - 1e-12
	}
	return -kT * math.Log(1-avgMayer)
}
