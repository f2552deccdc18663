package interaction

import (
	"math"

	"github.com/pthm-cable/edmd/particle"
	"github.com/pthm-cable/edmd/potential"
	"github.com/pthm-cable/edmd/vector"
)

// Stepped implements the pair-interaction protocol over a stepped
// potential shell table (spec §4.3, §4.2). A nil Table degenerates to a
// pure hard sphere: the pair's own diameters define the single contact
// shell and there is no capture state (HardSphere and SquareWell are thin
// constructors over this one implementation — the bonded variant is the
// same implementation with Bonded set).
type Stepped struct {
	Table  *potential.Table
	Bonded bool
}

// NewHardSphere returns a Stepped interaction with no attractive shells:
// particles collide elastically at contact and are never captured.
func NewHardSphere() Stepped { return Stepped{} }

// NewSquareWell returns a Stepped interaction backed by a one-attractive-
// shell table (the common case of spec §4.3's worked scenarios B/C).
func NewSquareWell(table *potential.Table) Stepped { return Stepped{Table: table} }

// NewBondedSquareWell is the same as NewSquareWell but the pair can never
// escape back out past the outermost shell once captured (a permanent
// bond, spec §10 supplemented feature).
func NewBondedSquareWell(table *potential.Table) Stepped {
	return Stepped{Table: table, Bonded: true}
}

// NewStepped returns a Stepped interaction over an arbitrary multi-shell
// table.
func NewStepped(table *potential.Table) Stepped { return Stepped{Table: table} }

// Energy implements EnergySource: a nil Table (hard sphere) carries no
// potential energy at any shell.
func (s Stepped) Energy(shell int) float64 {
	if s.Table == nil {
		return 0
	}
	return s.Table.EnergyAt(shell)
}

func (s Stepped) contactDiameter(a, b *particle.Particle, now float64) float64 {
	return 0.5 * (a.DiameterAt(now) + b.DiameterAt(now))
}

func (s Stepped) Predict(a, b *particle.Particle, now float64, bc vector.Boundary, capturedShell int) (Prediction, bool) {
	ra, rb := a.PositionAt(now), b.PositionAt(now)
	dr, dv := bc.Delta(ra, rb)
	v := vector.Add(vector.Sub(a.Vel, b.Vel), dv)
	bcoef := vector.Dot(dr, v)
	acoef := vector.Dot(v, v)
	c0 := vector.Dot(dr, dr)

	var inwardT float64
	var inwardOK bool
	var inwardTarget int

	if s.Table == nil {
		if capturedShell == NoShell {
			r := s.contactDiameter(a, b, now)
			t, ok := solveApproach(acoef, bcoef, c0-r*r)
			inwardT, inwardOK, inwardTarget = t, ok, NoShell
		}
	} else {
		nextShell := capturedShell + 1
		if r, ok := s.Table.Radius(nextShell); ok {
			t, ok2 := solveApproach(acoef, bcoef, c0-r*r)
			inwardT, inwardOK, inwardTarget = t, ok2, nextShell
		}
	}

	var outwardT float64
	var outwardOK bool
	var outwardTarget int
	if capturedShell != NoShell && s.Table != nil {
		isOutermost := capturedShell == 0
		if !(s.Bonded && isOutermost) {
			if r, ok := s.Table.Radius(capturedShell); ok {
				t, ok2 := solveEscape(acoef, bcoef, c0-r*r)
				outwardT, outwardOK = t, ok2
				outwardTarget = capturedShell - 1
			}
		}
	}

	t, useInward, useOutward := earlier(inwardT, inwardOK, outwardT, outwardOK)
	switch {
	case useInward:
		return Prediction{T: now + t, ShellFrom: capturedShell, ShellTo: inwardTarget}, true
	case useOutward:
		return Prediction{T: now + t, ShellFrom: capturedShell, ShellTo: outwardTarget}, true
	default:
		return Prediction{}, false
	}
}

func (s Stepped) Resolve(a, b *particle.Particle, bc vector.Boundary, shellFrom, shellTo int) bool {
	dr, dv := bc.Delta(a.Pos, b.Pos)
	n := vector.Unit(dr)
	relV := vector.Add(vector.Sub(a.Vel, b.Vel), dv)
	vn := vector.Dot(relV, n)
	mu := a.Mass * b.Mass / (a.Mass + b.Mass)

	hardCore := s.Table == nil || (s.Table.IsHardCore(shellTo) && shellTo > shellFrom)
	var deltaE float64
	if !hardCore {
		deltaE = s.Table.EnergyAt(shellTo) - s.Table.EnergyAt(shellFrom)
	}

	var vnPrime float64
	reflected := false
	switch {
	case hardCore || deltaE == 0:
		vnPrime = -vn
	case 0.5*mu*vn*vn < deltaE:
		// Insufficient kinetic energy to climb the step, whether inward
		// or escaping outward: reflection, shell index unchanged (spec §4.3).
		vnPrime = -vn
		reflected = true
	default:
		vn2 := vn*vn - 2*deltaE/mu
		mag := math.Sqrt(vn2)
		if vn < 0 {
			vnPrime = -mag
		} else {
			vnPrime = mag
		}
	}

	dp := vector.Scale(n, mu*(vnPrime-vn))
	a.Vel = vector.Add(a.Vel, vector.Scale(dp, 1/a.Mass))
	b.Vel = vector.Sub(b.Vel, vector.Scale(dp, 1/b.Mass))
	a.Bump()
	b.Bump()
	return reflected
}
