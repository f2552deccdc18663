package interaction

import (
	"math"

	"github.com/pthm-cable/edmd/particle"
	"github.com/pthm-cable/edmd/vector"
)

// Compressing implements the pair-interaction protocol for particles whose
// diameters grow at rate γ_c (spec §4.3): the contact condition becomes
// time-dependent, |Δr + v·t|² = (σ₀ + γ_c·(t₀+t))², solved by Newton
// iteration for the lowest positive root starting from the non-growing
// quadratic's root as an initial guess. Compressing particles carry no
// capture state — only hard contact is modelled, matching the teacher
// diameter never exceeding the attractive-shell machinery.
type Compressing struct{}

func (Compressing) contactParams(a, b *particle.Particle, now float64) (sigma0, growth float64) {
	sigma0 = 0.5 * (a.Diameter0 + b.Diameter0)
	growth = 0.5 * (a.GrowthRate + b.GrowthRate)
	return sigma0, growth
}

func (c Compressing) Predict(a, b *particle.Particle, now float64, bc vector.Boundary, capturedShell int) (Prediction, bool) {
	if capturedShell != NoShell {
		return Prediction{}, false
	}
	ra, rb := a.PositionAt(now), b.PositionAt(now)
	dr, dv := bc.Delta(ra, rb)
	v := vector.Add(vector.Sub(a.Vel, b.Vel), dv)

	acoef := vector.Dot(v, v)
	bcoef := vector.Dot(dr, v)
	c0 := vector.Dot(dr, dr)

	sigma0, growth := c.contactParams(a, b, now)
	s0 := sigma0 + growth*now // current contact diameter

	guess, ok := solveApproach(acoef, bcoef, c0-s0*s0)
	if !ok {
		return Prediction{}, false
	}

	f := func(dt float64) float64 {
		sigma := s0 + growth*dt
		return acoef*dt*dt + 2*bcoef*dt + c0 - sigma*sigma
	}
	fprime := func(dt float64) float64 {
		sigma := s0 + growth*dt
		return 2*acoef*dt + 2*bcoef - 2*growth*sigma
	}

	t := guess
	for i := 0; i < 50; i++ {
		fp := fprime(t)
		if fp == 0 {
			break
		}
		next := t - f(t)/fp
		if math.Abs(next-t) < 1e-14 {
			t = next
			break
		}
		t = next
	}
	if t <= epsilonTime || math.IsNaN(t) {
		return Prediction{}, false
	}
	return Prediction{T: now + t, ShellFrom: NoShell, ShellTo: NoShell}, true
}

func (c Compressing) Resolve(a, b *particle.Particle, bc vector.Boundary, shellFrom, shellTo int) bool {
	dr, dv := bc.Delta(a.Pos, b.Pos)
	n := vector.Unit(dr)
	relV := vector.Add(vector.Sub(a.Vel, b.Vel), dv)
	vn := vector.Dot(relV, n)
	mu := a.Mass * b.Mass / (a.Mass + b.Mass)

	vnPrime := -vn
	dp := vector.Scale(n, mu*(vnPrime-vn))
	a.Vel = vector.Add(a.Vel, vector.Scale(dp, 1/a.Mass))
	b.Vel = vector.Sub(b.Vel, vector.Scale(dp, 1/b.Mass))
	a.Bump()
	b.Bump()
	return false
}
