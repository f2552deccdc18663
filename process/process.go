// Package process implements the non-pair system events (spec §4.5):
// the Andersen thermostat, compression dynamics, and the run's halt
// sentinel. These ride the same Future Event List as pair interactions
// but never consult the interaction registry or capture map.
package process

import (
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/edmd/particle"
	"gonum.org/v1/gonum/stat/distuv"
)

// Thermostat is an Andersen thermostat: a Poisson process with rate ν·N
// that, on firing, resamples exactly one particle's velocity from a
// Maxwell-Boltzmann distribution at temperature T (spec §4.5). Only that
// particle's freshness token is bumped, so only its scheduled events are
// invalidated.
type Thermostat struct {
	Nu          float64 // collision rate per particle, ν
	Temperature float64
	normal      distuv.Normal
}

// NewThermostat builds a Thermostat. seed drives the velocity resampling:
// the distuv.Normal draws from its own math/rand/v2 PCG source seeded from
// it, separate from the engine's RNG.
func NewThermostat(nu, temperature float64, seed uint64) *Thermostat {
	return &Thermostat{
		Nu:          nu,
		Temperature: temperature,
		normal:      distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)},
	}
}

// NextFiring returns the absolute time of the next firing: now plus a
// Poisson interarrival time for a system of n particles at rate ν·n (spec
// §4.5), drawn by inverse-CDF sampling against rng.
func (th *Thermostat) NextFiring(now float64, n int, rng *rand.Rand) float64 {
	rate := th.Nu * float64(n)
	if rate <= 0 {
		return math.Inf(1)
	}
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return now - math.Log(u)/rate
}

// Fire resamples p's velocity component-wise from N(0, sqrt(kT/m)) and
// bumps its freshness token. kT is Boltzmann's constant times Temperature
// in the simulation's reduced units (the caller supplies the product so
// this package stays unit-agnostic).
func (th *Thermostat) Fire(p *particle.Particle, kT float64) {
	sigma := math.Sqrt(kT / p.Mass)
	p.Vel.X = sigma * th.normal.Rand()
	p.Vel.Y = sigma * th.normal.Rand()
	p.Vel.Z = sigma * th.normal.Rand()
	p.Bump()
}

// Compression carries a continuous growth parameter but, per spec §4.5,
// schedules no discrete event of its own: every pair prediction against a
// compressing particle already consults particle.DiameterAt to build the
// time-dependent contact condition (interaction.Compressing).
type Compression struct {
	Rate float64 // γ_c
}

// Rescale applies compression's r/σ-invariant-preserving rescale (spec
// §4.3's design note): after a discrete compression milestone, every
// particle's reference diameter and position are scaled by the same
// factor so the dimensionless packing fraction is unaffected by the
// rebase.
func (c Compression) Rescale(particles []particle.Particle, factor float64) {
	for i := range particles {
		particles[i].Diameter0 *= factor
		particles[i].Diameter *= factor
		particles[i].Pos.X *= factor
		particles[i].Pos.Y *= factor
		particles[i].Pos.Z *= factor
		particles[i].Bump()
	}
}

// Halt is the sentinel event fired at t_end that terminates the run loop
// (spec §4.5). It carries no state beyond its scheduled time.
type Halt struct {
	At float64
}
