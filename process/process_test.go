package process

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/edmd/particle"
	"github.com/pthm-cable/edmd/vector"
)

func TestThermostat_FireBumpsToken(t *testing.T) {
	th := NewThermostat(1.0, 1.0, 42)
	p := &particle.Particle{ID: 0, Mass: 1}
	before := p.Token
	th.Fire(p, 1.0)
	if p.Token != before+1 {
		t.Fatalf("expected token bump, got %d -> %d", before, p.Token)
	}
}

func TestThermostat_NextFiringIsPositiveAndFinite(t *testing.T) {
	th := NewThermostat(0.1, 1.0, 7)
	rng := rand.New(rand.NewPCG(1, 2))
	next := th.NextFiring(0, 100, rng)
	if next <= 0 || math.IsInf(next, 1) {
		t.Fatalf("expected a finite positive interarrival time, got %v", next)
	}
}

func TestThermostat_ZeroRateNeverFires(t *testing.T) {
	th := NewThermostat(0, 1.0, 1)
	rng := rand.New(rand.NewPCG(1, 2))
	next := th.NextFiring(0, 100, rng)
	if !math.IsInf(next, 1) {
		t.Fatalf("expected no firing at rate 0, got %v", next)
	}
}

func TestCompression_RescalePreservesRatio(t *testing.T) {
	particles := []particle.Particle{
		{ID: 0, Diameter0: 1.0, Diameter: 1.0, Pos: vector.Vec3{X: 2}},
	}
	ratioBefore := particles[0].Pos.X / particles[0].Diameter
	c := Compression{Rate: 0.01}
	c.Rescale(particles, 1.1)
	ratioAfter := particles[0].Pos.X / particles[0].Diameter
	if math.Abs(ratioBefore-ratioAfter) > 1e-12 {
		t.Fatalf("expected r/sigma invariant preserved, got %v -> %v", ratioBefore, ratioAfter)
	}
}
