package interaction

import (
	"math"
	"testing"

	"github.com/pthm-cable/edmd/particle"
	"github.com/pthm-cable/edmd/vector"
)

func TestCompressing_PredictHeadOnGrowth(t *testing.T) {
	a := &particle.Particle{Diameter0: 1, Diameter: 1, GrowthRate: 0.1, Mass: 1, Pos: vector.Vec3{X: -2}, Vel: vector.Vec3{X: 1}}
	b := &particle.Particle{Diameter0: 1, Diameter: 1, GrowthRate: 0.1, Mass: 1, Pos: vector.Vec3{X: 2}, Vel: vector.Vec3{X: -1}}

	pred, ok := Compressing{}.Predict(a, b, 0, vector.None{}, NoShell)
	if !ok {
		t.Fatal("expected a contact prediction for an approaching pair")
	}
	if pred.T <= 0 {
		t.Fatalf("expected a positive contact time, got %v", pred.T)
	}
	if pred.ShellFrom != NoShell || pred.ShellTo != NoShell {
		t.Fatalf("expected no shell bookkeeping for compressing contact, got %+v", pred)
	}

	// Contact separation must equal the grown diameter at pred.T.
	ra, rb := a.PositionAt(pred.T), b.PositionAt(pred.T)
	sep := vector.Norm(vector.Sub(ra, rb))
	sigma0, growth := Compressing{}.contactParams(a, b, 0)
	wantSigma := sigma0 + growth*pred.T
	if math.Abs(sep-wantSigma) > 1e-6 {
		t.Fatalf("expected separation %v at contact, got %v", wantSigma, sep)
	}
}

func TestCompressing_PredictAlreadyCaptured(t *testing.T) {
	a := &particle.Particle{Diameter0: 1, Mass: 1}
	b := &particle.Particle{Diameter0: 1, Mass: 1}
	if _, ok := (Compressing{}).Predict(a, b, 0, vector.None{}, 0); ok {
		t.Fatal("expected compressing pairs to ignore any non-NoShell capture state")
	}
}

func TestCompressing_PredictSeparating(t *testing.T) {
	a := &particle.Particle{Diameter0: 1, Mass: 1, Pos: vector.Vec3{X: -2}, Vel: vector.Vec3{X: -1}}
	b := &particle.Particle{Diameter0: 1, Mass: 1, Pos: vector.Vec3{X: 2}, Vel: vector.Vec3{X: 1}}
	if _, ok := (Compressing{}).Predict(a, b, 0, vector.None{}, NoShell); ok {
		t.Fatal("expected no contact event for a separating, non-growing pair")
	}
}

func TestCompressing_ResolveConservesEnergyAndReversesApproach(t *testing.T) {
	a := &particle.Particle{Mass: 1, Pos: vector.Vec3{X: -0.5}, Vel: vector.Vec3{X: 1}}
	b := &particle.Particle{Mass: 1, Pos: vector.Vec3{X: 0.5}, Vel: vector.Vec3{X: -1}}

	keBefore := 0.5*a.Mass*vector.Dot(a.Vel, a.Vel) + 0.5*b.Mass*vector.Dot(b.Vel, b.Vel)
	tokenA, tokenB := a.Token, b.Token

	shouldCapture := Compressing{}.Resolve(a, b, vector.None{}, NoShell, NoShell)
	if shouldCapture {
		t.Fatal("expected hard contact to never request a capture transition")
	}

	keAfter := 0.5*a.Mass*vector.Dot(a.Vel, a.Vel) + 0.5*b.Mass*vector.Dot(b.Vel, b.Vel)
	if math.Abs(keAfter-keBefore) > 1e-9 {
		t.Fatalf("expected kinetic energy to be conserved, before=%v after=%v", keBefore, keAfter)
	}
	if a.Vel.X <= 0 || b.Vel.X >= 0 {
		t.Fatalf("expected the approach to reverse, got a.Vel=%v b.Vel=%v", a.Vel, b.Vel)
	}
	if a.Token != tokenA+1 || b.Token != tokenB+1 {
		t.Fatal("expected Resolve to bump both particles' freshness tokens")
	}
}
