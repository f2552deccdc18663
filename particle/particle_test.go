package particle

import (
	"testing"

	"github.com/pthm-cable/edmd/vector"
)

func TestPositionAt(t *testing.T) {
	p := Particle{Pos: vector.Vec3{X: 1}, Vel: vector.Vec3{X: 2}, UpdatedAt: 0}
	got := p.PositionAt(3)
	if got.X != 7 {
		t.Fatalf("expected x=7 at t=3, got %v", got.X)
	}
}

func TestDiameterAt(t *testing.T) {
	p := Particle{Diameter: 1, Diameter0: 1, GrowthRate: 0}
	if d := p.DiameterAt(10); d != 1 {
		t.Fatalf("expected a static diameter with zero growth rate, got %v", d)
	}

	growing := Particle{Diameter0: 1, GrowthRate: 0.1}
	if d := growing.DiameterAt(5); d != 1.5 {
		t.Fatalf("expected diameter0 + growthRate*t, got %v", d)
	}
}

func TestStreamDoesNotBump(t *testing.T) {
	p := Particle{Pos: vector.Vec3{X: 0}, Vel: vector.Vec3{X: 1}}
	before := p.Token
	p.Stream(4)
	if p.Pos.X != 4 {
		t.Fatalf("expected streaming to advance position, got %v", p.Pos.X)
	}
	if p.UpdatedAt != 4 {
		t.Fatalf("expected UpdatedAt to track the stream time, got %v", p.UpdatedAt)
	}
	if p.Token != before {
		t.Fatal("expected Stream to leave the freshness token untouched")
	}
}

func TestBumpIncrementsToken(t *testing.T) {
	p := Particle{}
	p.Bump()
	p.Bump()
	if p.Token != 2 {
		t.Fatalf("expected token 2 after two bumps, got %d", p.Token)
	}
}

func TestNewPairKeyIsOrderIndependent(t *testing.T) {
	if NewPairKey(3, 1) != NewPairKey(1, 3) {
		t.Fatal("expected (a,b) and (b,a) to produce the same key")
	}
}

func TestCaptureMap_SetShellReleaseLen(t *testing.T) {
	c := NewCaptureMap()
	if c.Len() != 0 {
		t.Fatalf("expected an empty capture map, got len %d", c.Len())
	}
	c.Set(0, 1, 2)
	if shell, ok := c.Shell(1, 0); !ok || shell != 2 {
		t.Fatalf("expected shell 2 for the reversed pair lookup, got %d (ok=%v)", shell, ok)
	}
	if !c.ForPair(0, 1) {
		t.Fatal("expected ForPair to report the captured pair")
	}
	if c.Len() != 1 {
		t.Fatalf("expected len 1 after one Set, got %d", c.Len())
	}
	c.Release(0, 1)
	if _, ok := c.Shell(0, 1); ok {
		t.Fatal("expected the pair to be gone after Release")
	}
	if c.Len() != 0 {
		t.Fatalf("expected len 0 after Release, got %d", c.Len())
	}
}

func TestCaptureMap_All(t *testing.T) {
	c := NewCaptureMap()
	c.Set(0, 1, 1)
	c.Set(2, 3, 0)

	all := c.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if all[NewPairKey(0, 1)] != 1 {
		t.Fatalf("expected pair (0,1) at shell 1, got %d", all[NewPairKey(0, 1)])
	}

	// Mutating the returned map must not affect the live state.
	all[NewPairKey(0, 1)] = 99
	if shell, _ := c.Shell(0, 1); shell != 1 {
		t.Fatal("expected All() to return a defensive copy")
	}
}
