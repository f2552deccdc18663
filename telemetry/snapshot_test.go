package telemetry

import (
	"os"
	"testing"

	"github.com/pthm-cable/edmd/particle"
	"github.com/pthm-cable/edmd/vector"
)

// TestSnapshotRoundTrip exercises testable property 6: a snapshot saved
// and reloaded must reproduce identical particle state.
func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := &particle.Particle{ID: 3, Pos: vector.Vec3{X: 1, Y: 2, Z: 3}, Vel: vector.Vec3{X: 0.1, Y: -0.2, Z: 0}, Mass: 2, Diameter: 1.5}

	snap := Snapshot{
		Version:       SnapshotVersion,
		Seed:          42,
		T:             12.5,
		EventsElapsed: 1000,
		Particles:     []ParticleState{ToParticleState(p)},
		Captures:      []CapturedPair{{A: 0, B: 1, Shell: 0}},
	}

	path, err := Save(snap, dir)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected snapshot file to exist: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Seed != snap.Seed || loaded.T != snap.T || loaded.EventsElapsed != snap.EventsElapsed {
		t.Fatalf("header mismatch: got %+v, want %+v", loaded, snap)
	}
	if len(loaded.Particles) != 1 || loaded.Particles[0] != snap.Particles[0] {
		t.Fatalf("particle state mismatch: got %+v, want %+v", loaded.Particles, snap.Particles)
	}
	if len(loaded.Captures) != 1 || loaded.Captures[0] != snap.Captures[0] {
		t.Fatalf("capture mismatch: got %+v, want %+v", loaded.Captures, snap.Captures)
	}
}
