package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/edmd/particle"
)

// SnapshotVersion is incremented when the snapshot format changes.
const SnapshotVersion = 1

// Snapshot records the simulation state at one instant: every particle's
// kinematic state, the captured pairs, the simulation time, the elapsed
// event count and the seed the run started from (spec §8 property 6). It
// stores that seed, not the RNG's current position in its stream.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    uint64 `json:"seed"`

	T             float64         `json:"t"`
	EventsElapsed int64           `json:"events_elapsed"`
	Particles     []ParticleState `json:"particles"`

	Captures []CapturedPair `json:"captures"`
}

// ParticleState is one particle's complete kinematic record.
type ParticleState struct {
	ID         int     `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	VX         float64 `json:"vx"`
	VY         float64 `json:"vy"`
	VZ         float64 `json:"vz"`
	Species    uint8   `json:"species"`
	Diameter   float64 `json:"diameter"`
	Diameter0  float64 `json:"diameter0"`
	GrowthRate float64 `json:"growth_rate"`
	Mass       float64 `json:"mass"`
}

// CapturedPair is one entry of the capture map (spec §3).
type CapturedPair struct {
	A     int `json:"a"`
	B     int `json:"b"`
	Shell int `json:"shell"`
}

// ToParticleState converts a live particle into its snapshot form at its
// own UpdatedAt time (the caller should Stream every particle to a common
// time first so the snapshot is internally consistent).
func ToParticleState(p *particle.Particle) ParticleState {
	return ParticleState{
		ID: p.ID,
		X:  p.Pos.X, Y: p.Pos.Y, Z: p.Pos.Z,
		VX: p.Vel.X, VY: p.Vel.Y, VZ: p.Vel.Z,
		Species:    uint8(p.Species),
		Diameter:   p.Diameter,
		Diameter0:  p.Diameter0,
		GrowthRate: p.GrowthRate,
		Mass:       p.Mass,
	}
}

// Save writes the snapshot as indented JSON to <dir>/snapshot_<eventsElapsed>.json.
func Save(snapshot Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.EventsElapsed))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// Load reads a snapshot written by Save.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}
