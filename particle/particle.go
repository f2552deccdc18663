// Package particle defines the Particle and Event records that make up the
// simulation's data model (spec §3), and the capture map used by the
// interaction registry to track which pairs currently sit inside an
// attractive shell.
package particle

import (
	"github.com/pthm-cable/edmd/kind"
	"github.com/pthm-cable/edmd/vector"
)

// Particle is one element of the fixed-size particle array. Position and
// velocity are only valid as of UpdatedAt; callers must stream the
// particle forward to the time they need (see Particle.PositionAt).
type Particle struct {
	ID         int
	Pos        vector.Vec3
	Vel        vector.Vec3
	UpdatedAt  float64
	Mass       float64
	Species    kind.PairType
	Diameter   float64 // current hard-core/reference diameter (σ)
	Diameter0  float64 // diameter at t=0, for compression rescaling
	GrowthRate float64 // γ_c, zero unless Dynamics==CompressionDynamics
	Token      uint64  // freshness counter, bumped on every kinematic update
	Cell       int     // current home cell index in the neighbour grid
}

// PositionAt returns the ballistic position of the particle at time t,
// per the invariant r(t) = r_i + v*(t - t_i) (spec §3).
func (p *Particle) PositionAt(t float64) vector.Vec3 {
	return vector.Add(p.Pos, vector.Scale(p.Vel, t-p.UpdatedAt))
}

// DiameterAt returns the particle's diameter at time t under compression.
func (p *Particle) DiameterAt(t float64) float64 {
	if p.GrowthRate == 0 {
		return p.Diameter
	}
	return p.Diameter0 + p.GrowthRate*t
}

// Stream advances the particle's reference frame to time t without
// changing its velocity, bumping nothing — streaming is not a kinematic
// update, only a resynchronisation of (Pos, UpdatedAt).
func (p *Particle) Stream(t float64) {
	p.Pos = p.PositionAt(t)
	p.UpdatedAt = t
}

// Bump increments the freshness token, invalidating every previously
// scheduled event that named this particle.
func (p *Particle) Bump() {
	p.Token++
}

// PairKey identifies an unordered particle pair for the capture map.
type PairKey struct {
	A, B int
}

// NewPairKey builds a PairKey with the lower id first, so (a,b) and (b,a)
// map to the same key.
func NewPairKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// CaptureMap tracks, per captured pair, the shell index the pair currently
// occupies (spec §3's Capture map).
type CaptureMap struct {
	shells map[PairKey]int
}

// NewCaptureMap returns an empty capture map.
func NewCaptureMap() *CaptureMap {
	return &CaptureMap{shells: make(map[PairKey]int)}
}

// Shell returns the captured shell index for a pair, and whether the pair
// is currently captured at all.
func (c *CaptureMap) Shell(a, b int) (int, bool) {
	s, ok := c.shells[NewPairKey(a, b)]
	return s, ok
}

// Set records that a pair now occupies shell s.
func (c *CaptureMap) Set(a, b int, s int) {
	c.shells[NewPairKey(a, b)] = s
}

// Release removes a pair from the capture map (outermost shell exited).
func (c *CaptureMap) Release(a, b int) {
	delete(c.shells, NewPairKey(a, b))
}

// ForPair reports whether the given pair appears anywhere in the map.
func (c *CaptureMap) ForPair(a, b int) bool {
	_, ok := c.shells[NewPairKey(a, b)]
	return ok
}

// Len returns the number of currently captured pairs.
func (c *CaptureMap) Len() int {
	return len(c.shells)
}

// All returns every captured pair and its shell, for snapshotting
// (spec §8 property 6's exact-resumption requirement).
func (c *CaptureMap) All() map[PairKey]int {
	out := make(map[PairKey]int, len(c.shells))
	for k, v := range c.shells {
		out[k] = v
	}
	return out
}
