// Package vector provides the 3D vector kernel and the boundary-condition
// contract used to compute minimum-image displacement and velocity
// correction. It deliberately stays allocation-free: Vec3 is a value type,
// never boxed, so the hot prediction path in package interaction never
// indirects through an interface for basic arithmetic.
package vector

import "math"

// Vec3 is a 3D vector. It is a plain value type with no heap indirection.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns a+b.
func Add(a, b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

// Sub returns a-b.
func Sub(a, b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

// Scale returns a*s.
func Scale(a Vec3, s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

// Dot returns a·b.
func Dot(a, b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// NormSq returns |a|^2.
func NormSq(a Vec3) float64 { return Dot(a, a) }

// Norm returns |a|.
func Norm(a Vec3) float64 { return math.Sqrt(NormSq(a)) }

// Unit returns a/|a|. Caller must ensure |a| > 0.
func Unit(a Vec3) Vec3 {
	n := Norm(a)
	return Scale(a, 1/n)
}

// IsFinite reports whether every component is finite (no NaN/Inf), used by
// the engine to detect NumericalError per spec §7.
func IsFinite(a Vec3) bool {
	return !math.IsNaN(a.X) && !math.IsInf(a.X, 0) &&
		!math.IsNaN(a.Y) && !math.IsInf(a.Y, 0) &&
		!math.IsNaN(a.Z) && !math.IsInf(a.Z, 0)
}

// Boundary computes the minimum-image displacement between two positions
// and, for shearing boundaries, the velocity correction that displacement
// implies. Only Lees-Edwards returns a non-zero dv; see §4.1.
type Boundary interface {
	// Delta returns the minimum-image displacement a-b and the velocity
	// offset that must be added to (va-vb) for event prediction across
	// that image.
	Delta(a, b Vec3) (dr Vec3, dv Vec3)
	// Wrap folds r into the primary simulation cell.
	Wrap(r Vec3) Vec3
}

// None applies no boundary correction at all (isolated/finite system).
type None struct{}

func (None) Delta(a, b Vec3) (Vec3, Vec3) { return Sub(a, b), Vec3{} }
func (None) Wrap(r Vec3) Vec3             { return r }

// PeriodicBC wraps all three axes independently with box lengths L.
type PeriodicBC struct {
	L Vec3
}

func (p PeriodicBC) Delta(a, b Vec3) (Vec3, Vec3) {
	d := Sub(a, b)
	d.X = minImage(d.X, p.L.X)
	d.Y = minImage(d.Y, p.L.Y)
	d.Z = minImage(d.Z, p.L.Z)
	return d, Vec3{}
}

func (p PeriodicBC) Wrap(r Vec3) Vec3 {
	return Vec3{wrapCoord(r.X, p.L.X), wrapCoord(r.Y, p.L.Y), wrapCoord(r.Z, p.L.Z)}
}

// LeesEdwardsBC shears the y-boundary: a displacement wrapped across a y
// face is additionally offset by ±shearRate*L.Y on x, and that offset
// propagates into the relative velocity used for event prediction (§4.1
// — "the only boundary whose wrap affects velocities").
type LeesEdwardsBC struct {
	L         Vec3
	ShearRate float64
}

func (s LeesEdwardsBC) Delta(a, b Vec3) (Vec3, Vec3) {
	d := Sub(a, b)
	d.Z = minImage(d.Z, s.L.Z)

	var dv Vec3
	if s.L.Y != 0 {
		wraps := math.Round(d.Y / s.L.Y)
		if wraps != 0 {
			shearOffset := wraps * s.ShearRate * s.L.Y
			d.X -= shearOffset
			dv.X = -shearOffset
		}
		d.Y -= wraps * s.L.Y
	}
	d.X = minImage(d.X, s.L.X)
	return d, dv
}

func (s LeesEdwardsBC) Wrap(r Vec3) Vec3 {
	if s.L.Y != 0 {
		wraps := math.Floor(r.Y / s.L.Y)
		if wraps != 0 {
			r.X -= wraps * s.ShearRate * s.L.Y
			r.Y -= wraps * s.L.Y
		}
	}
	r.X = wrapCoord(r.X, s.L.X)
	r.Z = wrapCoord(r.Z, s.L.Z)
	return r
}

func minImage(d, l float64) float64 {
	if l == 0 {
		return d
	}
	return d - l*math.Round(d/l)
}

func wrapCoord(x, l float64) float64 {
	if l == 0 {
		return x
	}
	x = math.Mod(x, l)
	if x < 0 {
		x += l
	}
	return x
}
