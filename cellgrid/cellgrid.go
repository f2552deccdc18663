// Package cellgrid provides the neighbour structure used to bound pair
// prediction to nearby particles (spec §4.4). Cell geometry and membership
// bookkeeping (Insert/Clear, flat cell-index arithmetic, toroidal wrap) is
// grounded on the teacher's systems.SpatialGrid, but the access pattern is
// not: EDMD never rescans every particle's neighbourhood once per tick
// (REDESIGN FLAGS). Instead each particle carries a predicted
// cell-crossing event (NextCrossing) alongside its pair events, and only
// crosses cell boundaries when that event fires.
package cellgrid

import (
	"math"

	"github.com/pthm-cable/edmd/particle"
	"github.com/pthm-cable/edmd/vector"
)

// Grid divides a periodic box of size L into cubic cells of side >= cellSize
// (the largest interaction cutoff in the system, spec §4.4).
type Grid struct {
	L          vector.Vec3
	cellSize   float64
	nx, ny, nz int
	cells      [][]int // flat index -> particle ids resident in that cell
}

// New builds an empty grid covering box L with cells no smaller than
// minCellSize. Each axis gets at least one cell.
func New(L vector.Vec3, minCellSize float64) *Grid {
	g := &Grid{L: L, cellSize: minCellSize}
	g.nx = cellsAlong(L.X, minCellSize)
	g.ny = cellsAlong(L.Y, minCellSize)
	g.nz = cellsAlong(L.Z, minCellSize)
	g.cells = make([][]int, g.nx*g.ny*g.nz)
	return g
}

func cellsAlong(length, minCellSize float64) int {
	if length <= 0 || minCellSize <= 0 {
		return 1
	}
	n := int(length / minCellSize)
	if n < 1 {
		n = 1
	}
	return n
}

// Clear empties every cell without releasing the backing arrays.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// coord returns the wrapped (cx, cy, cz) cell coordinate containing pos.
func (g *Grid) coord(pos vector.Vec3) (int, int, int) {
	cx := wrapIndex(int(math.Floor(pos.X/g.cellWidth(g.nx, g.L.X))), g.nx)
	cy := wrapIndex(int(math.Floor(pos.Y/g.cellWidth(g.ny, g.L.Y))), g.ny)
	cz := wrapIndex(int(math.Floor(pos.Z/g.cellWidth(g.nz, g.L.Z))), g.nz)
	return cx, cy, cz
}

func (g *Grid) cellWidth(n int, length float64) float64 {
	if n <= 0 || length <= 0 {
		return g.cellSize
	}
	return length / float64(n)
}

func wrapIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (g *Grid) flatIndex(cx, cy, cz int) int {
	return (cz*g.ny+cy)*g.nx + cx
}

// Insert places a particle into the cell containing pos and records the
// cell index on the particle (spec §3's Particle.Cell).
func (g *Grid) Insert(p *particle.Particle, pos vector.Vec3) {
	cx, cy, cz := g.coord(pos)
	idx := g.flatIndex(cx, cy, cz)
	g.cells[idx] = append(g.cells[idx], p.ID)
	p.Cell = idx
}

// Neighbours appends the ids resident in the 3x3x3 block of cells centred
// on pos (wrapping toroidally) to dst, excluding self, and returns it.
func (g *Grid) Neighbours(dst []int, pos vector.Vec3, self int) []int {
	cx, cy, cz := g.coord(pos)
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				idx := g.flatIndex(wrapIndex(cx+dx, g.nx), wrapIndex(cy+dy, g.ny), wrapIndex(cz+dz, g.nz))
				for _, id := range g.cells[idx] {
					if id == self {
						continue
					}
					dst = append(dst, id)
				}
			}
		}
	}
	return dst
}

// NextCrossing predicts the earliest time >= now at which p's ballistic
// trajectory crosses one of its current cell's six faces, per spec §4.4:
// the grid does not rescan, it waits for this event. ok is false if the
// particle's velocity cannot carry it across any face (at rest).
func (g *Grid) NextCrossing(p *particle.Particle, now float64) (t float64, ok bool) {
	cx, cy, cz := g.coord(p.Pos)
	wx, wy, wz := g.cellWidth(g.nx, g.L.X), g.cellWidth(g.ny, g.L.Y), g.cellWidth(g.nz, g.L.Z)

	dx := faceTime(p.Pos.X-float64(cx)*wx, p.Vel.X, wx)
	dy := faceTime(p.Pos.Y-float64(cy)*wy, p.Vel.Y, wy)
	dz := faceTime(p.Pos.Z-float64(cz)*wz, p.Vel.Z, wz)

	best := math.Inf(1)
	for _, d := range [3]float64{dx, dy, dz} {
		if d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return now + best, true
}

// faceTime returns the time for a coordinate at local (in [0, width)) moving
// at velocity v to reach one of the cell's two faces, or +Inf if v is zero.
func faceTime(local, v, width float64) float64 {
	if v > 0 {
		return (width - local) / v
	}
	if v < 0 {
		return -local / v
	}
	return math.Inf(1)
}

// Remove deletes id from cell idx (its last known home), used when a
// crossing event fires and the particle must be reinserted in its new
// cell.
func (g *Grid) Remove(idx, id int) {
	cell := g.cells[idx]
	for i, v := range cell {
		if v == id {
			cell[i] = cell[len(cell)-1]
			g.cells[idx] = cell[:len(cell)-1]
			return
		}
	}
}
