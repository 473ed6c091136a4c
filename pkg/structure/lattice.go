package structure

import (
	"math"

	"github.com/crystalkit/chemenv/pkg/geom"
)

// Lattice describes a periodic cell by its three row basis vectors.
type Lattice struct {
	matrix geom.Mat3
	inv    geom.Mat3
}

// NewLattice builds a lattice from three basis vectors. It fails with
// ErrInvalidStructure when the vectors are linearly dependent.
func NewLattice(a, b, c geom.Vec3) (Lattice, error) {
	m := geom.Mat3{
		{a.X, a.Y, a.Z},
		{b.X, b.Y, b.Z},
		{c.X, c.Y, c.Z},
	}
	// Fractional→cartesian uses the transpose convention cart = Mᵀ·frac,
	// so the inverse of the transpose is cached for the reverse mapping.
	mt := transpose(m)
	inv, ok := mt.Inverse()
	if !ok {
		return Lattice{}, ErrInvalidStructure
	}
	return Lattice{matrix: m, inv: inv}, nil
}

// NewCubicLattice returns a cubic lattice with edge length a.
func NewCubicLattice(a float64) Lattice {
	l, _ := NewLattice(geom.Vec3{X: a}, geom.Vec3{Y: a}, geom.Vec3{Z: a})
	return l
}

func transpose(m geom.Mat3) geom.Mat3 {
	return geom.Mat3{
		{m[0][0], m[1][0], m[2][0]},
		{m[0][1], m[1][1], m[2][1]},
		{m[0][2], m[1][2], m[2][2]},
	}
}

// A returns the first basis vector.
func (l Lattice) A() geom.Vec3 { return geom.Vec3{X: l.matrix[0][0], Y: l.matrix[0][1], Z: l.matrix[0][2]} }

// B returns the second basis vector.
func (l Lattice) B() geom.Vec3 { return geom.Vec3{X: l.matrix[1][0], Y: l.matrix[1][1], Z: l.matrix[1][2]} }

// C returns the third basis vector.
func (l Lattice) C() geom.Vec3 { return geom.Vec3{X: l.matrix[2][0], Y: l.matrix[2][1], Z: l.matrix[2][2]} }

// Cartesian converts fractional coordinates to cartesian.
func (l Lattice) Cartesian(frac geom.Vec3) geom.Vec3 {
	return l.A().Scale(frac.X).Add(l.B().Scale(frac.Y)).Add(l.C().Scale(frac.Z))
}

// Fractional converts cartesian coordinates to fractional.
func (l Lattice) Fractional(cart geom.Vec3) geom.Vec3 {
	return l.inv.MulVec(cart)
}

// Volume returns the cell volume.
func (l Lattice) Volume() float64 {
	return math.Abs(l.A().Dot(l.B().Cross(l.C())))
}

// ImageBounds returns, per lattice direction, how many periodic cells must
// be scanned to cover a sphere of the given radius. The bound along a
// direction is the radius divided by the spacing between the lattice
// planes perpendicular to it.
func (l Lattice) ImageBounds(radius float64) [3]int {
	vol := l.Volume()
	planes := [3]float64{
		vol / l.B().Cross(l.C()).Norm(),
		vol / l.C().Cross(l.A()).Norm(),
		vol / l.A().Cross(l.B()).Norm(),
	}
	var bounds [3]int
	for i, d := range planes {
		bounds[i] = int(math.Ceil(radius/d)) + 1
	}
	return bounds
}
