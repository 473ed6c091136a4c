package geom

import "math"

// TriangleSolidAngle returns the solid angle, in steradians, subtended at
// the origin by the triangle with vertices a, b, c, using the
// Van Oosterom–Strackee formula. The result is always non-negative.
func TriangleSolidAngle(a, b, c Vec3) float64 {
	la, lb, lc := a.Norm(), b.Norm(), c.Norm()
	if la == 0 || lb == 0 || lc == 0 {
		return 0
	}

	numer := math.Abs(a.Dot(b.Cross(c)))
	denom := la*lb*lc + a.Dot(b)*lc + a.Dot(c)*lb + b.Dot(c)*la

	omega := 2 * math.Atan2(numer, denom)
	if omega < 0 {
		omega += 4 * math.Pi
	}
	return omega
}

// PolygonSolidAngle returns the solid angle subtended at the origin by a
// planar convex polygon given as an ordered vertex ring. The polygon is
// fan-triangulated from its first vertex.
func PolygonSolidAngle(ring []Vec3) float64 {
	if len(ring) < 3 {
		return 0
	}
	var total float64
	for i := 1; i < len(ring)-1; i++ {
		total += TriangleSolidAngle(ring[0], ring[i], ring[i+1])
	}
	return total
}
