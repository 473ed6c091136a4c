package geom

import (
	"math"
	"sort"
)

// Face is one facet of a convex cell. PlaneID identifies the half-space
// that generated the facet; negative IDs are reserved for the bounding box
// of the initial cell.
type Face struct {
	PlaneID  int
	Vertices []Vec3
}

// Cell is a bounded convex polyhedron represented by its facets, each an
// ordered vertex ring. Cells are built from an initial bounding cube and
// refined by repeated half-space clipping; the origin must remain inside
// the cell at all times.
type Cell struct {
	faces []Face
	eps   float64
}

// Bounding-cube plane IDs.
const (
	cubePlaneBase = -1 // IDs -1..-6
)

// NewCube returns a cell that is an axis-aligned cube of the given
// half-width centered on the origin.
func NewCube(halfWidth float64) *Cell {
	h := halfWidth
	corners := [8]Vec3{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	quads := [6][4]int{
		{0, 3, 2, 1}, // -z
		{4, 5, 6, 7}, // +z
		{0, 1, 5, 4}, // -y
		{2, 3, 7, 6}, // +y
		{0, 4, 7, 3}, // -x
		{1, 2, 6, 5}, // +x
	}
	c := &Cell{eps: 1e-9 * h}
	for i, q := range quads {
		c.faces = append(c.faces, Face{
			PlaneID:  cubePlaneBase - i,
			Vertices: []Vec3{corners[q[0]], corners[q[1]], corners[q[2]], corners[q[3]]},
		})
	}
	return c
}

// Faces returns the current facets of the cell. Callers must not mutate
// the returned slice.
func (c *Cell) Faces() []Face {
	return c.faces
}

// IsEmpty reports whether clipping has removed every facet.
func (c *Cell) IsEmpty() bool {
	return len(c.faces) == 0
}

// ClipHalfSpace intersects the cell with the half-space n·x ≤ d, where n
// is a unit normal. The new facet introduced by the cut, if any, is tagged
// with the given plane ID. It reports whether the cut changed the cell.
func (c *Cell) ClipHalfSpace(n Vec3, d float64, id int) bool {
	// Quick reject: if every vertex already satisfies the half-space the
	// plane cannot cut the cell.
	allInside := true
	for _, f := range c.faces {
		for _, v := range f.Vertices {
			if n.Dot(v)-d > c.eps {
				allInside = false
				break
			}
		}
		if !allInside {
			break
		}
	}
	if allInside {
		return false
	}

	var kept []Face
	var cut []Vec3
	for _, f := range c.faces {
		ring, edge := clipRing(f.Vertices, n, d, c.eps)
		cut = append(cut, edge...)
		if len(ring) >= 3 {
			kept = append(kept, Face{PlaneID: f.PlaneID, Vertices: ring})
		}
	}

	if ring := capFace(cut, n, c.eps); len(ring) >= 3 {
		kept = append(kept, Face{PlaneID: id, Vertices: ring})
	}
	c.faces = kept
	return true
}

// clipRing clips a single ordered vertex ring against n·x ≤ d using the
// Sutherland–Hodgman rule and also returns the points the ring leaves on
// the cutting plane, which later form the cap facet. Both strict edge
// crossings and vertices already lying on the plane count: dropping the
// on-plane vertices starves the cap of points whenever the cut passes
// through existing geometry, which happens routinely in symmetric
// crystals.
func clipRing(ring []Vec3, n Vec3, d, eps float64) (clipped, edge []Vec3) {
	m := len(ring)
	for i := 0; i < m; i++ {
		cur := ring[i]
		next := ring[(i+1)%m]
		curDist := n.Dot(cur) - d
		nextDist := n.Dot(next) - d

		if curDist <= eps {
			clipped = append(clipped, cur)
			if curDist >= -eps {
				edge = append(edge, cur)
			}
		}
		// Edge crosses the plane strictly: add the intersection point.
		if (curDist < -eps && nextDist > eps) || (curDist > eps && nextDist < -eps) {
			t := curDist / (curDist - nextDist)
			p := cur.Add(next.Sub(cur).Scale(t))
			clipped = append(clipped, p)
			edge = append(edge, p)
		}
	}
	return clipped, edge
}

// capFace orders the intersection points collected from all clipped rings
// into a single convex ring lying in the cutting plane.
func capFace(points []Vec3, n Vec3, eps float64) []Vec3 {
	uniq := dedupe(points, 10*eps)
	if len(uniq) < 3 {
		return nil
	}

	// Orthonormal basis (u, v) in the plane.
	u := n.Cross(Vec3{1, 0, 0})
	if u.Norm() < 1e-6 {
		u = n.Cross(Vec3{0, 1, 0})
	}
	u = u.Unit()
	v := n.Cross(u)

	center := Centroid(uniq)
	sort.Slice(uniq, func(i, j int) bool {
		pi := uniq[i].Sub(center)
		pj := uniq[j].Sub(center)
		return math.Atan2(pi.Dot(v), pi.Dot(u)) < math.Atan2(pj.Dot(v), pj.Dot(u))
	})
	return uniq
}

func dedupe(points []Vec3, tol float64) []Vec3 {
	var out []Vec3
	for _, p := range points {
		dup := false
		for _, q := range out {
			if p.Dist(q) <= tol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}
