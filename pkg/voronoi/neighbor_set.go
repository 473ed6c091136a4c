package voronoi

import (
	"fmt"
	"strings"

	"github.com/crystalkit/chemenv/pkg/geom"
)

// NeighborSetParameter is one point of the cutoff continuum: a candidate
// belongs to the neighbor set iff its distance is at most DistanceFactor
// times the nearest neighbor distance and its solid angle is at least
// AngleFactor times the site's maximum solid angle.
type NeighborSetParameter struct {
	DistanceFactor float64 // > 1
	AngleFactor    float64 // in [0, 1)
}

// NeighborSet is the subset of a site's candidates selected by some
// region of the cutoff continuum, ordered by ascending distance. Its size
// is the apparent coordination number of the site.
type NeighborSet struct {
	SiteIndex int
	Members   []NeighborCandidate
}

// Size returns the apparent coordination number.
func (ns *NeighborSet) Size() int { return len(ns.Members) }

// Vectors returns the displacement vectors from the central site to each
// member, in member order.
func (ns *NeighborSet) Vectors() []geom.Vec3 {
	out := make([]geom.Vec3, len(ns.Members))
	for i, m := range ns.Members {
		out[i] = m.Vector
	}
	return out
}

// Key returns a canonical identity for the member subset, used to
// deduplicate sets that occur in several breakpoint intervals.
func (ns *NeighborSet) Key() string {
	var sb strings.Builder
	for i, m := range ns.Members {
		if i > 0 {
			sb.WriteByte('|')
		}
		fmt.Fprintf(&sb, "%d:%d,%d,%d", m.SiteIndex, m.Offset.N, m.Offset.M, m.Offset.P)
	}
	return sb.String()
}

// MinAngleMemberIndex returns the index of the member with the smallest
// normalized solid angle (largest distance as tiebreak), or -1 for an
// empty set. Hint widening removes this member first.
func (ns *NeighborSet) MinAngleMemberIndex() int {
	idx := -1
	for i, m := range ns.Members {
		if idx < 0 {
			idx = i
			continue
		}
		cur := ns.Members[idx]
		if m.NormAngle < cur.NormAngle ||
			(m.NormAngle == cur.NormAngle && m.Distance > cur.Distance) {
			idx = i
		}
	}
	return idx
}
