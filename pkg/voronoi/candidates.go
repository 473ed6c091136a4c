// Package voronoi computes, per site, the Voronoi neighbor candidates of a
// periodic structure and the finite set of breakpoint intervals in
// (distance factor, angle factor) space over which the neighbor set is
// constant. It is a per-site local tessellation, not a general Voronoi
// library.
package voronoi

import (
	"fmt"
	"sort"

	"github.com/crystalkit/chemenv/pkg/geom"
	"github.com/crystalkit/chemenv/pkg/structure"
)

// NeighborCandidate is one Voronoi neighbor of a central site: a facet of
// the site's Voronoi cell. Candidates are immutable once produced.
type NeighborCandidate struct {
	SiteIndex int                   // index of the partner site
	Offset    structure.ImageOffset // periodic image of the partner
	Vector    geom.Vec3             // displacement from the central site
	Distance  float64

	SolidAngle   float64 // steradians subtended by the Voronoi facet
	NormAngle    float64 // SolidAngle / max solid angle at this site
	NormDistance float64 // Distance / nearest neighbor distance
}

// CellBuilderOptions configures the per-site tessellation.
type CellBuilderOptions struct {
	// DistanceCutoff bounds the neighbor candidate search, in the same
	// units as the lattice. Distant images cannot contribute Voronoi
	// facets, so this is a performance bound, not an accuracy knob.
	DistanceCutoff float64

	// MaxClipPlanes caps how many nearest images are used to clip the
	// cell. Bisector planes of images beyond the nearest few dozen never
	// survive clipping.
	MaxClipPlanes int
}

// DefaultCellBuilderOptions returns the tessellation defaults.
func DefaultCellBuilderOptions() CellBuilderOptions {
	return CellBuilderOptions{
		DistanceCutoff: 10.0,
		MaxClipPlanes:  80,
	}
}

// CellBuilder computes Voronoi neighbor candidates for the sites of one
// structure. It is safe for concurrent use: it holds only read-only state.
type CellBuilder struct {
	st   *structure.Structure
	opts CellBuilderOptions
}

// NewCellBuilder returns a builder for the given structure. The structure
// must have at least two sites: with a single site the tessellation
// cannot distinguish an environment from pure lattice translation.
func NewCellBuilder(st *structure.Structure, opts CellBuilderOptions) (*CellBuilder, error) {
	if st.NumSites() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 sites, have %d",
			structure.ErrInvalidStructure, st.NumSites())
	}
	if opts.DistanceCutoff <= 0 {
		opts.DistanceCutoff = DefaultCellBuilderOptions().DistanceCutoff
	}
	if opts.MaxClipPlanes <= 0 {
		opts.MaxClipPlanes = DefaultCellBuilderOptions().MaxClipPlanes
	}
	return &CellBuilder{st: st, opts: opts}, nil
}

// Candidates computes the Voronoi neighbor candidates of one site,
// ordered by ascending distance (partner index, then image offset, as
// tiebreaks). Solid angles are normalized to the site maximum and
// distances to the nearest neighbor distance. Fails with ErrNoNeighbors
// when no image lies within the distance cutoff.
func (b *CellBuilder) Candidates(siteIndex int) ([]NeighborCandidate, error) {
	site := b.st.Site(siteIndex)
	images := b.st.ImagesWithin(site, b.opts.DistanceCutoff)
	if len(images) == 0 {
		return nil, fmt.Errorf("site %d: %w", siteIndex, ErrNoNeighbors)
	}

	type ranked struct {
		img  structure.PeriodicImage
		vec  geom.Vec3
		dist float64
	}
	all := make([]ranked, 0, len(images))
	for _, img := range images {
		vec := img.Cart.Sub(site.Cart())
		all = append(all, ranked{img: img, vec: vec, dist: vec.Norm()})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return lessImage(all[i].img, all[j].img)
	})
	if len(all) > b.opts.MaxClipPlanes {
		all = all[:b.opts.MaxClipPlanes]
	}

	// Carve the Voronoi cell of the site out of a bounding cube by the
	// perpendicular bisector half-space of each candidate.
	cell := geom.NewCube(b.opts.DistanceCutoff)
	for i, r := range all {
		cell.ClipHalfSpace(r.vec.Unit(), r.dist/2, i)
	}

	var cands []NeighborCandidate
	maxAngle := 0.0
	for _, face := range cell.Faces() {
		if face.PlaneID < 0 {
			continue // bounding cube remnant, not a neighbor facet
		}
		angle := geom.PolygonSolidAngle(face.Vertices)
		if angle <= 0 {
			continue
		}
		r := all[face.PlaneID]
		cands = append(cands, NeighborCandidate{
			SiteIndex:  r.img.SiteIndex,
			Offset:     r.img.Offset,
			Vector:     r.vec,
			Distance:   r.dist,
			SolidAngle: angle,
		})
		if angle > maxAngle {
			maxAngle = angle
		}
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("site %d: %w", siteIndex, ErrNoNeighbors)
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Distance != cands[j].Distance {
			return cands[i].Distance < cands[j].Distance
		}
		if cands[i].SiteIndex != cands[j].SiteIndex {
			return cands[i].SiteIndex < cands[j].SiteIndex
		}
		return lessOffset(cands[i].Offset, cands[j].Offset)
	})

	minDist := cands[0].Distance
	for i := range cands {
		cands[i].NormDistance = cands[i].Distance / minDist
		cands[i].NormAngle = cands[i].SolidAngle / maxAngle
	}
	return cands, nil
}

func lessImage(a, b structure.PeriodicImage) bool {
	if a.SiteIndex != b.SiteIndex {
		return a.SiteIndex < b.SiteIndex
	}
	return lessOffset(a.Offset, b.Offset)
}

func lessOffset(a, b structure.ImageOffset) bool {
	if a.N != b.N {
		return a.N < b.N
	}
	if a.M != b.M {
		return a.M < b.M
	}
	return a.P < b.P
}
