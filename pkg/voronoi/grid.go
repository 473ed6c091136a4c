package voronoi

import (
	"fmt"
	"sort"
)

// breakpointTol is the relative tolerance under which two normalized
// distances or angles are considered the same breakpoint. It prevents
// floating round-off from fragmenting intervals; values closer than this
// are merged into a single membership change point.
const breakpointTol = 1e-8

// BreakpointInterval is a maximal rectangle of (distance factor, angle
// factor) space over which the neighbor set is constant. Distance bounds
// are [DistMin, DistMax) except for the rightmost interval, which closes
// at the scanned maximum; angle bounds are (AngMin, AngMax] except for
// the bottom interval, which closes at the scanned minimum.
type BreakpointInterval struct {
	DistMin, DistMax float64
	AngMin, AngMax   float64
	LastDist         bool // rightmost distance stripe
	FirstAng         bool // bottom angle stripe
	Set              *NeighborSet
}

// Contains reports whether the parameter point lies in the interval.
func (bi *BreakpointInterval) Contains(p NeighborSetParameter) bool {
	df, af := p.DistanceFactor, p.AngleFactor
	if df < bi.DistMin {
		return false
	}
	if bi.LastDist {
		if df > bi.DistMax {
			return false
		}
	} else if df >= bi.DistMax {
		return false
	}
	if af > bi.AngMax {
		return false
	}
	if bi.FirstAng {
		if af < bi.AngMin {
			return false
		}
	} else if af <= bi.AngMin {
		return false
	}
	return true
}

// Grid holds, for one site, the candidates, the breakpoint partition of
// the scanned cutoff domain, and the distinct neighbor sets it realizes.
type Grid struct {
	SiteIndex         int
	MaxDistanceFactor float64
	MinAngleFactor    float64

	Candidates []NeighborCandidate
	// Excluded are candidates that can never be members within the
	// scanned domain; hint widening may still pull them in. Ordered by
	// descending normalized angle, ascending distance.
	Excluded  []NeighborCandidate
	Intervals []BreakpointInterval
	Sets      []*NeighborSet
}

// BuildGrid partitions [1, maxDF] × [minAF, 1] into breakpoint intervals
// for the given candidates of one site. The only membership change points
// are the distinct normalized distances and angles present in the
// candidate list, so the partition has O(k²) rectangles for k candidates
// and needs no dense parameter sweep.
func BuildGrid(siteIndex int, cands []NeighborCandidate, maxDF, minAF float64) (*Grid, error) {
	if maxDF <= 1 {
		return nil, fmt.Errorf("maximum distance factor must exceed 1, got %v", maxDF)
	}
	if minAF < 0 || minAF >= 1 {
		return nil, fmt.Errorf("minimum angle factor must be in [0,1), got %v", minAF)
	}

	g := &Grid{
		SiteIndex:         siteIndex,
		MaxDistanceFactor: maxDF,
		MinAngleFactor:    minAF,
	}
	for _, c := range cands {
		if c.NormDistance <= maxDF*(1+breakpointTol) && c.NormAngle >= minAF*(1-breakpointTol) {
			g.Candidates = append(g.Candidates, c)
		} else {
			g.Excluded = append(g.Excluded, c)
		}
	}
	sort.Slice(g.Excluded, func(i, j int) bool {
		if g.Excluded[i].NormAngle != g.Excluded[j].NormAngle {
			return g.Excluded[i].NormAngle > g.Excluded[j].NormAngle
		}
		return g.Excluded[i].Distance < g.Excluded[j].Distance
	})
	if len(g.Candidates) == 0 {
		return nil, fmt.Errorf("site %d: %w", siteIndex, ErrNoNeighbors)
	}

	distCuts := mergedValues(g.Candidates, func(c NeighborCandidate) float64 { return c.NormDistance })
	angCuts := mergedValues(g.Candidates, func(c NeighborCandidate) float64 { return c.NormAngle })

	// The cut lists come from the candidates that survive the scan-domain
	// filter, which need not include the nearest neighbor (angle floor) or
	// the maximum-angle facet (distance cap). Anchor the partition at the
	// domain edges so the intervals still tile all of [1,maxDF]×[minAF,1];
	// the extra stripes simply carry smaller (possibly empty) member sets.
	if distCuts[0]-1 > breakpointTol {
		distCuts = append([]float64{1}, distCuts...)
	}
	if 1-angCuts[len(angCuts)-1] > breakpointTol {
		angCuts = append(angCuts, 1)
	}

	setsByKey := make(map[string]*NeighborSet)
	for di, dLo := range distCuts {
		dHi := maxDF
		lastDist := di == len(distCuts)-1
		if !lastDist {
			dHi = distCuts[di+1]
		}
		for ai, aHi := range angCuts {
			aLo := minAF
			firstAng := ai == 0
			if !firstAng {
				aLo = angCuts[ai-1]
			}

			set := g.memberSet(siteIndex, dLo, aHi)
			if existing, ok := setsByKey[set.Key()]; ok {
				set = existing
			} else {
				setsByKey[set.Key()] = set
				g.Sets = append(g.Sets, set)
			}
			g.Intervals = append(g.Intervals, BreakpointInterval{
				DistMin:  dLo,
				DistMax:  dHi,
				AngMin:   aLo,
				AngMax:   aHi,
				LastDist: lastDist,
				FirstAng: firstAng,
				Set:      set,
			})
		}
	}
	return g, nil
}

// memberSet selects the candidates with normalized distance ≤ dCut and
// normalized angle ≥ aCut, both under the breakpoint tolerance.
func (g *Grid) memberSet(siteIndex int, dCut, aCut float64) *NeighborSet {
	set := &NeighborSet{SiteIndex: siteIndex}
	for _, c := range g.Candidates {
		if c.NormDistance <= dCut*(1+breakpointTol) && c.NormAngle >= aCut*(1-breakpointTol) {
			set.Members = append(set.Members, c)
		}
	}
	return set
}

// IntervalFor returns the breakpoint interval containing the parameter
// point, or ErrOutOfRange when the point lies outside the scanned domain.
func (g *Grid) IntervalFor(p NeighborSetParameter) (*BreakpointInterval, error) {
	for i := range g.Intervals {
		if g.Intervals[i].Contains(p) {
			return &g.Intervals[i], nil
		}
	}
	return nil, fmt.Errorf("df=%v af=%v: %w", p.DistanceFactor, p.AngleFactor, ErrOutOfRange)
}

// mergedValues returns the sorted distinct values of f over the
// candidates, merging values within the relative breakpoint tolerance.
func mergedValues(cands []NeighborCandidate, f func(NeighborCandidate) float64) []float64 {
	vals := make([]float64, 0, len(cands))
	for _, c := range cands {
		vals = append(vals, f(c))
	}
	sort.Float64s(vals)

	var out []float64
	for _, v := range vals {
		if len(out) > 0 && v-out[len(out)-1] <= breakpointTol*v {
			continue
		}
		out = append(out, v)
	}
	return out
}
