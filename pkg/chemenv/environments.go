package chemenv

import (
	"fmt"

	"github.com/crystalkit/chemenv/pkg/csm"
	"github.com/crystalkit/chemenv/pkg/structure"
	"github.com/crystalkit/chemenv/pkg/voronoi"
)

// SiteEnvironments holds everything computed for one site: its breakpoint
// grid, every neighbor set realized by the grid or reached by hint
// widening, and the symmetry measures of each set against the matching
// reference models, ranked ascending by csm.
type SiteEnvironments struct {
	SiteIndex int
	Grid      *voronoi.Grid

	// Sets are the distinct neighbor sets, grid sets first in grid
	// order, then hint-widened sets in discovery order.
	Sets []*voronoi.NeighborSet

	resultsBySet map[string][]csm.Result
	hintSets     map[string]bool
}

// Results returns the ranked measures for a neighbor set, or nil when
// the set has no matching reference models.
func (se *SiteEnvironments) Results(set *voronoi.NeighborSet) []csm.Result {
	return se.resultsBySet[set.Key()]
}

// FromHint reports whether the set was reached by hint widening rather
// than direct breakpoint enumeration.
func (se *SiteEnvironments) FromHint(set *voronoi.NeighborSet) bool {
	return se.hintSets[set.Key()]
}

// BestResult returns the lowest-csm measure for the set, if any.
func (se *SiteEnvironments) BestResult(set *voronoi.NeighborSet) (csm.Result, bool) {
	results := se.resultsBySet[set.Key()]
	if len(results) == 0 {
		return csm.Result{}, false
	}
	return results[0], true
}

// StructureEnvironments is the full multi-parameter result grid for a
// structure. It is built once by the engine and read-only thereafter.
type StructureEnvironments struct {
	RunID string

	st         *structure.Structure
	sites      []*SiteEnvironments // index-aligned; nil for skipped sites
	siteErrors []error             // index-aligned; nil for succeeded sites
}

// Structure returns the input structure.
func (se *StructureEnvironments) Structure() *structure.Structure { return se.st }

// NumSites returns the site count of the underlying structure.
func (se *StructureEnvironments) NumSites() int { return len(se.sites) }

// Site returns the environments of one site. It returns an error when
// the site failed, and (nil, nil) when the site was excluded by filters.
func (se *StructureEnvironments) Site(i int) (*SiteEnvironments, error) {
	if i < 0 || i >= len(se.sites) {
		return nil, fmt.Errorf("site %d out of range [0,%d)", i, len(se.sites))
	}
	if se.siteErrors[i] != nil {
		return nil, se.siteErrors[i]
	}
	return se.sites[i], nil
}

// SiteErrors returns the per-site error slots; a nil entry means the site
// succeeded or was filtered out.
func (se *StructureEnvironments) SiteErrors() []error { return se.siteErrors }

// FailedSites returns the indices of sites that failed.
func (se *StructureEnvironments) FailedSites() []int {
	var failed []int
	for i, err := range se.siteErrors {
		if err != nil {
			failed = append(failed, i)
		}
	}
	return failed
}
