package chemenv

import (
	"fmt"
	"sort"

	"github.com/crystalkit/chemenv/pkg/logging"
	"github.com/crystalkit/chemenv/pkg/voronoi"
)

// expandHints widens the neighbor sets of a site beyond what the
// breakpoint grid realizes. A grid set whose best csm exceeds the hint
// threshold is perturbed in both directions, dropping its weakest member
// and pulling in the strongest excluded candidate, and a perturbed set
// that still matches poorly is perturbed again. Coordination numbers
// already seen for the site are never revisited, and the total number of
// expansions is bounded by MaxHintSteps.
func (e *Engine) expandHints(se *SiteEnvironments, grid *voronoi.Grid, log logging.Logger) {
	if e.opts.MaxHintSteps == 0 || e.opts.HintCSMThreshold >= 100 {
		return
	}

	visited := make(map[int]bool)
	for _, set := range grid.Sets {
		visited[set.Size()] = true
	}

	var queue []*voronoi.NeighborSet
	for _, set := range grid.Sets {
		if e.needsHint(se, set) {
			queue = append(queue, set)
		}
	}

	steps := 0
	for len(queue) > 0 && steps < e.opts.MaxHintSteps {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range []*voronoi.NeighborSet{shrinkSet(cur), growSet(grid, cur)} {
			if next == nil || visited[next.Size()] {
				continue
			}
			visited[next.Size()] = true
			steps++
			if e.opts.Metrics != nil {
				e.opts.Metrics.RecordHintExpansion()
			}
			log.Debug("hint widening",
				logging.SiteIndex(se.SiteIndex),
				logging.CoordinationNumber(next.Size()))

			se.Sets = append(se.Sets, next)
			se.hintSets[next.Key()] = true
			if e.evaluateSet(se, next, log) && e.needsHint(se, next) {
				queue = append(queue, next)
			}
			if steps >= e.opts.MaxHintSteps {
				return
			}
		}
	}
}

// needsHint reports whether a set matches its best model poorly enough
// to justify widening. A set with no matching models always qualifies.
func (e *Engine) needsHint(se *SiteEnvironments, set *voronoi.NeighborSet) bool {
	best, ok := se.BestResult(set)
	if !ok {
		return true
	}
	return best.CSM > e.opts.HintCSMThreshold
}

// shrinkSet returns the set with its weakest member removed, or nil when
// the set is already minimal.
func shrinkSet(set *voronoi.NeighborSet) *voronoi.NeighborSet {
	if set.Size() < 2 {
		return nil
	}
	drop := set.MinAngleMemberIndex()
	members := make([]voronoi.NeighborCandidate, 0, set.Size()-1)
	members = append(members, set.Members[:drop]...)
	members = append(members, set.Members[drop+1:]...)
	return &voronoi.NeighborSet{SiteIndex: set.SiteIndex, Members: members}
}

// growSet returns the set extended by the first excluded candidate not
// already a member, or nil when no candidate remains. Member order stays
// sorted by ascending distance.
func growSet(grid *voronoi.Grid, set *voronoi.NeighborSet) *voronoi.NeighborSet {
	present := make(map[string]bool, set.Size())
	for _, m := range set.Members {
		present[memberID(m)] = true
	}
	for _, c := range grid.Excluded {
		if present[memberID(c)] {
			continue
		}
		members := make([]voronoi.NeighborCandidate, set.Size(), set.Size()+1)
		copy(members, set.Members)
		members = append(members, c)
		sort.Slice(members, func(i, j int) bool {
			if members[i].Distance != members[j].Distance {
				return members[i].Distance < members[j].Distance
			}
			return members[i].SiteIndex < members[j].SiteIndex
		})
		return &voronoi.NeighborSet{SiteIndex: set.SiteIndex, Members: members}
	}
	return nil
}

func memberID(c voronoi.NeighborCandidate) string {
	return fmt.Sprintf("%d:%d,%d,%d", c.SiteIndex, c.Offset.N, c.Offset.M, c.Offset.P)
}
