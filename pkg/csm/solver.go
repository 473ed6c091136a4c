// Package csm implements the continuous symmetry measure: how far an
// observed neighbor arrangement is from an idealized reference
// polyhedron, optimized over vertex correspondence, rigid rotation and
// isotropic scale. 0 means an exact match, 100 a complete mismatch.
package csm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/crystalkit/chemenv/pkg/catalog"
	"github.com/crystalkit/chemenv/pkg/geom"
)

// ErrUnsupportedCoordinationNumber mirrors catalog.ErrNoModelsForCN at the
// solver boundary: the observed neighbor count has no reference models.
var ErrUnsupportedCoordinationNumber = errors.New("unsupported coordination number")

// Result is the outcome of measuring one neighbor set against one model.
type Result struct {
	Symbol string
	Name   string
	CSM    float64 // in [0,100]; 0 = exact match

	// Permutation maps neighbor index → model vertex index of the
	// optimal correspondence.
	Permutation []int
	Rotation    geom.Mat3
	Scale       float64

	// Approximate is set when the heuristic correspondence search was
	// used; the CSM is then an upper bound on the true minimum, not
	// guaranteed optimal.
	Approximate bool
}

// Options tunes the solver.
type Options struct {
	// ExactPermutationLimit is the largest coordination number for which
	// all k! correspondences are enumerated. Above it the heuristic
	// search is substituted and results are flagged Approximate. The
	// cutover is empirically calibrated, so it is a tunable rather than
	// a constant.
	ExactPermutationLimit int

	// HeuristicMaxRealign bounds the realign/reassign iterations of the
	// heuristic search; HeuristicMaxSwapPasses bounds the pairwise swap
	// refinement passes.
	HeuristicMaxRealign    int
	HeuristicMaxSwapPasses int
}

// DefaultOptions returns the solver defaults.
func DefaultOptions() Options {
	return Options{
		ExactPermutationLimit:  6,
		HeuristicMaxRealign:    20,
		HeuristicMaxSwapPasses: 8,
	}
}

// Solver scores neighbor sets against the reference geometry catalog. It
// is stateless apart from read-only configuration and is safe for
// concurrent use.
type Solver struct {
	registry *catalog.Registry
	opts     Options
}

// NewSolver builds a solver over the given registry. Zero option fields
// fall back to defaults.
func NewSolver(registry *catalog.Registry, opts Options) *Solver {
	def := DefaultOptions()
	if opts.ExactPermutationLimit <= 0 {
		opts.ExactPermutationLimit = def.ExactPermutationLimit
	}
	if opts.HeuristicMaxRealign <= 0 {
		opts.HeuristicMaxRealign = def.HeuristicMaxRealign
	}
	if opts.HeuristicMaxSwapPasses <= 0 {
		opts.HeuristicMaxSwapPasses = def.HeuristicMaxSwapPasses
	}
	return &Solver{registry: registry, opts: opts}
}

// MeasureAll scores the displacement vectors against every catalog model
// of matching size, returning results sorted by ascending csm with the
// lexically smallest symbol winning ties. Fails with
// ErrUnsupportedCoordinationNumber when the catalog has no models of that
// size.
func (s *Solver) MeasureAll(vectors []geom.Vec3) ([]Result, error) {
	models, err := s.registry.ModelsForCN(len(vectors))
	if err != nil {
		return nil, fmt.Errorf("%w: %d neighbors", ErrUnsupportedCoordinationNumber, len(vectors))
	}

	results := make([]Result, 0, len(models))
	for _, m := range models {
		results = append(results, s.Measure(vectors, m))
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CSM != results[j].CSM {
			return results[i].CSM < results[j].CSM
		}
		return results[i].Symbol < results[j].Symbol
	})
	return results, nil
}

// Measure scores the displacement vectors against a single model of equal
// size. The caller guarantees len(vectors) == model.CN.
func (s *Solver) Measure(vectors []geom.Vec3, model catalog.Model) Result {
	k := len(vectors)
	if k != model.CN {
		panic(fmt.Sprintf("csm: %d vectors measured against %s", k, model.Symbol))
	}

	x, xNorm2 := vectors, sumNormSq(vectors)
	y, yNorm2 := model.Points, sumNormSq(model.Points)

	if k == 1 {
		// A single neighbor always matches the single-vertex model
		// exactly: some rotation carries one unit direction onto the
		// other.
		return Result{
			Symbol:      model.Symbol,
			Name:        model.Name,
			CSM:         0,
			Permutation: []int{0},
			Rotation:    identity(),
			Scale:       1,
		}
	}

	var best alignment
	var bestPerm []int
	approximate := false
	if k <= s.opts.ExactPermutationLimit {
		best, bestPerm = s.exactSearch(x, y, xNorm2, yNorm2)
	} else {
		best, bestPerm = s.heuristicSearch(x, y, xNorm2, yNorm2)
		approximate = true
	}

	return Result{
		Symbol:      model.Symbol,
		Name:        model.Name,
		CSM:         best.csm,
		Permutation: bestPerm,
		Rotation:    best.rotation,
		Scale:       best.scale,
		Approximate: approximate,
	}
}

// exactSearch enumerates every correspondence in lexicographic order, so
// ties resolve to the lowest permutation index deterministically.
func (s *Solver) exactSearch(x, y []geom.Vec3, xNorm2, yNorm2 float64) (alignment, []int) {
	k := len(x)
	perm := make([]int, k)
	for i := range perm {
		perm[i] = i
	}

	best := alignment{csm: 101}
	bestPerm := make([]int, k)
	for {
		a := alignPoints(x, y, perm, xNorm2, yNorm2)
		if a.csm < best.csm {
			best = a
			copy(bestPerm, perm)
		}
		if !nextPermutation(perm) {
			break
		}
	}
	return best, bestPerm
}

// nextPermutation advances perm to its lexicographic successor in place,
// reporting false once the last permutation has been visited.
func nextPermutation(perm []int) bool {
	n := len(perm)
	i := n - 2
	for i >= 0 && perm[i] >= perm[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := n - 1
	for perm[j] <= perm[i] {
		j--
	}
	perm[i], perm[j] = perm[j], perm[i]
	for l, r := i+1, n-1; l < r; l, r = l+1, r-1 {
		perm[l], perm[r] = perm[r], perm[l]
	}
	return true
}
