// Package chemenv is the environment grid aggregator: it owns the full
// multi-parameter result grid of a structure, running the Voronoi
// neighbor search and the symmetry measure solver for every site, every
// breakpoint interval and every matching reference model, with bounded
// hint widening of poorly matching neighbor sets.
package chemenv

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/crystalkit/chemenv/pkg/catalog"
	"github.com/crystalkit/chemenv/pkg/csm"
	"github.com/crystalkit/chemenv/pkg/logging"
	"github.com/crystalkit/chemenv/pkg/parallel"
	"github.com/crystalkit/chemenv/pkg/structure"
	"github.com/crystalkit/chemenv/pkg/voronoi"
)

// Engine computes StructureEnvironments. It holds only read-only state
// after construction and may be reused across structures and goroutines.
type Engine struct {
	opts     Options
	registry *catalog.Registry
	solver   *csm.Solver
	logger   logging.Logger
	observer Observer
}

// NewEngine builds an engine over the process-wide geometry catalog.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		opts:     opts,
		registry: catalog.Default(),
		logger:   opts.Logger,
		observer: opts.Observer,
	}
	if e.logger == nil {
		e.logger = logging.DefaultLogger()
	}
	if e.observer == nil {
		e.observer = NopObserver{}
	}
	e.solver = csm.NewSolver(e.registry, csm.Options{
		ExactPermutationLimit: opts.ExactPermutationLimit,
	})
	return e
}

// ComputeEnvironments runs the full pipeline for a structure. Sites are
// processed independently on a bounded worker pool; one site's failure is
// recorded in the result without aborting its siblings, and cancellation
// is honored only at site boundaries. Results are keyed by site index,
// so the output is deterministic regardless of completion order.
func (e *Engine) ComputeEnvironments(ctx context.Context, st *structure.Structure) (*StructureEnvironments, error) {
	if err := e.opts.Validate(st.NumSites()); err != nil {
		return nil, err
	}
	cb, err := voronoi.NewCellBuilder(st, voronoi.CellBuilderOptions{
		DistanceCutoff: e.opts.VoronoiDistanceCutoff,
		MaxClipPlanes:  e.opts.MaxClipPlanes,
	})
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := e.logger.With(logging.RunID(runID), logging.Component("chemenv"))
	timer := logging.StartTimer(log, "environment grid computed", logging.Count(st.NumSites()))
	log.Info("environment grid setup", logging.Count(st.NumSites()))
	e.observer.GridStart(runID, st.NumSites())

	envs := &StructureEnvironments{
		RunID: runID,
		st:    st,
		sites: make([]*SiteEnvironments, st.NumSites()),
	}
	envs.siteErrors = parallel.ForEach(ctx, st.NumSites(), e.opts.Workers, func(i int) error {
		site := st.Site(i)
		if !e.opts.Filter.Allows(site) {
			log.Debug("site filtered out", logging.SiteIndex(i))
			e.observer.SiteDone(runID, i, nil)
			return nil
		}

		start := time.Now()
		siteEnv, siteErr := e.computeSite(cb, i, log)
		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordSite(siteErr == nil, time.Since(start))
		}
		if siteErr == nil {
			envs.sites[i] = siteEnv
			log.Debug("site processed", logging.SiteIndex(i),
				logging.Count(len(siteEnv.Sets)))
		} else {
			log.Warn("site failed", logging.SiteIndex(i), logging.Error(siteErr))
		}
		e.observer.SiteDone(runID, i, siteErr)
		return siteErr
	})

	e.observer.GridEnd(runID, len(envs.FailedSites()))
	timer.End()
	return envs, nil
}

// computeSite runs tessellation, breakpoint enumeration, symmetry
// measures and hint widening for one site.
func (e *Engine) computeSite(cb *voronoi.CellBuilder, i int, log logging.Logger) (*SiteEnvironments, error) {
	cands, err := cb.Candidates(i)
	if err != nil {
		return nil, siteError(i, StageTessellation, err)
	}
	grid, err := voronoi.BuildGrid(i, cands, e.opts.MaximumDistanceFactor, e.opts.MinimumAngleFactor)
	if err != nil {
		return nil, siteError(i, StageBreakpoints, err)
	}

	se := &SiteEnvironments{
		SiteIndex:    i,
		Grid:         grid,
		resultsBySet: make(map[string][]csm.Result),
		hintSets:     make(map[string]bool),
	}
	matched := false
	for _, set := range grid.Sets {
		se.Sets = append(se.Sets, set)
		if e.evaluateSet(se, set, log) {
			matched = true
		}
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordNeighborSets(len(grid.Sets))
	}
	if !matched {
		return nil, siteError(i, StageSymmetry, csm.ErrUnsupportedCoordinationNumber)
	}

	e.expandHints(se, grid, log)
	return se, nil
}

// evaluateSet measures one neighbor set against all matching models,
// storing the ranked results. It reports whether any model matched the
// set's size; a size without catalog entries is recorded as empty rather
// than failing the site, since other breakpoint sets may still match.
func (e *Engine) evaluateSet(se *SiteEnvironments, set *voronoi.NeighborSet, log logging.Logger) bool {
	results, err := e.solver.MeasureAll(set.Vectors())
	if err != nil {
		if errors.Is(err, csm.ErrUnsupportedCoordinationNumber) {
			log.Debug("no reference models for neighbor set",
				logging.SiteIndex(se.SiteIndex),
				logging.CoordinationNumber(set.Size()))
			se.resultsBySet[set.Key()] = nil
			return false
		}
		se.resultsBySet[set.Key()] = nil
		return false
	}

	for _, r := range results {
		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordCSM(r.Approximate, r.CSM)
		}
	}
	if results[0].Approximate {
		log.Warn("heuristic correspondence search used; csm is an upper bound",
			logging.SiteIndex(se.SiteIndex),
			logging.CoordinationNumber(set.Size()),
			logging.Symbol(results[0].Symbol))
	}
	se.resultsBySet[set.Key()] = results
	return true
}
