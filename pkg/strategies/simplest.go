package strategies

import (
	"fmt"

	"github.com/crystalkit/chemenv/pkg/chemenv"
	"github.com/crystalkit/chemenv/pkg/validation"
	"github.com/crystalkit/chemenv/pkg/voronoi"
)

// Simplest assigns each site the lowest-csm model of the single neighbor
// set selected by a fixed cutoff point, with fraction 1. It is
// deterministic: identical grids and cutoffs always yield identical
// assignments.
type Simplest struct {
	// DistanceCutoff and AngleCutoff pick the breakpoint interval whose
	// neighbor set is assigned. The point must lie inside the scanned
	// domain of the grid.
	DistanceCutoff float64
	AngleCutoff    float64
}

// NewSimplest returns the strategy with the conventional cutoffs.
func NewSimplest() Simplest {
	return Simplest{DistanceCutoff: 1.4, AngleCutoff: 0.3}
}

func (s Simplest) Name() string { return "simplest" }

// Validate checks the cutoffs.
func (s Simplest) Validate() error {
	return validation.NewConfigValidator("Simplest").
		GreaterThanFloat("DistanceCutoff", s.DistanceCutoff, 1.0).
		HalfOpenUnitFloat("AngleCutoff", s.AngleCutoff).
		Err()
}

// Resolve picks, for every processed site, the breakpoint interval
// containing the cutoff point and assigns that interval's lowest-csm
// model. Skipped and failed sites keep nil slots; a cutoff point outside
// any site's grid fails the whole resolution with ErrCutoffOutOfRange.
func (s Simplest) Resolve(envs *chemenv.StructureEnvironments) (*LightStructureEnvironments, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	param := voronoi.NeighborSetParameter{
		DistanceFactor: s.DistanceCutoff,
		AngleFactor:    s.AngleCutoff,
	}

	light := &LightStructureEnvironments{
		RunID:    envs.RunID,
		Strategy: s.Name(),
		Sites:    make([][]EnvironmentRecord, envs.NumSites()),
	}
	for i := 0; i < envs.NumSites(); i++ {
		se, err := envs.Site(i)
		if err != nil || se == nil {
			continue
		}
		interval, err := se.Grid.IntervalFor(param)
		if err != nil {
			return nil, fmt.Errorf("site %d: df=%v af=%v: %w",
				i, s.DistanceCutoff, s.AngleCutoff, ErrCutoffOutOfRange)
		}
		best, ok := se.BestResult(interval.Set)
		if !ok {
			// The selected set has no reference models; the site stays
			// unassigned rather than failing the batch.
			continue
		}
		light.Sites[i] = []EnvironmentRecord{{
			Symbol:      best.Symbol,
			Fraction:    1.0,
			CSM:         best.CSM,
			Permutation: best.Permutation,
		}}
	}
	return light, nil
}
