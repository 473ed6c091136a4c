package strategies

import (
	"math"
	"sort"

	"github.com/crystalkit/chemenv/pkg/chemenv"
	"github.com/crystalkit/chemenv/pkg/validation"
	"github.com/crystalkit/chemenv/pkg/voronoi"
)

// MultiWeights distributes a site's assignment over several co-existing
// environments. Every (neighbor set, model) pair of the grid is scored by
// a product of criteria: closeness of the csm to zero, plausibility of
// the set under the cutoff continuum (the share of the scanned domain
// that realizes it, weighted by how strongly its members subtend the
// site) and consistency of the set's best csm with the best seen across
// all of the site's sets. The scores are normalized into fractions;
// entries below the fraction threshold are dropped and the remainder
// renormalized to sum to 1.
type MultiWeights struct {
	// CSMDecay is the e-folding csm distance of the per-model weight;
	// DeltaCSMDecay the e-folding of the cross-set consistency weight.
	CSMDecay      float64
	DeltaCSMDecay float64

	// FractionThreshold drops marginal environments; MaxEnvironments
	// caps how many co-exist per site.
	FractionThreshold float64
	MaxEnvironments   int
}

// NewMultiWeights returns the strategy defaults.
func NewMultiWeights() MultiWeights {
	return MultiWeights{
		CSMDecay:          8.0,
		DeltaCSMDecay:     5.0,
		FractionThreshold: 0.01,
		MaxEnvironments:   4,
	}
}

func (m MultiWeights) Name() string { return "multi_weights" }

// Validate checks the weighting configuration.
func (m MultiWeights) Validate() error {
	return validation.NewConfigValidator("MultiWeights").
		PositiveFloat("CSMDecay", m.CSMDecay).
		PositiveFloat("DeltaCSMDecay", m.DeltaCSMDecay).
		RangeFloat("FractionThreshold", m.FractionThreshold, 0, 1).
		Positive("MaxEnvironments", m.MaxEnvironments).
		Err()
}

// Resolve builds the weighted distribution for every processed site.
// Skipped and failed sites keep nil slots.
func (m MultiWeights) Resolve(envs *chemenv.StructureEnvironments) (*LightStructureEnvironments, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	light := &LightStructureEnvironments{
		RunID:    envs.RunID,
		Strategy: m.Name(),
		Sites:    make([][]EnvironmentRecord, envs.NumSites()),
	}
	for i := 0; i < envs.NumSites(); i++ {
		se, err := envs.Site(i)
		if err != nil || se == nil {
			continue
		}
		light.Sites[i] = m.resolveSite(se)
	}
	return light, nil
}

// weighted is one scored (set, model) candidate before normalization.
type weighted struct {
	record EnvironmentRecord
	weight float64
}

func (m MultiWeights) resolveSite(se *chemenv.SiteEnvironments) []EnvironmentRecord {
	areas := intervalAreaFractions(se.Grid)

	globalBest := math.Inf(1)
	for _, set := range se.Sets {
		if best, ok := se.BestResult(set); ok && best.CSM < globalBest {
			globalBest = best.CSM
		}
	}
	if math.IsInf(globalBest, 1) {
		return nil
	}

	// Score every model of every set, merging repeats of the same
	// symbol across sets onto the lowest-csm instance.
	bySymbol := make(map[string]*weighted)
	var ordered []*weighted
	for _, set := range se.Sets {
		results := se.Results(set)
		if len(results) == 0 {
			continue
		}
		// Hint-widened sets occupy no breakpoint area and drop out here.
		plausibility := areas[set.Key()] * meanNormAngle(set)
		if plausibility <= 0 {
			continue
		}
		consistency := math.Exp(-(results[0].CSM - globalBest) / m.DeltaCSMDecay)

		for _, r := range results {
			w := math.Exp(-r.CSM/m.CSMDecay) * plausibility * consistency
			entry, ok := bySymbol[r.Symbol]
			if !ok {
				entry = &weighted{record: EnvironmentRecord{
					Symbol:      r.Symbol,
					CSM:         r.CSM,
					Permutation: r.Permutation,
				}}
				bySymbol[r.Symbol] = entry
				ordered = append(ordered, entry)
			}
			entry.weight += w
			if r.CSM < entry.record.CSM {
				entry.record.CSM = r.CSM
				entry.record.Permutation = r.Permutation
			}
		}
	}
	if len(ordered) == 0 {
		return nil
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].weight != ordered[j].weight {
			return ordered[i].weight > ordered[j].weight
		}
		if ordered[i].record.CSM != ordered[j].record.CSM {
			return ordered[i].record.CSM < ordered[j].record.CSM
		}
		return ordered[i].record.Symbol < ordered[j].record.Symbol
	})
	if len(ordered) > m.MaxEnvironments {
		ordered = ordered[:m.MaxEnvironments]
	}

	// Normalize, drop marginal entries, renormalize.
	records := normalize(ordered)
	var kept []*weighted
	for k, rec := range records {
		if rec.Fraction >= m.FractionThreshold {
			kept = append(kept, ordered[k])
		}
	}
	return normalize(kept)
}

// normalize converts weights to fractions summing to 1, in order.
func normalize(entries []*weighted) []EnvironmentRecord {
	var total float64
	for _, e := range entries {
		total += e.weight
	}
	if total <= 0 {
		return nil
	}
	out := make([]EnvironmentRecord, len(entries))
	for i, e := range entries {
		out[i] = e.record
		out[i].Fraction = e.weight / total
	}
	return out
}

// intervalAreaFractions returns, per neighbor set key, the share of the
// scanned cutoff domain whose intervals realize the set.
func intervalAreaFractions(grid *voronoi.Grid) map[string]float64 {
	total := (grid.MaxDistanceFactor - 1) * (1 - grid.MinAngleFactor)
	out := make(map[string]float64, len(grid.Sets))
	if total <= 0 {
		return out
	}
	for _, iv := range grid.Intervals {
		area := (iv.DistMax - iv.DistMin) * (iv.AngMax - iv.AngMin)
		out[iv.Set.Key()] += area / total
	}
	return out
}

// meanNormAngle is the average normalized solid angle of the members,
// a proxy for how strongly the set subtends the central site.
func meanNormAngle(set *voronoi.NeighborSet) float64 {
	if set.Size() == 0 {
		return 0
	}
	var sum float64
	for _, mem := range set.Members {
		sum += mem.NormAngle
	}
	return sum / float64(set.Size())
}
