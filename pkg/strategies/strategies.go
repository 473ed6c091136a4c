// Package strategies collapses the multi-parameter environment grid into
// a final per-site assignment. Each strategy is a pure function from a
// StructureEnvironments to a LightStructureEnvironments; new strategies
// plug in without touching the grid aggregator.
package strategies

import (
	"errors"

	"github.com/crystalkit/chemenv/pkg/chemenv"
)

// ErrCutoffOutOfRange is returned by cutoff-based strategies when the
// configured cutoff point lies outside every breakpoint interval the
// grid computed. The caller must request a grid covering the desired
// cutoffs.
var ErrCutoffOutOfRange = errors.New("cutoff outside computed breakpoint grid")

// EnvironmentRecord is one weighted environment of a site.
type EnvironmentRecord struct {
	// Symbol names the assigned model geometry, e.g. "T:4".
	Symbol string `json:"symbol"`
	// Fraction is the weight of this environment among the site's
	// records; a site's fractions sum to 1.
	Fraction float64 `json:"fraction"`
	CSM      float64 `json:"csm"`
	// Permutation maps neighbor index to model vertex index.
	Permutation []int `json:"permutation"`
}

// LightStructureEnvironments is the user-facing result: per site, an
// ordered list of weighted environments. A nil site slot means the site
// was excluded by filters or failed during grid computation.
type LightStructureEnvironments struct {
	RunID    string                `json:"run_id"`
	Strategy string                `json:"strategy"`
	Sites    [][]EnvironmentRecord `json:"sites"`
}

// Strategy reduces a structure's environment grid to one assignment per
// site.
type Strategy interface {
	Name() string
	Resolve(envs *chemenv.StructureEnvironments) (*LightStructureEnvironments, error)
}
