package voronoi

import (
	"fmt"

	"github.com/crystalkit/chemenv/pkg/structure"
)

// SiteFilter restricts which central sites get their environments
// computed. The zero value allows every site.
type SiteFilter struct {
	// ExcludedAtoms skips sites whose species is listed.
	ExcludedAtoms []string `yaml:"excluded_atoms"`
	// OnlyAtoms, when non-empty, keeps only sites whose species is listed.
	OnlyAtoms []string `yaml:"only_atoms"`
	// OnlyIndices, when non-empty, keeps only the listed site indices.
	OnlyIndices []int `yaml:"only_indices"`
	// OnlyCations keeps only sites with a positive valence; Valences must
	// then provide one entry per site.
	OnlyCations bool  `yaml:"only_cations"`
	Valences    []int `yaml:"valences"`
}

// Validate checks internal consistency against a structure size.
func (f SiteFilter) Validate(numSites int) error {
	if f.OnlyCations && len(f.Valences) != numSites {
		return fmt.Errorf("only_cations requires %d valences, have %d", numSites, len(f.Valences))
	}
	for _, idx := range f.OnlyIndices {
		if idx < 0 || idx >= numSites {
			return fmt.Errorf("only_indices entry %d outside structure of %d sites", idx, numSites)
		}
	}
	return nil
}

// Allows reports whether environments should be computed for the site.
func (f SiteFilter) Allows(site structure.Site) bool {
	for _, sp := range f.ExcludedAtoms {
		if site.Species() == sp {
			return false
		}
	}
	if len(f.OnlyAtoms) > 0 && !containsString(f.OnlyAtoms, site.Species()) {
		return false
	}
	if len(f.OnlyIndices) > 0 && !containsInt(f.OnlyIndices, site.Index()) {
		return false
	}
	if f.OnlyCations && f.Valences[site.Index()] <= 0 {
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}
