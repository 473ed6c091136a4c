package chemenv

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crystalkit/chemenv/pkg/logging"
	"github.com/crystalkit/chemenv/pkg/metrics"
	"github.com/crystalkit/chemenv/pkg/validation"
	"github.com/crystalkit/chemenv/pkg/voronoi"
)

// Options configures the environment engine. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// MaximumDistanceFactor bounds the scanned distance-factor axis.
	MaximumDistanceFactor float64 `yaml:"maximum_distance_factor" validate:"gt=1"`
	// MinimumAngleFactor bounds the scanned angle-factor axis.
	MinimumAngleFactor float64 `yaml:"minimum_angle_factor" validate:"gte=0,lt=1"`

	// VoronoiDistanceCutoff caps the tessellation neighbor search, in
	// lattice units.
	VoronoiDistanceCutoff float64 `yaml:"voronoi_distance_cutoff" validate:"gt=0"`
	// MaxClipPlanes caps how many nearest images clip each Voronoi cell.
	MaxClipPlanes int `yaml:"max_clip_planes" validate:"gt=0"`

	// ExactPermutationLimit is the largest coordination number solved by
	// exhaustive permutation search; larger sets use the heuristic and
	// are flagged approximate.
	ExactPermutationLimit int `yaml:"exact_permutation_limit" validate:"gt=0"`

	// HintCSMThreshold triggers hint widening when a neighbor set's best
	// csm exceeds it; MaxHintSteps bounds the widenings per site.
	HintCSMThreshold float64 `yaml:"hint_csm_threshold" validate:"gte=0,lte=100"`
	MaxHintSteps     int     `yaml:"max_hint_steps" validate:"gte=0"`

	// Workers bounds the per-site fan-out; 0 means one worker per CPU.
	Workers int `yaml:"workers" validate:"gte=0"`

	// Filter restricts which central sites are processed.
	Filter voronoi.SiteFilter `yaml:"filter"`

	// Collaborators. Nil values fall back to a no-op observer, the
	// process default logger, and no metrics.
	Logger   logging.Logger    `yaml:"-"`
	Metrics  *metrics.Registry `yaml:"-"`
	Observer Observer          `yaml:"-"`
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		MaximumDistanceFactor: 2.0,
		MinimumAngleFactor:    0.05,
		VoronoiDistanceCutoff: 10.0,
		MaxClipPlanes:         80,
		ExactPermutationLimit: 6,
		HintCSMThreshold:      30.0,
		MaxHintSteps:          3,
	}
}

// LoadOptions reads YAML overrides from a file on top of the defaults.
// Absent keys keep their default values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	raw, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("load options: %w", err)
	}
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("load options %s: %w", path, err)
	}
	return opts, nil
}

// Validate checks the options against their tags plus the cross-field
// rules the tags cannot express.
func (o Options) Validate(numSites int) error {
	if err := validation.Struct(o); err != nil {
		return err
	}
	if err := o.Filter.Validate(numSites); err != nil {
		return err
	}
	return validation.NewConfigValidator("Options").
		GreaterThanFloat("MaximumDistanceFactor", o.MaximumDistanceFactor, 1.0).
		HalfOpenUnitFloat("MinimumAngleFactor", o.MinimumAngleFactor).
		Check(o.VoronoiDistanceCutoff > 2, "VoronoiDistanceCutoff",
			"cutoff too small to enclose a first coordination shell").
		Err()
}
