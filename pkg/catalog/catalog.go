// Package catalog holds the reference geometry table: for each
// coordination number, the named idealized polyhedra that observed
// neighbor sets are matched against. The table is loaded once from
// embedded data and is immutable afterwards.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/crystalkit/chemenv/pkg/geom"
)

//go:embed data/geometries.yaml
var geometriesData []byte

// ErrNoModelsForCN indicates that the catalog has no reference polyhedra
// for an observed coordination number.
var ErrNoModelsForCN = errors.New("no reference geometries for coordination number")

// Model is one idealized coordination polyhedron. Points are unit vectors
// from the central site to each canonical vertex. Models are shared
// read-only across all sites; callers must not mutate Points.
type Model struct {
	Symbol string
	Name   string
	CN     int
	Points []geom.Vec3
}

// Registry maps coordination numbers to their candidate models. A
// registry is immutable once built.
type Registry struct {
	byCN     map[int][]Model
	bySymbol map[string]Model
}

type geometryFile struct {
	Geometries []geometryEntry `yaml:"geometries"`
}

type geometryEntry struct {
	Symbol string       `yaml:"symbol"`
	Name   string       `yaml:"name"`
	CN     int          `yaml:"cn"`
	Points [][3]float64 `yaml:"points"`
}

// Load parses the embedded geometry table into a fresh registry.
func Load() (*Registry, error) {
	var file geometryFile
	if err := yaml.Unmarshal(geometriesData, &file); err != nil {
		return nil, fmt.Errorf("parse geometry table: %w", err)
	}
	if len(file.Geometries) == 0 {
		return nil, errors.New("geometry table is empty")
	}

	reg := &Registry{
		byCN:     make(map[int][]Model),
		bySymbol: make(map[string]Model),
	}
	for _, entry := range file.Geometries {
		if entry.CN != len(entry.Points) {
			return nil, fmt.Errorf("geometry %s: cn %d does not match %d points",
				entry.Symbol, entry.CN, len(entry.Points))
		}
		if _, dup := reg.bySymbol[entry.Symbol]; dup {
			return nil, fmt.Errorf("geometry %s: duplicate symbol", entry.Symbol)
		}
		model := Model{
			Symbol: entry.Symbol,
			Name:   entry.Name,
			CN:     entry.CN,
			Points: make([]geom.Vec3, len(entry.Points)),
		}
		for i, p := range entry.Points {
			v := geom.Vec3{X: p[0], Y: p[1], Z: p[2]}
			if math.Abs(v.Norm()-1) > 1e-9 {
				return nil, fmt.Errorf("geometry %s: vertex %d is not unit length", entry.Symbol, i)
			}
			model.Points[i] = v
		}
		reg.byCN[model.CN] = append(reg.byCN[model.CN], model)
		reg.bySymbol[model.Symbol] = model
	}

	// Deterministic model order per coordination number.
	for cn := range reg.byCN {
		models := reg.byCN[cn]
		sort.Slice(models, func(i, j int) bool { return models[i].Symbol < models[j].Symbol })
	}
	return reg, nil
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry built from the embedded table.
// It panics if the embedded data is malformed, which is a build defect.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load()
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded geometry table invalid: %v", err))
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// ModelsForCN returns the candidate models for a coordination number,
// ordered lexically by symbol. It fails with ErrNoModelsForCN when the
// table has no entry for cn.
func (r *Registry) ModelsForCN(cn int) ([]Model, error) {
	models, ok := r.byCN[cn]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoModelsForCN, cn)
	}
	return models, nil
}

// Model looks up a single model by its symbol.
func (r *Registry) Model(symbol string) (Model, bool) {
	m, ok := r.bySymbol[symbol]
	return m, ok
}

// CoordinationNumbers returns the sorted coordination numbers present in
// the table.
func (r *Registry) CoordinationNumbers() []int {
	cns := make([]int, 0, len(r.byCN))
	for cn := range r.byCN {
		cns = append(cns, cn)
	}
	sort.Ints(cns)
	return cns
}
