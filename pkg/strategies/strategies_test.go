package strategies

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/crystalkit/chemenv/pkg/chemenv"
	"github.com/crystalkit/chemenv/pkg/geom"
	"github.com/crystalkit/chemenv/pkg/structure"
)

// moleculeInBox builds a structure with one central site and its
// neighbors at the given cartesian offsets, isolated in a large cell so
// the periodic images stay outside the scanned cutoff domain.
func moleculeInBox(t *testing.T, central string, neighbor string, offsets []geom.Vec3) *structure.Structure {
	t.Helper()
	const a = 12.0
	lat := structure.NewCubicLattice(a)
	species := []string{central}
	fracs := []geom.Vec3{{X: 0.5, Y: 0.5, Z: 0.5}}
	for _, off := range offsets {
		species = append(species, neighbor)
		fracs = append(fracs, geom.Vec3{
			X: 0.5 + off.X/a,
			Y: 0.5 + off.Y/a,
			Z: 0.5 + off.Z/a,
		})
	}
	st, err := structure.NewStructure(lat, species, fracs)
	if err != nil {
		t.Fatalf("NewStructure: %v", err)
	}
	return st
}

func tetrahedralOffsets(r float64) []geom.Vec3 {
	s := r / math.Sqrt(3)
	return []geom.Vec3{
		{X: s, Y: s, Z: s},
		{X: s, Y: -s, Z: -s},
		{X: -s, Y: s, Z: -s},
		{X: -s, Y: -s, Z: s},
	}
}

func nearCollinearOffsets(r float64) []geom.Vec3 {
	theta := 170.0 * math.Pi / 180
	return []geom.Vec3{
		{Z: r},
		{X: r * math.Sin(theta), Z: r * math.Cos(theta)},
	}
}

func computeEnvs(t *testing.T, st *structure.Structure) *chemenv.StructureEnvironments {
	t.Helper()
	engine := chemenv.NewEngine(chemenv.DefaultOptions())
	envs, err := engine.ComputeEnvironments(context.Background(), st)
	if err != nil {
		t.Fatalf("ComputeEnvironments: %v", err)
	}
	return envs
}

func TestSimplestTetrahedron(t *testing.T) {
	st := moleculeInBox(t, "Si", "H", tetrahedralOffsets(1.6))
	envs := computeEnvs(t, st)

	light, err := NewSimplest().Resolve(envs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	records := light.Sites[0]
	if len(records) != 1 {
		t.Fatalf("central site records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Symbol != "T:4" {
		t.Errorf("symbol = %s, want T:4", rec.Symbol)
	}
	if rec.Fraction != 1.0 {
		t.Errorf("fraction = %v, want 1.0", rec.Fraction)
	}
	if rec.CSM > 1e-6 {
		t.Errorf("csm = %v, want ~0", rec.CSM)
	}
	if len(rec.Permutation) != 4 {
		t.Errorf("permutation length = %d, want 4", len(rec.Permutation))
	}
}

func TestSimplestIdempotent(t *testing.T) {
	st := moleculeInBox(t, "Si", "H", tetrahedralOffsets(1.6))
	envs := computeEnvs(t, st)

	s := NewSimplest()
	a, err := s.Resolve(envs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, err := s.Resolve(envs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical grid and cutoffs produced different assignments")
	}
}

func TestSimplestCutoffOutOfRange(t *testing.T) {
	st := moleculeInBox(t, "Si", "H", tetrahedralOffsets(1.6))
	envs := computeEnvs(t, st)

	s := NewSimplest()
	s.DistanceCutoff = 3.0 // grid is scanned up to 2.0
	if _, err := s.Resolve(envs); !errors.Is(err, ErrCutoffOutOfRange) {
		t.Fatalf("error = %v, want ErrCutoffOutOfRange", err)
	}
}

func TestSimplestInvalidCutoffs(t *testing.T) {
	s := Simplest{DistanceCutoff: 0.9, AngleCutoff: 0.3}
	if err := s.Validate(); err == nil {
		t.Fatal("expected validation error for distance cutoff <= 1")
	}
}

// Two neighbors bent by 170 degrees: the cutoff point selects the only
// neighbor set, so Simplest commits to the single best model while
// MultiWeights keeps both the linear and the angular reading alive.
func TestNearCollinearPair(t *testing.T) {
	st := moleculeInBox(t, "Cu", "O", nearCollinearOffsets(1.8))
	envs := computeEnvs(t, st)

	simple, err := NewSimplest().Resolve(envs)
	if err != nil {
		t.Fatalf("Simplest.Resolve: %v", err)
	}
	if len(simple.Sites[0]) != 1 {
		t.Fatalf("Simplest records = %d, want 1", len(simple.Sites[0]))
	}
	if simple.Sites[0][0].Symbol != "L:2" {
		t.Errorf("Simplest symbol = %s, want L:2", simple.Sites[0][0].Symbol)
	}

	multi, err := NewMultiWeights().Resolve(envs)
	if err != nil {
		t.Fatalf("MultiWeights.Resolve: %v", err)
	}
	records := multi.Sites[0]
	if len(records) < 2 {
		t.Fatalf("MultiWeights records = %d, want >= 2", len(records))
	}

	symbols := map[string]bool{}
	var sum float64
	for k, rec := range records {
		symbols[rec.Symbol] = true
		sum += rec.Fraction
		if k > 0 {
			prev := records[k-1]
			if rec.Fraction > prev.Fraction {
				t.Errorf("fractions not descending: %v after %v", rec.Fraction, prev.Fraction)
			}
			// Within one neighbor set the fraction ordering must agree
			// with the csm ordering.
			if rec.CSM < prev.CSM {
				t.Errorf("csm ordering inverted: %v after %v", rec.CSM, prev.CSM)
			}
		}
	}
	if !symbols["L:2"] || !symbols["A:2"] {
		t.Errorf("symbols = %v, want both L:2 and A:2", symbols)
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("fractions sum to %v, want 1.0", sum)
	}
	if records[0].Symbol != "L:2" {
		t.Errorf("dominant symbol = %s, want L:2", records[0].Symbol)
	}
}

func TestMultiWeightsTetrahedronDominant(t *testing.T) {
	st := moleculeInBox(t, "Si", "H", tetrahedralOffsets(1.6))
	envs := computeEnvs(t, st)

	light, err := NewMultiWeights().Resolve(envs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	records := light.Sites[0]
	if len(records) == 0 {
		t.Fatal("no records for central site")
	}
	if records[0].Symbol != "T:4" {
		t.Errorf("dominant symbol = %s, want T:4", records[0].Symbol)
	}
	if len(records) > NewMultiWeights().MaxEnvironments {
		t.Errorf("records = %d, exceeds MaxEnvironments", len(records))
	}
}

func TestMultiWeightsInvalidOptions(t *testing.T) {
	m := NewMultiWeights()
	m.CSMDecay = 0
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for zero decay")
	}
	m = NewMultiWeights()
	m.MaxEnvironments = 0
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for zero environment cap")
	}
}

func rockSaltEnvs(t *testing.T) *chemenv.StructureEnvironments {
	t.Helper()
	lat := structure.NewCubicLattice(5.64)
	st, err := structure.NewStructure(lat,
		[]string{"Na", "Na", "Na", "Na", "Cl", "Cl", "Cl", "Cl"},
		[]geom.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 0.5, Y: 0.5, Z: 0}, {X: 0.5, Y: 0, Z: 0.5}, {X: 0, Y: 0.5, Z: 0.5},
			{X: 0.5, Y: 0, Z: 0}, {X: 0, Y: 0.5, Z: 0}, {X: 0, Y: 0, Z: 0.5}, {X: 0.5, Y: 0.5, Z: 0.5},
		})
	if err != nil {
		t.Fatalf("NewStructure: %v", err)
	}
	return computeEnvs(t, st)
}

// Whatever the weighting configuration, per-site fractions must sum
// to 1.
func TestMultiWeightsFractionsSumProperty(t *testing.T) {
	envs := rockSaltEnvs(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	properties.Property("fractions sum to one per site", prop.ForAll(
		func(decay, deltaDecay, threshold float64, maxEnvs int) bool {
			m := MultiWeights{
				CSMDecay:          decay,
				DeltaCSMDecay:     deltaDecay,
				FractionThreshold: threshold,
				MaxEnvironments:   maxEnvs,
			}
			light, err := m.Resolve(envs)
			if err != nil {
				return false
			}
			for _, records := range light.Sites {
				if records == nil {
					continue
				}
				var sum float64
				for _, rec := range records {
					sum += rec.Fraction
				}
				if math.Abs(sum-1.0) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0.5, 20),
		gen.Float64Range(0.5, 20),
		gen.Float64Range(0, 0.3),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}
