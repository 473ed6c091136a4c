package csm

import (
	"errors"
	"math"
	"testing"

	"github.com/crystalkit/chemenv/pkg/catalog"
	"github.com/crystalkit/chemenv/pkg/geom"
)

func tetrahedralVectors(scale float64) []geom.Vec3 {
	return []geom.Vec3{
		{X: scale, Y: scale, Z: scale},
		{X: scale, Y: -scale, Z: -scale},
		{X: -scale, Y: scale, Z: -scale},
		{X: -scale, Y: -scale, Z: scale},
	}
}

func octahedralVectors(scale float64) []geom.Vec3 {
	return []geom.Vec3{
		{X: scale}, {X: -scale},
		{Y: scale}, {Y: -scale},
		{Z: scale}, {Z: -scale},
	}
}

func newTestSolver(t *testing.T, opts Options) *Solver {
	t.Helper()
	return NewSolver(catalog.Default(), opts)
}

func TestPerfectTetrahedron(t *testing.T) {
	s := newTestSolver(t, Options{})
	results, err := s.MeasureAll(tetrahedralVectors(2.2))
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Expected results for CN 4")
	}

	best := results[0]
	if best.Symbol != "T:4" {
		t.Errorf("Best model: got %s, want T:4", best.Symbol)
	}
	if best.CSM > 1e-8 {
		t.Errorf("Tetrahedral csm: got %v, want ~0", best.CSM)
	}
	if best.Approximate {
		t.Error("CN 4 must use the exact search")
	}
	if len(best.Permutation) != 4 {
		t.Errorf("Permutation length: got %d", len(best.Permutation))
	}

	// The square plane is far from a tetrahedron.
	for _, r := range results[1:] {
		if r.Symbol == "S:4" && r.CSM < 10 {
			t.Errorf("Square-planar csm for a tetrahedron suspiciously low: %v", r.CSM)
		}
	}
}

// Two neighbors nearly opposite each other must score linear well before
// angular; the frame is anchored at the central site, so the bend angle
// is observable.
func TestNearCollinearPairPrefersLinear(t *testing.T) {
	s := newTestSolver(t, Options{})
	theta := 170.0 * math.Pi / 180
	results, err := s.MeasureAll([]geom.Vec3{
		{Z: 1},
		{X: math.Sin(theta), Z: math.Cos(theta)},
	})
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	if results[0].Symbol != "L:2" {
		t.Fatalf("Best model: got %s, want L:2", results[0].Symbol)
	}
	var linear, angular float64
	for _, r := range results {
		switch r.Symbol {
		case "L:2":
			linear = r.CSM
		case "A:2":
			angular = r.CSM
		}
	}
	if linear >= angular {
		t.Errorf("L:2 csm %v not below A:2 csm %v", linear, angular)
	}
	if angular < 1 {
		t.Errorf("A:2 csm for a near-linear pair suspiciously low: %v", angular)
	}
}

func TestRotationAndScaleInvariance(t *testing.T) {
	s := newTestSolver(t, Options{})

	// Rotate the tetrahedron by an arbitrary angle about an arbitrary
	// axis and stretch it uniformly; the csm must stay at zero.
	angle := 0.7
	cos, sin := math.Cos(angle), math.Sin(angle)
	rot := geom.Mat3{
		{cos, -sin, 0},
		{sin, cos, 0},
		{0, 0, 1},
	}
	vecs := tetrahedralVectors(1.0)
	for i := range vecs {
		vecs[i] = rot.MulVec(vecs[i]).Scale(3.7)
	}

	results, err := s.MeasureAll(vecs)
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	if results[0].Symbol != "T:4" || results[0].CSM > 1e-8 {
		t.Errorf("Rotated+scaled tetrahedron: got %s csm=%v", results[0].Symbol, results[0].CSM)
	}
}

func TestPerfectOctahedron(t *testing.T) {
	s := newTestSolver(t, Options{})
	results, err := s.MeasureAll(octahedralVectors(1.9))
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	if results[0].Symbol != "O:6" {
		t.Errorf("Best model: got %s, want O:6", results[0].Symbol)
	}
	if results[0].CSM > 1e-8 {
		t.Errorf("Octahedral csm: got %v, want ~0", results[0].CSM)
	}
	// Ascending csm ordering.
	for i := 1; i < len(results); i++ {
		if results[i-1].CSM > results[i].CSM {
			t.Errorf("Results not sorted by csm: %v before %v", results[i-1].CSM, results[i].CSM)
		}
	}
}

func TestCSMBounds(t *testing.T) {
	s := newTestSolver(t, Options{})

	// A deliberately awkward arrangement still yields a csm in range.
	vecs := []geom.Vec3{
		{X: 1.0, Y: 0.1, Z: 0},
		{X: 1.1, Y: -0.1, Z: 0.05},
		{X: 0.9, Y: 0, Z: -0.1},
		{X: 1.05, Y: 0.05, Z: 0.1},
	}
	results, err := s.MeasureAll(vecs)
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	for _, r := range results {
		if r.CSM < 0 || r.CSM > 100 {
			t.Errorf("%s: csm %v outside [0,100]", r.Symbol, r.CSM)
		}
	}
}

func TestPermutationIndependence(t *testing.T) {
	s := newTestSolver(t, Options{})
	vecs := tetrahedralVectors(1.5)
	shuffled := []geom.Vec3{vecs[2], vecs[0], vecs[3], vecs[1]}

	a, err := s.MeasureAll(vecs)
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	b, err := s.MeasureAll(shuffled)
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	for i := range a {
		if a[i].Symbol != b[i].Symbol {
			t.Fatalf("Ordering differs after shuffling input: %s vs %s", a[i].Symbol, b[i].Symbol)
		}
		if math.Abs(a[i].CSM-b[i].CSM) > 1e-8 {
			t.Errorf("%s: csm differs after shuffling: %v vs %v", a[i].Symbol, a[i].CSM, b[i].CSM)
		}
	}
}

func TestSingleNeighbor(t *testing.T) {
	s := newTestSolver(t, Options{})
	results, err := s.MeasureAll([]geom.Vec3{{X: 0, Y: 0, Z: 2.1}})
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	if results[0].Symbol != "S:1" || results[0].CSM != 0 {
		t.Errorf("Single neighbor: got %s csm=%v", results[0].Symbol, results[0].CSM)
	}
}

func TestUnsupportedCoordinationNumber(t *testing.T) {
	s := newTestSolver(t, Options{})
	vecs := make([]geom.Vec3, 10)
	for i := range vecs {
		vecs[i] = geom.Vec3{X: float64(i + 1)}
	}
	if _, err := s.MeasureAll(vecs); !errors.Is(err, ErrUnsupportedCoordinationNumber) {
		t.Errorf("Expected ErrUnsupportedCoordinationNumber, got %v", err)
	}
}

func TestHeuristicSearchFlagsApproximate(t *testing.T) {
	s := newTestSolver(t, Options{ExactPermutationLimit: 6})

	cube, ok := catalog.Default().Model("C:8")
	if !ok {
		t.Fatal("C:8 missing from catalog")
	}
	vecs := make([]geom.Vec3, len(cube.Points))
	for i, p := range cube.Points {
		vecs[i] = p.Scale(2.4)
	}

	results, err := s.MeasureAll(vecs)
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	best := results[0]
	if !best.Approximate {
		t.Error("CN 8 above the exact limit must be flagged approximate")
	}
	if best.Symbol != "C:8" {
		t.Errorf("Best model: got %s, want C:8", best.Symbol)
	}
	if best.CSM > 1e-6 {
		t.Errorf("Perfect cube heuristic csm: got %v, want ~0", best.CSM)
	}
}

func TestExactLimitIsTunable(t *testing.T) {
	s := newTestSolver(t, Options{ExactPermutationLimit: 8})
	cube, _ := catalog.Default().Model("C:8")
	vecs := make([]geom.Vec3, len(cube.Points))
	for i, p := range cube.Points {
		vecs[i] = p.Scale(1.3)
	}
	results, err := s.MeasureAll(vecs)
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	if results[0].Approximate {
		t.Error("CN at the exact limit must not be approximate")
	}
	if results[0].CSM > 1e-8 {
		t.Errorf("Exact cube csm: got %v", results[0].CSM)
	}
}

func TestNextPermutationOrder(t *testing.T) {
	perm := []int{0, 1, 2}
	var seen [][3]int
	for {
		seen = append(seen, [3]int{perm[0], perm[1], perm[2]})
		if !nextPermutation(perm) {
			break
		}
	}
	want := [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	if len(seen) != len(want) {
		t.Fatalf("Expected %d permutations, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("Permutation %d: got %v, want %v", i, seen[i], want[i])
		}
	}
}
