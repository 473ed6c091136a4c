package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/crystalkit/chemenv/pkg/chemenv"
	"github.com/crystalkit/chemenv/pkg/envstore"
	"github.com/crystalkit/chemenv/pkg/geom"
	"github.com/crystalkit/chemenv/pkg/strategies"
	"github.com/crystalkit/chemenv/pkg/structure"
)

// inputFile is the on-disk structure description: a 3x3 lattice matrix in
// row-vector convention plus fractional site coordinates.
type inputFile struct {
	Lattice [3][3]float64 `json:"lattice"`
	Sites   []struct {
		Species string     `json:"species"`
		Frac    [3]float64 `json:"frac"`
	} `json:"sites"`
}

func loadStructure(path string) (*structure.Structure, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in inputFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var rows [3]geom.Vec3
	for i, r := range in.Lattice {
		rows[i] = geom.Vec3{X: r[0], Y: r[1], Z: r[2]}
	}
	lat, err := structure.NewLattice(rows[0], rows[1], rows[2])
	if err != nil {
		return nil, err
	}

	species := make([]string, len(in.Sites))
	fracs := make([]geom.Vec3, len(in.Sites))
	for i, s := range in.Sites {
		species[i] = s.Species
		fracs[i] = geom.Vec3{X: s.Frac[0], Y: s.Frac[1], Z: s.Frac[2]}
	}
	return structure.NewStructure(lat, species, fracs)
}

func main() {
	input := flag.String("input", "", "Structure JSON file (lattice + fractional sites)")
	config := flag.String("config", "", "Optional engine options YAML file")
	output := flag.String("output", "", "Write the resolved assignment to this file (compressed)")
	strategyName := flag.String("strategy", "simplest", "Resolver: simplest or multiweights")
	distanceCutoff := flag.Float64("distance-cutoff", 1.4, "Simplest distance cutoff")
	angleCutoff := flag.Float64("angle-cutoff", 0.3, "Simplest angle cutoff")
	maxDistanceFactor := flag.Float64("max-distance-factor", 2.0, "Scanned distance factor cap")
	minAngleFactor := flag.Float64("min-angle-factor", 0.05, "Scanned angle factor floor")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = CPU count)")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *workers == 0 {
		*workers = runtime.NumCPU()
	}

	st, err := loadStructure(*input)
	if err != nil {
		log.Fatalf("Failed to load structure: %v", err)
	}
	fmt.Printf("🔬 Coordination environment analysis\n")
	fmt.Printf("   Sites:   %d\n", st.NumSites())
	fmt.Printf("   Workers: %d\n\n", *workers)

	opts := chemenv.DefaultOptions()
	if *config != "" {
		opts, err = chemenv.LoadOptions(*config)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	opts.MaximumDistanceFactor = *maxDistanceFactor
	opts.MinimumAngleFactor = *minAngleFactor
	opts.Workers = *workers

	start := time.Now()
	engine := chemenv.NewEngine(opts)
	envs, err := engine.ComputeEnvironments(context.Background(), st)
	if err != nil {
		log.Fatalf("Failed to compute environments: %v", err)
	}
	fmt.Printf("✅ Grid computed in %s (%d sites failed)\n",
		time.Since(start).Round(time.Millisecond), len(envs.FailedSites()))

	var strategy strategies.Strategy
	switch *strategyName {
	case "simplest":
		s := strategies.NewSimplest()
		s.DistanceCutoff = *distanceCutoff
		s.AngleCutoff = *angleCutoff
		strategy = s
	case "multiweights":
		strategy = strategies.NewMultiWeights()
	default:
		log.Fatalf("Unknown strategy: %s", *strategyName)
	}

	light, err := strategy.Resolve(envs)
	if err != nil {
		log.Fatalf("Failed to resolve environments: %v", err)
	}

	fmt.Printf("\n📊 Assignments (%s):\n", strategy.Name())
	for i, records := range light.Sites {
		if records == nil {
			fmt.Printf("   site %3d %-4s  (skipped)\n", i, st.Site(i).Species())
			continue
		}
		for _, rec := range records {
			fmt.Printf("   site %3d %-4s  %-6s fraction=%.3f csm=%.3f\n",
				i, st.Site(i).Species(), rec.Symbol, rec.Fraction, rec.CSM)
		}
	}

	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to create output: %v", err)
		}
		defer f.Close()
		if err := envstore.Encode(f, light); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("\n💾 Wrote %s\n", *output)
	}
}
