package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"qa-analytics/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Defect count distribution: uniform, weibull")
	out := flag.String("out", "./.cache/snapshot.json", "Output snapshot file (.json or .yaml)")
	count := flag.Int("count", 200, "Number of defect records to generate")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Seed:         *seed,
		Now:          time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *out)

	snap := engine.Generate(cfg)

	if err := engine.Save(context.Background(), *out, snap); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. %d defects, %d orders, %d wash recipes.\n", len(snap.Defects), len(snap.Orders), len(snap.WashRecipes))
}
