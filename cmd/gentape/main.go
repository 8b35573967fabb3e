package main

import (
	"flag"
	"fmt"
	"log"

	"mfi-alm/internal/data"
)

func main() {
	var (
		dir           = flag.String("dir", "data", "Output directory for asset_tape.csv and policyholder_tape.csv")
		seed          = flag.Uint64("seed", 42, "Random seed")
		policyholders = flag.Int("policyholders", data.DefaultGeneratePolicyholders, "Number of policyholders")
		bonds         = flag.Int("bonds", data.DefaultGenerateBonds, "Number of bonds")
	)
	flag.Parse()

	assetPath, phPath, err := data.GenerateTapes(*dir, data.GenerateOptions{
		Seed:          *seed,
		Policyholders: *policyholders,
		Bonds:         *bonds,
	})
	if err != nil {
		log.Fatalf("Failed to generate tapes: %v", err)
	}

	fmt.Printf("Wrote %d bonds to %s\n", *bonds, assetPath)
	fmt.Printf("Wrote %d policyholders to %s\n", *policyholders, phPath)
}
