package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/priyanka/formpilot/backend/internal/generator"
	"github.com/priyanka/formpilot/backend/internal/repository"
	"github.com/priyanka/formpilot/backend/internal/store"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		addresses   = flag.Int("addresses", cfg.NumAddresses, "number of address entries to generate")
		employments = flag.Int("employments", cfg.NumEmployments, "number of employment entries to generate")
		educations  = flag.Int("educations", cfg.NumEducations, "number of education entries to generate")
		forms       = flag.Int("forms", cfg.NumForms, "number of demo forms to generate")
		seed        = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir   = flag.String("output-dir", "data", "directory to write profile.json and demo forms")
		storePath   = flag.String("store", "", "sqlite database to seed directly instead of writing files")
		writeStdout = flag.Bool("stdout", false, "write combined dataset to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumAddresses:   *addresses,
		NumEmployments: *employments,
		NumEducations:  *educations,
		NumForms:       *forms,
		Seed:           *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *storePath != "" {
		if err := seedStore(ctx, *storePath, dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed store: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "Seeded profile into %s\n", *storePath)
		return
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated profile and %d demo forms into %s\n", len(dataset.Forms), *outputDir)
}

func seedStore(ctx context.Context, path string, dataset generator.Dataset) error {
	st, err := store.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer st.Close()

	repo := repository.New(st)
	return repo.SaveProfile(ctx, dataset.Profile)
}
