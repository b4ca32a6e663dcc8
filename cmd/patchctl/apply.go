package main

import (
	"context"
	"fmt"
	"os"

	"github.com/correlator-io/patchkit"
	"github.com/correlator-io/patchkit/engine"
)

func runApply(args []string) error {
	fs := newFlagSet("apply")

	target := fs.String("target", "default", "target name looked up in the patch's \"target\" field")
	dsn := fs.String("db", "", "path to the SQLite database file (required)")
	configPath := fs.String("config", "", "optional YAML file of PatchKitConfig overrides")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("patchctl apply: missing patch file argument")
	}

	if *dsn == "" {
		return fmt.Errorf("patchctl apply: -db is required")
	}

	patchPath := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	eng, db, err := engine.Open(*dsn)
	if err != nil {
		return fmt.Errorf("patchctl apply: open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	raw, err := os.ReadFile(patchPath)
	if err != nil {
		return fmt.Errorf("patchctl apply: read patch file %s: %w", patchPath, err)
	}

	registry := patchkit.Registry{
		*target: func() (patchkit.Engine, error) { return eng, nil },
	}

	pk := patchkit.New(registry, cfg, patchkit.WithLogger(newLogger()))

	rep := pk.Apply(context.Background(), raw)

	printReport(rep)

	if !rep.Success() {
		return fmt.Errorf("patchctl apply: patch %s did not succeed", rep.PatchID)
	}

	return nil
}
