package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/time/rate"

	"github.com/correlator-io/patchkit"
	"github.com/correlator-io/patchkit/engine"
)

// runApplyDir walks a directory of patch files and applies them
// sequentially against one database, rate-limiting successive Apply calls.
// Sequential, rate-limited application (not parallel) is intentional, per
// SPEC_FULL.md's Non-goals note: this command never runs two patches
// against the same database concurrently.
func runApplyDir(args []string) error {
	fs := newFlagSet("apply-dir")

	target := fs.String("target", "default", "target name looked up in each patch's \"target\" field")
	dsn := fs.String("db", "", "path to the SQLite database file (required)")
	configPath := fs.String("config", "", "optional YAML file of PatchKitConfig overrides")
	rps := fs.Float64("rate", 5, "maximum patches applied per second")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("patchctl apply-dir: missing directory argument")
	}

	if *dsn == "" {
		return fmt.Errorf("patchctl apply-dir: -db is required")
	}

	dir := fs.Arg(0)

	files, err := patchFilesIn(dir)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	eng, db, err := engine.Open(*dsn)
	if err != nil {
		return fmt.Errorf("patchctl apply-dir: open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	registry := patchkit.Registry{
		*target: func() (patchkit.Engine, error) { return eng, nil },
	}

	pk := patchkit.New(registry, cfg, patchkit.WithLogger(newLogger()))

	limiter := rate.NewLimiter(rate.Limit(*rps), 1)
	ctx := context.Background()

	failures := 0

	for _, path := range files {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("patchctl apply-dir: rate limiter: %w", err)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("patchctl apply-dir: read %s: %w", path, err)
		}

		rep := pk.Apply(ctx, raw)

		pterm.Info.Printfln("applying %s", filepath.Base(path))
		printReport(rep)

		if !rep.Success() {
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("patchctl apply-dir: %d of %d patches did not succeed", failures, len(files))
	}

	return nil
}

// patchFilesIn lists *.json files directly under dir, in lexical order, so
// apply-dir's run order is deterministic and caller-controlled via naming.
func patchFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("patchctl apply-dir: read dir %s: %w", dir, err)
	}

	var files []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		files = append(files, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(files)

	return files, nil
}
