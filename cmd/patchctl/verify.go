package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/correlator-io/patchkit/sqlvalue"
	"github.com/correlator-io/patchkit/validate"
)

// runVerify runs only the validator chain against a patch file, with no
// database access, per SPEC_FULL.md's ADDITIONAL COMPONENTS: useful in CI
// to lint patch files before shipping them.
func runVerify(args []string) error {
	fs := newFlagSet("verify")

	allowDDL := fs.Bool("allow-ddl", false, "permit DDL statements (CREATE/DROP/ALTER/TRUNCATE)")
	maxBytes := fs.Int64("max-bytes", 512_000, "maximum patch size in bytes")
	maxActions := fs.Int("max-actions", 200, "maximum number of actions")
	verifyHash := fs.Bool("verify-hash", true, "check metadata.sha256 against the patch bytes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("patchctl verify: missing patch file argument")
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("patchctl verify: read patch file: %w", err)
	}

	var patch sqlvalue.Patch
	if err := json.Unmarshal(raw, &patch); err != nil {
		pterm.Error.Printfln("parse error: %v", err)

		return fmt.Errorf("patchctl verify: %w", err)
	}

	chain := validate.DefaultChain(*maxBytes, *maxActions, *verifyHash, *allowDDL)

	res := chain.Validate(patch, raw)
	if res.Ok() {
		pterm.Success.Printfln("%s: valid", patch.ID)

		return nil
	}

	pterm.Error.Printfln("%s: %s (%s)", patch.ID, res.Message, res.Code)

	return fmt.Errorf("patchctl verify: validation failed: %s", res.Code)
}
