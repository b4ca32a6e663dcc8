package patchkit

import (
	"time"

	"github.com/correlator-io/patchkit/internal/config"
	"github.com/correlator-io/patchkit/ledger"
)

// Default values for PatchKitConfig, per spec §6.
const (
	DefaultMaxBytes            int64 = 512_000
	DefaultMaxActions                = 200
	DefaultPerActionTimeout          = 10 * time.Second
	DefaultTotalTimeout              = 60 * time.Second
	DefaultAllowDDL                  = false
	DefaultVerifyHash                = true
	DefaultChecksInReadTx            = false
)

// Config is PatchKitConfig (spec §6): the policy knobs that govern a
// PatchKit instance's validator chain, executor timeouts, and idempotency
// gate.
type Config struct {
	AllowDDL          bool
	MaxBytes          int64
	MaxActions        int
	PerActionTimeout  time.Duration
	TotalTimeout      time.Duration
	VerifyHash        bool
	ChecksInReadTx    bool

	// Idempotency is the idempotency gate consulted by Apply. A nil value
	// disables idempotency entirely, per spec §6.
	Idempotency ledger.Manager
}

// DefaultConfig returns the spec §6 defaults with the default SQLite-table
// backed Ledger wired in as the idempotency gate.
func DefaultConfig() Config {
	return Config{
		AllowDDL:         DefaultAllowDDL,
		MaxBytes:         DefaultMaxBytes,
		MaxActions:       DefaultMaxActions,
		PerActionTimeout: DefaultPerActionTimeout,
		TotalTimeout:     DefaultTotalTimeout,
		VerifyHash:       DefaultVerifyHash,
		ChecksInReadTx:   DefaultChecksInReadTx,
		Idempotency:      ledger.New(),
	}
}

// FromEnv builds a Config by overlaying environment variables onto
// DefaultConfig, using the same getter helpers the teacher's
// internal/config package exposes. This is a convenience for embedders
// that wire PatchKit from process environment, such as cmd/patchctl;
// library callers may always build Config as a plain struct literal.
func FromEnv() Config {
	cfg := DefaultConfig()

	cfg.AllowDDL = config.GetEnvBool("PATCHKIT_ALLOW_DDL", cfg.AllowDDL)
	cfg.MaxBytes = config.GetEnvInt64("PATCHKIT_MAX_BYTES", cfg.MaxBytes)
	cfg.MaxActions = config.GetEnvInt("PATCHKIT_MAX_ACTIONS", cfg.MaxActions)
	cfg.PerActionTimeout = config.GetEnvDuration("PATCHKIT_PER_ACTION_TIMEOUT", cfg.PerActionTimeout)
	cfg.TotalTimeout = config.GetEnvDuration("PATCHKIT_TOTAL_TIMEOUT", cfg.TotalTimeout)
	cfg.VerifyHash = config.GetEnvBool("PATCHKIT_VERIFY_HASH", cfg.VerifyHash)
	cfg.ChecksInReadTx = config.GetEnvBool("PATCHKIT_CHECKS_IN_READ_TX", cfg.ChecksInReadTx)

	return cfg
}
