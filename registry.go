package patchkit

import (
	"github.com/correlator-io/patchkit/engine"
	"github.com/correlator-io/patchkit/report"
)

// Engine, Provider, and Registry re-export the engine package's types so
// callers implementing an Engine only need to import the root package.
type (
	Engine   = engine.Engine
	Provider = engine.Provider
	Registry = engine.Registry
)

// Event and Report re-export the report package's types for callers that
// only want to read Apply's output.
type (
	Event  = report.Event
	Report = report.Report
)
