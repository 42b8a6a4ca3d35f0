package entity

import "time"

// Summary is the scalar reduction of one validation run.
// It is created once per run and never mutated afterwards.
type Summary struct {
	Timestamp     time.Time // when the summary was produced (UTC)
	Success       bool      // overall validator flag
	NExpectations int       // number of evaluated expectations
	NSuccess      int       // expectations that held
	NFailed       int       // NExpectations - NSuccess
	PercentValid  float64   // NSuccess / NExpectations × 100, or 100 when none ran
	ContentHash   string    // SHA-256 hex digest of the raw payload
}

// StoredDocument is the append-only record persisted for each validated run.
type StoredDocument struct {
	Summary
	RunID            string             // correlation id of the run
	ExpectationSuite string             // configured suite identifier
	FullResults      []ValidationResult // every expectation outcome
	StoredAt         time.Time          // persistence time (UTC)
	DemoData         bool               // true for generated demo rows
}
