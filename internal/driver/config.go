// Package driver exercises a running vote sheet over HTTP: it submits a
// seeded stream of cell edits, then recomputes the rankings locally and
// checks them against what the service reports.
package driver

import "time"

// Config holds configuration for a drive run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Edits      int           // Number of cell edits to submit
	Workers    int           // Number of concurrent workers
	Seed       int64         // Seed for the edit generator
	MaxValue   int           // Largest well-formed vote value generated
	Reset      bool          // Reset the sheet before editing
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Optional JSON file for the generated edits
	Verbose    bool          // Log every failed edit
}

// Edit is one cell write as sent to PUT /votes. Value is deliberately loose:
// numbers, numeric strings, junk and null all occur.
type Edit struct {
	Candidate int `json:"candidate"`
	Category  int `json:"category"`
	Value     any `json:"value"`
}

// Stats holds run statistics.
type Stats struct {
	EditsGenerated  int
	EditsSubmitted  int
	EditsSuccessful int
	EditsFailed     int
	Coerced         int
	Mismatched      int
	Revision        uint64
	TopScore        float64
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
