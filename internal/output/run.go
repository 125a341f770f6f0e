package output

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// RunInfo describes the run a report belongs to.
type RunInfo struct {
	ID            string    `json:"run_id" yaml:"run_id"`
	Target        string    `json:"target" yaml:"target"`
	Protocol      string    `json:"protocol" yaml:"protocol"`
	Total         int       `json:"total_sessions" yaml:"total_sessions"`
	MaxConcurrent int       `json:"max_concurrent" yaml:"max_concurrent"`
	RatePerSecond int       `json:"rate_per_sec,omitempty" yaml:"rate_per_sec,omitempty"`
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time `json:"finished_at" yaml:"finished_at"`
}

// NewRunID returns a fresh, time-sortable run identifier.
func NewRunID() string {
	return ulid.Make().String()
}
