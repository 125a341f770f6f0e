package runner

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/torosent/sessionswarm/internal/progress"
	"github.com/torosent/sessionswarm/internal/session"
)

// ErrInvalidConfiguration is returned by New when the options cannot describe a run.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Options configure the Runner.
type Options struct {
	Total          int                         // number of sessions to run (>= 1)
	MaxConcurrent  int                         // ceiling on in-flight sessions (>= 1, clamped to Total)
	RatePerSecond  int                         // session launch pacing (0 means unlimited)
	Executor       session.Executor            // session executor (required)
	Progress       progress.Notifier           // optional progress sink
	ProgressEvery  int                         // notification cadence (0 means progress.DefaultEvery)
	Observers      []Observer                  // notified once per finished session
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() error {
	var issues []string
	if o.Total < 1 {
		issues = append(issues, fmt.Sprintf("total must be >= 1, got %d", o.Total))
	}
	if o.MaxConcurrent < 1 {
		issues = append(issues, fmt.Sprintf("max concurrent must be >= 1, got %d", o.MaxConcurrent))
	}
	if o.RatePerSecond < 0 {
		issues = append(issues, fmt.Sprintf("rate must be >= 0, got %d", o.RatePerSecond))
	}
	if o.Executor == nil {
		issues = append(issues, "executor is required")
	}
	if len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(issues, "; "))
	}

	if o.MaxConcurrent > o.Total {
		o.MaxConcurrent = o.Total
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = progress.DefaultEvery
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst of one keeps launches evenly spaced.
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
	return nil
}
