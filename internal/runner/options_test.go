package runner

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/time/rate"

	"github.com/torosent/sessionswarm/internal/progress"
	"github.com/torosent/sessionswarm/internal/session"
)

var noopExecutor = session.ExecutorFunc(func(ctx context.Context, item session.WorkItem) (session.Result, error) {
	return session.Succeeded(item.ID, 200, 0, "", ""), nil
})

func TestOptionsNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Options
		wantErr  bool
		validate func(*testing.T, Options)
	}{
		{
			name:  "defaults",
			input: Options{Total: 5, MaxConcurrent: 2, Executor: noopExecutor},
			validate: func(t *testing.T, o Options) {
				if o.MaxConcurrent != 2 {
					t.Errorf("MaxConcurrent = %d, want 2", o.MaxConcurrent)
				}
				if o.ProgressEvery != progress.DefaultEvery {
					t.Errorf("ProgressEvery = %d, want %d", o.ProgressEvery, progress.DefaultEvery)
				}
				if o.LimiterFactory == nil {
					t.Error("LimiterFactory should not be nil")
				}
			},
		},
		{
			name:  "concurrency clamped to total",
			input: Options{Total: 4, MaxConcurrent: 10, Executor: noopExecutor},
			validate: func(t *testing.T, o Options) {
				if o.MaxConcurrent != 4 {
					t.Errorf("MaxConcurrent = %d, want 4", o.MaxConcurrent)
				}
			},
		},
		{name: "zero total", input: Options{Total: 0, MaxConcurrent: 1, Executor: noopExecutor}, wantErr: true},
		{name: "zero concurrency", input: Options{Total: 3, MaxConcurrent: 0, Executor: noopExecutor}, wantErr: true},
		{name: "negative concurrency", input: Options{Total: 3, MaxConcurrent: -2, Executor: noopExecutor}, wantErr: true},
		{name: "negative rate", input: Options{Total: 3, MaxConcurrent: 1, RatePerSecond: -1, Executor: noopExecutor}, wantErr: true},
		{name: "missing executor", input: Options{Total: 3, MaxConcurrent: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.input
			err := opts.normalize()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.validate(t, opts)
		})
	}
}

func TestLimiterFactory(t *testing.T) {
	opts := Options{Total: 1, MaxConcurrent: 1, Executor: noopExecutor}
	if err := opts.normalize(); err != nil {
		t.Fatal(err)
	}

	limiter := opts.LimiterFactory(0)
	if limiter.Limit() != rate.Inf {
		t.Errorf("Limit(0) = %v, want Inf", limiter.Limit())
	}

	limiter = opts.LimiterFactory(50)
	if limiter.Limit() != rate.Limit(50) {
		t.Errorf("Limit(50) = %v, want 50", limiter.Limit())
	}
	if limiter.Burst() != 1 {
		t.Errorf("Burst(50) = %d, want 1", limiter.Burst())
	}
}
