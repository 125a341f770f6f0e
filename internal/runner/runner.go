package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/torosent/sessionswarm/internal/progress"
	"github.com/torosent/sessionswarm/internal/session"
)

// Result captures the outcome of a complete run.
type Result struct {
	Sessions  []session.Result // one entry per work item, indexed by id-1
	Completed int              // tracker count at the end of the run
	Failures  int
	Duration  time.Duration // wall clock from first launch to last completion
}

// Observer is notified once for every finished session.
type Observer interface {
	Observe(session.Result)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(session.Result)

func (f ObserverFunc) Observe(r session.Result) { f(r) }

// Runner dispatches a fixed number of sessions under a concurrency ceiling.
type Runner struct {
	opt Options
}

// New validates opt and returns a Runner. Errors wrap ErrInvalidConfiguration.
func New(opt Options) (*Runner, error) {
	if err := opt.normalize(); err != nil {
		return nil, err
	}
	return &Runner{opt: opt}, nil
}

// MaxConcurrent returns the effective concurrency ceiling after clamping.
func (r *Runner) MaxConcurrent() int {
	return r.opt.MaxConcurrent
}

// Run executes every session and returns once all of them have finished.
// Cancelling ctx does not shorten the join: sessions that have not started
// yet still run and observe the cancelled context.
func (r *Runner) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	total := r.opt.Total
	tracker := progress.New(total, r.opt.ProgressEvery, r.opt.Progress)
	results := make([]session.Result, total)
	limiter := r.opt.LimiterFactory(r.opt.RatePerSecond)
	paced := r.opt.RatePerSecond > 0

	start := time.Now()
	items := make(chan session.WorkItem)

	// Scheduler: issues ids in order and paces launches; each send blocks
	// until one of the workers is free.
	go func() {
		defer close(items)
		for id := 1; id <= total; id++ {
			if paced {
				if err := limiter.Wait(ctx); err != nil {
					paced = false
				}
			}
			items <- session.WorkItem{ID: id}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.MaxConcurrent)
	for i := 0; i < r.opt.MaxConcurrent; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				res := r.execute(ctx, item)
				// Each slot is written by exactly one worker.
				results[item.ID-1] = res
				for _, obs := range r.opt.Observers {
					obs.Observe(res)
				}
				tracker.Increment()
			}
		}()
	}
	wg.Wait()

	failures := 0
	for _, res := range results {
		if !res.Success {
			failures++
		}
	}

	return Result{
		Sessions:  results,
		Completed: tracker.Completed(),
		Failures:  failures,
		Duration:  time.Since(start),
	}
}

// execute runs one session and converts errors and panics into a failing result.
func (r *Runner) execute(ctx context.Context, item session.WorkItem) (res session.Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = session.Failed(item.ID, time.Since(start), fmt.Errorf("session panic: %v", p))
		}
	}()

	res, err := r.opt.Executor.Execute(ctx, item)
	if err != nil {
		return session.Failed(item.ID, time.Since(start), err)
	}
	res.ID = item.ID
	if res.Elapsed <= 0 {
		res.Elapsed = time.Since(start)
	}
	return res
}
