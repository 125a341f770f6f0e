package runner_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/torosent/sessionswarm/internal/progress"
	"github.com/torosent/sessionswarm/internal/runner"
	"github.com/torosent/sessionswarm/internal/session"
)

// fakeExecutor simulates a session with fixed latency and records the peak
// number of concurrently running sessions.
type fakeExecutor struct {
	latency  time.Duration
	calls    int64
	inflight int64
	peak     int64
	fail     func(id int) error
	status   session.Status
}

func (f *fakeExecutor) Execute(ctx context.Context, item session.WorkItem) (session.Result, error) {
	atomic.AddInt64(&f.calls, 1)
	current := atomic.AddInt64(&f.inflight, 1)
	defer atomic.AddInt64(&f.inflight, -1)
	for {
		peak := atomic.LoadInt64(&f.peak)
		if current <= peak || atomic.CompareAndSwapInt64(&f.peak, peak, current) {
			break
		}
	}

	start := time.Now()
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	if f.fail != nil {
		if err := f.fail(item.ID); err != nil {
			return session.Result{}, err
		}
	}
	status := f.status
	if status == 0 {
		status = 200
	}
	return session.Succeeded(item.ID, status, time.Since(start), "Example Domain", "https://example.com/"), nil
}

func mustRunner(t *testing.T, opts runner.Options) *runner.Runner {
	t.Helper()
	r, err := runner.New(opts)
	if err != nil {
		t.Fatalf("runner.New: %v", err)
	}
	return r
}

func assertCompleteIDs(t *testing.T, results []session.Result, total int) {
	t.Helper()
	if len(results) != total {
		t.Fatalf("expected %d results, got %d", total, len(results))
	}
	seen := make(map[int]bool, total)
	for _, res := range results {
		if res.ID < 1 || res.ID > total {
			t.Fatalf("result id %d out of range 1..%d", res.ID, total)
		}
		if seen[res.ID] {
			t.Fatalf("duplicate result id %d", res.ID)
		}
		seen[res.ID] = true
	}
}

func TestRunnerProducesEveryID(t *testing.T) {
	cases := []struct {
		total, concurrency int
	}{
		{1, 1},
		{7, 1},
		{25, 4},
		{30, 30},
		{50, 7},
	}
	for _, tc := range cases {
		exec := &fakeExecutor{latency: time.Millisecond}
		r := mustRunner(t, runner.Options{Total: tc.total, MaxConcurrent: tc.concurrency, Executor: exec})
		res := r.Run(context.Background())

		assertCompleteIDs(t, res.Sessions, tc.total)
		if res.Completed != tc.total {
			t.Fatalf("total=%d: tracker completed %d", tc.total, res.Completed)
		}
		if got := atomic.LoadInt64(&exec.calls); got != int64(tc.total) {
			t.Fatalf("total=%d: executor called %d times", tc.total, got)
		}
		if peak := atomic.LoadInt64(&exec.peak); peak > int64(tc.concurrency) {
			t.Fatalf("total=%d: peak concurrency %d exceeds %d", tc.total, peak, tc.concurrency)
		}
	}
}

func TestRunnerRespectsConcurrencyCeiling(t *testing.T) {
	exec := &fakeExecutor{latency: 5 * time.Millisecond}
	r := mustRunner(t, runner.Options{Total: 40, MaxConcurrent: 5, Executor: exec})
	r.Run(context.Background())

	peak := atomic.LoadInt64(&exec.peak)
	if peak > 5 {
		t.Fatalf("peak in-flight %d exceeds ceiling 5", peak)
	}
	if peak < 2 {
		t.Fatalf("expected overlapping sessions, peak was %d", peak)
	}
}

func TestRunnerClampsConcurrencyToTotal(t *testing.T) {
	exec := &fakeExecutor{latency: 5 * time.Millisecond}
	r := mustRunner(t, runner.Options{Total: 4, MaxConcurrent: 10, Executor: exec})
	if r.MaxConcurrent() != 4 {
		t.Fatalf("MaxConcurrent = %d, want 4", r.MaxConcurrent())
	}
	res := r.Run(context.Background())

	assertCompleteIDs(t, res.Sessions, 4)
	if peak := atomic.LoadInt64(&exec.peak); peak > 4 {
		t.Fatalf("peak in-flight %d exceeds 4", peak)
	}
}

func TestRunnerAllSucceed(t *testing.T) {
	exec := &fakeExecutor{latency: time.Millisecond}
	r := mustRunner(t, runner.Options{Total: 20, MaxConcurrent: 5, Executor: exec})
	res := r.Run(context.Background())

	if res.Failures != 0 {
		t.Fatalf("expected no failures, got %d", res.Failures)
	}
	for _, s := range res.Sessions {
		if !s.Success || s.Status != 200 {
			t.Fatalf("session %d: success=%v status=%s", s.ID, s.Success, s.Status)
		}
	}
	if res.Duration <= 0 {
		t.Fatalf("run duration not recorded")
	}
}

func TestRunnerIsolatesExecutorErrors(t *testing.T) {
	longMessage := strings.Repeat("x", 500)
	exec := &fakeExecutor{fail: func(id int) error {
		if id%3 == 0 {
			return errors.New(longMessage)
		}
		return nil
	}}
	r := mustRunner(t, runner.Options{Total: 30, MaxConcurrent: 4, Executor: exec})
	res := r.Run(context.Background())

	assertCompleteIDs(t, res.Sessions, 30)
	if res.Failures != 10 {
		t.Fatalf("expected 10 failures, got %d", res.Failures)
	}
	for _, s := range res.Sessions {
		if s.ID%3 != 0 {
			continue
		}
		if s.Success || s.Status != session.StatusError {
			t.Fatalf("session %d: expected error result, got %+v", s.ID, s)
		}
		if len(s.Error) != session.MaxErrorLen {
			t.Fatalf("session %d: error length %d, want %d", s.ID, len(s.Error), session.MaxErrorLen)
		}
		if s.Title != "" || s.FinalURL != "" {
			t.Fatalf("session %d: failure carries title/url", s.ID)
		}
	}
}

func TestRunnerRecoversExecutorPanic(t *testing.T) {
	exec := session.ExecutorFunc(func(ctx context.Context, item session.WorkItem) (session.Result, error) {
		if item.ID == 2 {
			panic("browser crashed")
		}
		return session.Succeeded(item.ID, 200, time.Millisecond, "ok", "https://example.com"), nil
	})
	r := mustRunner(t, runner.Options{Total: 3, MaxConcurrent: 3, Executor: exec})
	res := r.Run(context.Background())

	assertCompleteIDs(t, res.Sessions, 3)
	failed := res.Sessions[1]
	if failed.Success || !strings.Contains(failed.Error, "browser crashed") {
		t.Fatalf("expected panic captured as failure, got %+v", failed)
	}
	if res.Failures != 1 {
		t.Fatalf("expected 1 failure, got %d", res.Failures)
	}
}

func TestRunnerForcesWorkItemID(t *testing.T) {
	exec := session.ExecutorFunc(func(ctx context.Context, item session.WorkItem) (session.Result, error) {
		return session.Succeeded(999, 204, 0, "", ""), nil
	})
	r := mustRunner(t, runner.Options{Total: 5, MaxConcurrent: 2, Executor: exec})
	res := r.Run(context.Background())
	assertCompleteIDs(t, res.Sessions, 5)
}

func TestRunnerProgressNotifications(t *testing.T) {
	for _, concurrency := range []int{1, 25} {
		var mu sync.Mutex
		var updates []progress.Update
		exec := &fakeExecutor{}
		r := mustRunner(t, runner.Options{
			Total:         25,
			MaxConcurrent: concurrency,
			Executor:      exec,
			Progress: progress.NotifierFunc(func(u progress.Update) {
				mu.Lock()
				updates = append(updates, u)
				mu.Unlock()
			}),
		})
		res := r.Run(context.Background())

		if res.Completed != 25 {
			t.Fatalf("concurrency=%d: completed %d, want 25", concurrency, res.Completed)
		}
		want := []int{10, 20, 25}
		if len(updates) != len(want) {
			t.Fatalf("concurrency=%d: got %d updates, want %d", concurrency, len(updates), len(want))
		}
		for i, u := range updates {
			if u.Completed != want[i] || u.Total != 25 {
				t.Fatalf("concurrency=%d: update %d = %+v", concurrency, i, u)
			}
		}
	}
}

func TestRunnerObserversSeeEveryResult(t *testing.T) {
	var observed int64
	exec := &fakeExecutor{}
	r := mustRunner(t, runner.Options{
		Total:         15,
		MaxConcurrent: 3,
		Executor:      exec,
		Observers: []runner.Observer{runner.ObserverFunc(func(session.Result) {
			atomic.AddInt64(&observed, 1)
		})},
	})
	r.Run(context.Background())
	if observed != 15 {
		t.Fatalf("observer saw %d results, want 15", observed)
	}
}

func TestRunnerCancelledContextStillJoinsAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := session.ExecutorFunc(func(ctx context.Context, item session.WorkItem) (session.Result, error) {
		if err := ctx.Err(); err != nil {
			return session.Result{}, err
		}
		return session.Succeeded(item.ID, 200, 0, "", ""), nil
	})
	r := mustRunner(t, runner.Options{Total: 12, MaxConcurrent: 3, RatePerSecond: 1000, Executor: exec})
	res := r.Run(ctx)

	assertCompleteIDs(t, res.Sessions, 12)
	if res.Failures != 12 {
		t.Fatalf("expected all sessions to fail on cancelled context, got %d failures", res.Failures)
	}
}

func TestRunnerRatePacing(t *testing.T) {
	exec := &fakeExecutor{}
	r := mustRunner(t, runner.Options{Total: 6, MaxConcurrent: 6, RatePerSecond: 100, Executor: exec})
	start := time.Now()
	r.Run(context.Background())
	// Six launches at 100/s with burst 1 need at least five intervals.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("rate pacing not applied: %s", elapsed)
	}
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	_, err := runner.New(runner.Options{Total: 10, MaxConcurrent: 0, Executor: &fakeExecutor{}})
	if !errors.Is(err, runner.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}
