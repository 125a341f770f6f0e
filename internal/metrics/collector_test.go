package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/torosent/sessionswarm/internal/session"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector()
	c.Start()
	c.Observe(session.Succeeded(1, 200, 10*time.Millisecond, "a", "b"))
	c.Observe(session.Succeeded(2, 200, 30*time.Millisecond, "a", "b"))
	c.Observe(session.Failed(3, 20*time.Millisecond, errors.New("boom")))

	snap := c.Snapshot()
	if snap.Completed != 3 || snap.Successes != 2 || snap.Failures != 1 {
		t.Fatalf("unexpected counts: %+v", snap)
	}
	if snap.MinLatency != 10*time.Millisecond || snap.MaxLatency != 30*time.Millisecond {
		t.Fatalf("min/max = %s/%s", snap.MinLatency, snap.MaxLatency)
	}
	if snap.MeanLatency != 20*time.Millisecond {
		t.Fatalf("mean = %s", snap.MeanLatency)
	}
	if snap.P99Latency < 29*time.Millisecond || snap.P99Latency > 31*time.Millisecond {
		t.Fatalf("p99 = %s", snap.P99Latency)
	}
	if len(snap.StatusCodes) != 2 || snap.StatusCodes[0].Status != "200" || snap.StatusCodes[1].Status != "Error" {
		t.Fatalf("status codes = %+v", snap.StatusCodes)
	}
}

func TestCollectorConcurrentObserve(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Observe(session.Succeeded(w*100+i+1, 200, time.Millisecond, "", ""))
			}
		}(w)
	}
	wg.Wait()
	if snap := c.Snapshot(); snap.Completed != 800 {
		t.Fatalf("completed = %d, want 800", snap.Completed)
	}
}

func TestSortStatusCounts(t *testing.T) {
	rows := SortStatusCounts(map[string]int{"Error": 1, "500": 2, "200": 5})
	if len(rows) != 3 || rows[0].Status != "200" || rows[1].Status != "500" || rows[2].Status != "Error" {
		t.Fatalf("unexpected order %+v", rows)
	}
	if share := rows[0].Share(10); share != 50 {
		t.Fatalf("share = %v", share)
	}
	if SortStatusCounts(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
