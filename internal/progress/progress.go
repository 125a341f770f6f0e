// Package progress counts completed sessions and emits periodic notifications.
package progress

import "sync"

// DefaultEvery is the notification cadence used when none is configured.
const DefaultEvery = 10

// Update is a snapshot of run progress.
type Update struct {
	Completed int
	Total     int
}

// Percent returns the completed share in the range [0, 100].
func (u Update) Percent() float64 {
	if u.Total <= 0 {
		return 0
	}
	return float64(u.Completed) / float64(u.Total) * 100
}

// Done reports whether every session has completed.
func (u Update) Done() bool {
	return u.Total > 0 && u.Completed >= u.Total
}

// Notifier receives progress updates.
type Notifier interface {
	Progress(Update)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Update)

func (f NotifierFunc) Progress(u Update) { f(u) }

// Tracker is a concurrency-safe completion counter. Notifications are sent
// while the counter lock is held, so they arrive in order and each progress
// value is reported at most once.
type Tracker struct {
	mu        sync.Mutex
	completed int
	total     int
	every     int
	notifier  Notifier
}

// New creates a Tracker for total sessions. every <= 0 selects DefaultEvery.
// A nil notifier disables notifications.
func New(total, every int, notifier Notifier) *Tracker {
	if every <= 0 {
		every = DefaultEvery
	}
	return &Tracker{total: total, every: every, notifier: notifier}
}

// Increment records one completed session.
func (t *Tracker) Increment() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed >= t.total {
		return
	}
	t.completed++
	if t.notifier == nil {
		return
	}
	if t.completed%t.every == 0 || t.completed == t.total {
		t.notifier.Progress(Update{Completed: t.completed, Total: t.total})
	}
}

// Completed returns the number of recorded sessions.
func (t *Tracker) Completed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

func (t *Tracker) Total() int {
	return t.total
}
