// Package session defines the unit of dispatch and the recorded outcome of one
// simulated client session.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxTitleLen caps the page title kept on a successful result.
	MaxTitleLen = 50
	// MaxErrorLen caps the error message kept on a failed result.
	MaxErrorLen = 200
)

// Status is either a numeric response code or StatusError.
type Status int

// StatusError marks a session that never produced a response code.
const StatusError Status = -1

func (s Status) String() string {
	if s == StatusError {
		return "Error"
	}
	return strconv.Itoa(int(s))
}

// Successful reports whether the status is a numeric code in [200, 400).
func (s Status) Successful() bool {
	return s >= 200 && s < 400
}

// MarshalText renders the status the same way it is keyed in reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// WorkItem identifies one logical session before it runs.
type WorkItem struct {
	ID int
}

// Result is the outcome of one executed session. Exactly one of
// (Title, FinalURL) or Error is populated, matching Success.
type Result struct {
	ID       int           `json:"id" yaml:"id"`
	Status   Status        `json:"status" yaml:"status"`
	Elapsed  time.Duration `json:"-" yaml:"-"`
	Success  bool          `json:"success" yaml:"success"`
	Title    string        `json:"title,omitempty" yaml:"title,omitempty"`
	FinalURL string        `json:"final_url,omitempty" yaml:"final_url,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// ElapsedSeconds returns the session wall-clock duration in seconds.
func (r Result) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// Succeeded builds the result for a session that received a response. A
// status outside [200, 400) is recorded as a failure carrying the status text.
func Succeeded(id int, status Status, elapsed time.Duration, title, finalURL string) Result {
	if !status.Successful() {
		return FailedWithStatus(id, status, elapsed, statusMessage(status))
	}
	return Result{
		ID:       id,
		Status:   status,
		Elapsed:  clampElapsed(elapsed),
		Success:  true,
		Title:    Truncate(strings.TrimSpace(title), MaxTitleLen),
		FinalURL: finalURL,
	}
}

// Failed builds the result for a session that could not complete.
func Failed(id int, elapsed time.Duration, err error) Result {
	msg := "Unknown error"
	if err != nil {
		msg = err.Error()
	}
	return FailedWithStatus(id, StatusError, elapsed, msg)
}

// FailedWithStatus builds a failing result with an explicit status.
func FailedWithStatus(id int, status Status, elapsed time.Duration, message string) Result {
	return Result{
		ID:      id,
		Status:  status,
		Elapsed: clampElapsed(elapsed),
		Error:   Truncate(message, MaxErrorLen),
	}
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func statusMessage(status Status) string {
	if status == StatusError {
		return "no response"
	}
	if text := http.StatusText(int(status)); text != "" {
		return fmt.Sprintf("HTTP %d %s", int(status), text)
	}
	return fmt.Sprintf("HTTP %d", int(status))
}

func clampElapsed(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// Executor performs one session against the target. Implementations release
// every per-session resource before returning. A returned error is converted
// into a failing Result by the caller.
type Executor interface {
	Execute(ctx context.Context, item WorkItem) (Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, item WorkItem) (Result, error)

func (f ExecutorFunc) Execute(ctx context.Context, item WorkItem) (Result, error) {
	return f(ctx, item)
}
