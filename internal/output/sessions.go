package output

import (
	"log/slog"
	"sync"

	"github.com/torosent/sessionswarm/internal/session"
)

const (
	verboseTitleLen = 40
	verboseErrorLen = 60
)

// SessionLogger logs the first Limit finished sessions. It is used as a
// runner observer and is safe for concurrent use.
type SessionLogger struct {
	logger *slog.Logger
	limit  int

	mu     sync.Mutex
	logged int
}

func NewSessionLogger(logger *slog.Logger, limit int) *SessionLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionLogger{logger: logger, limit: limit}
}

// Observe implements runner.Observer.
func (l *SessionLogger) Observe(res session.Result) {
	l.mu.Lock()
	if l.logged >= l.limit {
		l.mu.Unlock()
		return
	}
	l.logged++
	l.mu.Unlock()

	if res.Success {
		l.logger.Info("session finished",
			slog.Int("session", res.ID),
			slog.String("status", res.Status.String()),
			slog.Duration("elapsed", res.Elapsed),
			slog.String("title", session.Truncate(res.Title, verboseTitleLen)),
		)
		return
	}
	l.logger.Warn("session failed",
		slog.Int("session", res.ID),
		slog.String("status", res.Status.String()),
		slog.Duration("elapsed", res.Elapsed),
		slog.String("error", session.Truncate(res.Error, verboseErrorLen)),
	)
}

// Logged returns how many sessions have been written so far.
func (l *SessionLogger) Logged() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logged
}
