package runner

import (
	"context"

	"github.com/torosent/sessionswarm/internal/session"
)

// FailureLogger logs failed sessions.
type FailureLogger interface {
	LogFailure(id int, status session.Status, message string)
}

// loggingExecutor wraps an Executor with failure logging.
type loggingExecutor struct {
	inner  session.Executor
	logger FailureLogger
}

// WithLogging wraps an Executor to log failures.
func WithLogging(exec session.Executor, logger FailureLogger) session.Executor {
	if logger == nil {
		return exec
	}
	return &loggingExecutor{
		inner:  exec,
		logger: logger,
	}
}

func (l *loggingExecutor) Execute(ctx context.Context, item session.WorkItem) (session.Result, error) {
	res, err := l.inner.Execute(ctx, item)
	switch {
	case err != nil:
		l.logger.LogFailure(item.ID, session.StatusError, err.Error())
	case !res.Success:
		l.logger.LogFailure(item.ID, res.Status, res.Error)
	}
	return res, err
}
