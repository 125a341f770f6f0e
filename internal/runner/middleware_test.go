package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/torosent/sessionswarm/internal/session"
)

type recordingLogger struct {
	ids      []int
	statuses []session.Status
	messages []string
}

func (r *recordingLogger) LogFailure(id int, status session.Status, message string) {
	r.ids = append(r.ids, id)
	r.statuses = append(r.statuses, status)
	r.messages = append(r.messages, message)
}

func TestWithLoggingNilLoggerReturnsInner(t *testing.T) {
	wrapped := WithLogging(noopExecutor, nil)
	if _, ok := wrapped.(*loggingExecutor); ok {
		t.Fatal("expected inner executor to be returned unchanged")
	}
}

func TestWithLoggingReportsFailures(t *testing.T) {
	logger := &recordingLogger{}
	exec := session.ExecutorFunc(func(ctx context.Context, item session.WorkItem) (session.Result, error) {
		switch item.ID {
		case 1:
			return session.Succeeded(1, 200, 0, "ok", "https://example.com"), nil
		case 2:
			return session.Succeeded(2, 503, 0, "", ""), nil
		default:
			return session.Result{}, errors.New("net::ERR_CONNECTION_REFUSED")
		}
	})
	wrapped := WithLogging(exec, logger)
	for id := 1; id <= 3; id++ {
		_, _ = wrapped.Execute(context.Background(), session.WorkItem{ID: id})
	}

	if len(logger.ids) != 2 {
		t.Fatalf("expected 2 logged failures, got %d", len(logger.ids))
	}
	if logger.ids[0] != 2 || logger.statuses[0] != 503 {
		t.Errorf("first failure = id %d status %s", logger.ids[0], logger.statuses[0])
	}
	if logger.ids[1] != 3 || logger.statuses[1] != session.StatusError {
		t.Errorf("second failure = id %d status %s", logger.ids[1], logger.statuses[1])
	}
	if logger.messages[1] != "net::ERR_CONNECTION_REFUSED" {
		t.Errorf("unexpected message %q", logger.messages[1])
	}
}
