// Package runner provides the bounded session dispatcher for sessionswarm.
//
// A [Runner] launches exactly Total sessions, ids 1..Total, and never lets more
// than MaxConcurrent of them be in flight at once. Run returns only after every
// session has produced a result; there is no partial-result path.
//
// # Basic Usage
//
//	r, err := runner.New(runner.Options{
//		Total:         100,
//		MaxConcurrent: 10,
//		Executor:      myExecutor,
//		Progress:      progress.NotifierFunc(func(u progress.Update) { ... }),
//	})
//	if err != nil {
//		// errors.Is(err, runner.ErrInvalidConfiguration)
//	}
//	res := r.Run(ctx)
//
// # Failure Isolation
//
// An error or panic raised by one executor call becomes a failing
// [session.Result] with status Error. It never aborts the run or other
// in-flight sessions.
//
// # Middleware
//
// [WithLogging] reports failed sessions to a [FailureLogger]. [Observer]
// values receive every result as soon as it is available, which is how the
// live metrics collector and verbose logging are fed.
package runner
