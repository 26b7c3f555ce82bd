package filesystem

// Observer records filesystem operation metrics. The metrics package provides
// the implementation, which keeps this package free of Prometheus imports.
type Observer interface {
	// ObserveOperation records duration and error status for one attempt.
	// volume is the resolved mount label ("media", "cache", "database").
	// operation is "stat", "open" or "readdir".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is skipped (tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
