package filesystem

// Observer records filesystem operation metrics. The implementation lives in
// the metrics package so that filesystem does not import it.
type Observer interface {
	// ObserveOperation records the total duration of an operation including
	// retries. operation is "stat" or "rename".
	ObserveOperation(operation string, durationSeconds float64)
	ObserveRetryAttempt(operation string)
	ObserveRetryFailure(operation string)
}

// defaultObserver is nil until SetObserver is called; recording is skipped
// while nil so tests need no setup.
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
