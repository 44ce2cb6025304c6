package ports

import "time"

// MetricsCollector records prediction service metrics
type MetricsCollector interface {
	// ObservePrediction records one finished prediction with its outcome
	ObservePrediction(status string, duration time.Duration)

	// IncPredictionFailures counts a runtime failure by kind
	IncPredictionFailures(kind string)

	// IncValidationRejections counts a rejected request body by reason
	IncValidationRejections(reason string)

	// RecordModelLoaded records the loaded model and how long loading took
	RecordModelLoaded(model string, duration time.Duration)
}
