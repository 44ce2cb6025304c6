package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	predictions          *prometheus.CounterVec
	predictionFailures   *prometheus.CounterVec
	validationRejections *prometheus.CounterVec
	predictionDuration   *prometheus.HistogramVec
	modelInfo            *prometheus.GaugeVec
	modelLoadDuration    prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector registered with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictd_predictions_total",
				Help: "Total number of prediction requests that reached the model",
			},
			[]string{"status"},
		),
		predictionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictd_prediction_failures_total",
				Help: "Total number of failed predictions by failure kind",
			},
			[]string{"kind"},
		),
		validationRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictd_validation_rejections_total",
				Help: "Total number of rejected request bodies by reason",
			},
			[]string{"reason"},
		),
		predictionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "predictd_prediction_duration_seconds",
				Help:    "Model evaluation duration in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"status"},
		),
		modelInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "predictd_model_info",
				Help: "Loaded model, always 1",
			},
			[]string{"model"},
		),
		modelLoadDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "predictd_model_load_duration_seconds",
				Help: "Time spent loading the model artifact at startup",
			},
		),
	}
}

// ObservePrediction records a finished prediction
func (c *Collector) ObservePrediction(status string, duration time.Duration) {
	c.predictions.WithLabelValues(status).Inc()
	c.predictionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// IncPredictionFailures increments the count of failed predictions
func (c *Collector) IncPredictionFailures(kind string) {
	c.predictionFailures.WithLabelValues(kind).Inc()
}

// IncValidationRejections increments the count of rejected requests
func (c *Collector) IncValidationRejections(reason string) {
	c.validationRejections.WithLabelValues(reason).Inc()
}

// RecordModelLoaded records the loaded model and its load time
func (c *Collector) RecordModelLoaded(model string, duration time.Duration) {
	c.modelInfo.Reset()
	c.modelInfo.WithLabelValues(model).Set(1)
	c.modelLoadDuration.Set(duration.Seconds())
}
