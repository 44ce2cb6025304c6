package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/predictd/pkg/ports"
	"github.com/aescanero/predictd/pkg/tensor"
	"go.uber.org/zap"
)

// Prediction outcome labels
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Response is a successful prediction
type Response struct {
	Result []float64 `json:"result"`
}

// Service runs validated requests through the loaded model
type Service struct {
	model     ports.Model
	validator *Validator
	metrics   ports.MetricsCollector
	logger    *zap.Logger
}

// NewService creates a new prediction service.
// metrics may be nil when metrics are disabled.
func NewService(
	model ports.Model,
	validator *Validator,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) *Service {
	if validator == nil {
		validator = NewValidator()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		model:     model,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
	}
}

// ModelName returns the name of the loaded model
func (s *Service) ModelName() string {
	return s.model.Name()
}

// Validate checks a raw request body
func (s *Service) Validate(data []byte) (*Request, error) {
	req, err := s.validator.Validate(data)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.metrics.IncValidationRejections(verr.Reason())
			s.logger.Debug("request rejected", zap.String("reason", verr.Reason()), zap.Error(err))
		}
		return nil, err
	}
	return req, nil
}

// Predict evaluates the model on a validated request
func (s *Service) Predict(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		req = &Request{}
	}

	start := time.Now()
	values, err := s.infer(ctx, req.Inputs)
	duration := time.Since(start)

	if err != nil {
		kind := FailureModel
		var perr *PredictionError
		if errors.As(err, &perr) {
			kind = perr.Kind
		}

		s.metrics.IncPredictionFailures(string(kind))
		s.metrics.ObservePrediction(StatusFailure, duration)
		s.logger.Error("prediction failed",
			zap.String("model", s.model.Name()),
			zap.String("failure_kind", string(kind)),
			zap.Int("inputs", len(req.Inputs)),
			zap.Error(err))
		return nil, err
	}

	s.metrics.ObservePrediction(StatusSuccess, duration)
	s.logger.Info("prediction successful",
		zap.String("model", s.model.Name()),
		zap.Int("inputs", len(req.Inputs)),
		zap.Int("outputs", len(values)),
		zap.Duration("duration", duration))

	return &Response{Result: values}, nil
}

// infer builds the input tensor, calls the model and converts its output
func (s *Service) infer(ctx context.Context, inputs []float64) ([]float64, error) {
	in, err := tensor.New(inputs)
	if err != nil {
		return nil, &PredictionError{Kind: FailureTensor, Err: err}
	}
	if err := in.CheckFinite(); err != nil {
		return nil, &PredictionError{Kind: FailureTensor, Err: err}
	}

	out, err := s.invoke(ctx, in)
	if err != nil {
		return nil, &PredictionError{Kind: FailureModel, Err: err}
	}
	if out == nil {
		return nil, &PredictionError{Kind: FailureModel, Err: fmt.Errorf("model returned no output")}
	}

	// NaN and Inf have no JSON encoding
	if err := out.CheckFinite(); err != nil {
		return nil, &PredictionError{Kind: FailureOutput, Err: err}
	}

	return out.Values(), nil
}

// invoke calls the model, turning a panic into an error
func (s *Service) invoke(ctx context.Context, in *tensor.Tensor) (out *tensor.Tensor, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()

	return s.model.Forward(ctx, in)
}

type nopMetrics struct{}

func (nopMetrics) ObservePrediction(string, time.Duration) {}
func (nopMetrics) IncPredictionFailures(string) {}
func (nopMetrics) IncValidationRejections(string) {}
func (nopMetrics) RecordModelLoaded(string, time.Duration) {}
