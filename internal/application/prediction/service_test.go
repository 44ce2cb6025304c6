package prediction

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/predictd/pkg/adapters/model/memory"
	"github.com/aescanero/predictd/pkg/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingMetrics captures metric calls for assertions
type recordingMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	failures    map[string]int
	rejections  map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		predictions: make(map[string]int),
		failures:    make(map[string]int),
		rejections:  make(map[string]int),
	}
}

func (m *recordingMetrics) ObservePrediction(status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[status]++
}

func (m *recordingMetrics) IncPredictionFailures(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind]++
}

func (m *recordingMetrics) IncValidationRejections(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections[reason]++
}

func (m *recordingMetrics) RecordModelLoaded(string, time.Duration) {}

func newObservedService(t *testing.T, model *memory.Model) (*Service, *recordingMetrics, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	metrics := newRecordingMetrics()
	return NewService(model, NewValidator(), metrics, zap.New(core)), metrics, logs
}

func TestPredictDoubles(t *testing.T) {
	svc, metrics, logs := newObservedService(t, memory.NewDoubler())

	resp, err := svc.Predict(context.Background(), &Request{Inputs: []float64{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, resp.Result)

	assert.Equal(t, 1, metrics.predictions[StatusSuccess])
	assert.Equal(t, 1, logs.FilterMessage("prediction successful").Len())
	assert.Equal(t, "doubleit", svc.ModelName())
}

func TestPredictIsDeterministic(t *testing.T) {
	model := memory.NewDoubler()
	svc, _, _ := newObservedService(t, model)

	req := &Request{Inputs: []float64{0.1, -3, 7.25}}
	first, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.Predict(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first.Result, again.Result)
	}
	assert.Equal(t, int64(6), model.Calls())
}

func TestPredictModelError(t *testing.T) {
	svc, metrics, logs := newObservedService(t, memory.NewFailing(errors.New("Model error")))

	resp, err := svc.Predict(context.Background(), &Request{Inputs: []float64{1, 2}})
	assert.Nil(t, resp)

	var perr *PredictionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, FailureModel, perr.Kind)
	assert.EqualError(t, perr.Err, "Model error")

	assert.Equal(t, 1, metrics.failures[string(FailureModel)])
	assert.Equal(t, 1, metrics.predictions[StatusFailure])

	entries := logs.FilterMessage("prediction failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(FailureModel), entries[0].ContextMap()["failure_kind"])
	assert.Contains(t, entries[0].ContextMap()["error"], "Model error")
}

func TestPredictModelPanic(t *testing.T) {
	svc, _, _ := newObservedService(t, memory.NewModel("panics", func(context.Context, []float64) ([]float64, error) {
		panic("index out of range")
	}))

	_, err := svc.Predict(context.Background(), &Request{Inputs: []float64{1}})

	var perr *PredictionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, FailureModel, perr.Kind)
	assert.Contains(t, err.Error(), "model panicked: index out of range")
}

func TestPredictEmptyModelOutput(t *testing.T) {
	svc, _, _ := newObservedService(t, memory.NewModel("empty", func(context.Context, []float64) ([]float64, error) {
		return nil, nil
	}))

	_, err := svc.Predict(context.Background(), &Request{Inputs: []float64{1}})

	var perr *PredictionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, FailureModel, perr.Kind)
	assert.ErrorIs(t, err, tensor.ErrEmpty)
}

func TestPredictNonFiniteOutput(t *testing.T) {
	svc, metrics, _ := newObservedService(t, memory.NewModel("nan", func(_ context.Context, in []float64) ([]float64, error) {
		return []float64{math.NaN()}, nil
	}))

	_, err := svc.Predict(context.Background(), &Request{Inputs: []float64{1}})

	var perr *PredictionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, FailureOutput, perr.Kind)
	assert.ErrorIs(t, err, tensor.ErrNonFinite)
	assert.Equal(t, 1, metrics.failures[string(FailureOutput)])
}

func TestPredictTensorFailure(t *testing.T) {
	model := memory.NewDoubler()
	svc, _, _ := newObservedService(t, model)

	for _, req := range []*Request{nil, {}, {Inputs: []float64{math.Inf(1)}}} {
		_, err := svc.Predict(context.Background(), req)

		var perr *PredictionError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, FailureTensor, perr.Kind)
	}
	assert.Zero(t, model.Calls())
}

func TestServiceValidate(t *testing.T) {
	model := memory.NewDoubler()
	svc, metrics, _ := newObservedService(t, model)

	req, err := svc.Validate([]byte(`{"inputs": [3]}`))
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, req.Inputs)

	_, err = svc.Validate([]byte(`{"inputs": []}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.Validate([]byte(`{}`))
	require.Error(t, err)

	assert.Equal(t, 1, metrics.rejections[TypeValueError])
	assert.Equal(t, 1, metrics.rejections[TypeMissing])
	assert.Zero(t, model.Calls())
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(memory.NewDoubler(), nil, nil, nil)

	resp, err := svc.Predict(context.Background(), &Request{Inputs: []float64{5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{10}, resp.Result)

	_, err = svc.Validate([]byte(`{}`))
	assert.Error(t, err)
}
