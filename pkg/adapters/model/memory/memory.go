package memory

import (
	"context"
	"sync/atomic"

	"github.com/aescanero/predictd/pkg/tensor"
)

// Func computes a model output from its input values
type Func func(ctx context.Context, inputs []float64) ([]float64, error)

// Model implements ports.Model with a Go function.
// This is for testing purposes only
type Model struct {
	name  string
	fn    Func
	calls atomic.Int64
}

// NewModel creates a new in-memory model
func NewModel(name string, fn Func) *Model {
	return &Model{
		name: name,
		fn:   fn,
	}
}

// NewDoubler creates a model that multiplies every element by 2
func NewDoubler() *Model {
	return NewModel("doubleit", func(_ context.Context, inputs []float64) ([]float64, error) {
		out := make([]float64, len(inputs))
		for i, v := range inputs {
			out[i] = 2 * v
		}
		return out, nil
	})
}

// NewFailing creates a model whose every invocation returns err
func NewFailing(err error) *Model {
	return NewModel("failing", func(context.Context, []float64) ([]float64, error) {
		return nil, err
	})
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// Forward calls the model function
func (m *Model) Forward(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error) {
	m.calls.Add(1)

	out, err := m.fn(ctx, input.Values())
	if err != nil {
		return nil, err
	}
	return tensor.New(out)
}

// Calls returns how many times Forward was invoked
func (m *Model) Calls() int64 {
	return m.calls.Load()
}
