// Package graph implements the service's native model format: a sequence
// of vector layers decoded from a YAML or JSON document and evaluated with
// gonum.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/aescanero/predictd/pkg/tensor"
)

// ErrShapeMismatch is returned when an input does not fit the graph
var ErrShapeMismatch = errors.New("shape mismatch")

// Model is a compiled graph. It is immutable and safe for concurrent use.
type Model struct {
	name      string
	version   string
	inputSize int
	layers    []layer
}

// Build compiles a spec, checking every layer and the dimensions that flow
// between them.
func Build(spec *Spec) (*Model, error) {
	if spec == nil {
		return nil, fmt.Errorf("model spec is nil")
	}
	if spec.InputSize < 0 {
		return nil, fmt.Errorf("input_size must not be negative: %d", spec.InputSize)
	}
	if len(spec.Layers) == 0 {
		return nil, fmt.Errorf("model must have at least one layer")
	}

	name := spec.Name
	if name == "" {
		name = "unnamed"
	}

	m := &Model{
		name:      name,
		version:   spec.Version,
		inputSize: spec.InputSize,
		layers:    make([]layer, 0, len(spec.Layers)),
	}

	width := spec.InputSize
	for i, ls := range spec.Layers {
		l, next, err := buildLayer(ls, width)
		if err != nil {
			return nil, fmt.Errorf("invalid layer %d: %w", i, err)
		}
		m.layers = append(m.layers, l)
		width = next
	}

	return m, nil
}

// Parse decodes and compiles a graph document
func Parse(data []byte) (*Model, error) {
	spec, err := ParseSpec(data)
	if err != nil {
		return nil, err
	}
	return Build(spec)
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// Version returns the artifact version, which may be empty
func (m *Model) Version() string {
	return m.version
}

// InputSize returns the required input length, or 0 if any length is accepted
func (m *Model) InputSize() int {
	return m.inputSize
}

// Ops returns the layer operations in evaluation order
func (m *Model) Ops() []string {
	ops := make([]string, len(m.layers))
	for i, l := range m.layers {
		ops[i] = l.op()
	}
	return ops
}

// Forward evaluates every layer in order
func (m *Model) Forward(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error) {
	if input == nil {
		return nil, fmt.Errorf("input tensor is nil")
	}
	if m.inputSize != 0 && input.Len() != m.inputSize {
		return nil, fmt.Errorf("%w: model expects %d inputs, got %d", ErrShapeMismatch, m.inputSize, input.Len())
	}

	v := input.Vec()
	for i, l := range m.layers {
		out, err := l.forward(v)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, l.op(), err)
		}
		v = out
	}

	return tensor.FromVec(v)
}
