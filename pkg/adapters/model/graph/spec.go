package graph

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Spec is the serialized form of a graph model.
//
// JSON documents are valid YAML, so both encodings decode through the
// same path.
type Spec struct {
	Name      string      `yaml:"name"`
	Version   string      `yaml:"version"`
	InputSize int         `yaml:"input_size"`
	Layers    []LayerSpec `yaml:"layers"`
}

// LayerSpec describes one layer. Which fields apply depends on Op.
type LayerSpec struct {
	Op      string      `yaml:"op"`
	Factor  *float64    `yaml:"factor,omitempty"`
	Value   *float64    `yaml:"value,omitempty"`
	Bias    []float64   `yaml:"bias,omitempty"`
	Weights [][]float64 `yaml:"weights,omitempty"`
}

// ParseSpec decodes a graph document. Unknown keys are rejected.
func ParseSpec(data []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec Spec
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty model document")
		}
		return nil, fmt.Errorf("failed to decode model document: %w", err)
	}

	return &spec, nil
}
