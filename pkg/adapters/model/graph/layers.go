package graph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Supported layer operations
const (
	OpScale   = "scale"
	OpAdd     = "add"
	OpLinear  = "linear"
	OpReLU    = "relu"
	OpSigmoid = "sigmoid"
	OpTanh    = "tanh"
)

// layer is one step of the graph. forward never modifies its input.
type layer interface {
	op() string
	forward(v *mat.VecDense) (*mat.VecDense, error)
}

type scaleLayer struct {
	factor float64
}

func (l *scaleLayer) op() string { return OpScale }

func (l *scaleLayer) forward(v *mat.VecDense) (*mat.VecDense, error) {
	out := mat.NewVecDense(v.Len(), nil)
	out.ScaleVec(l.factor, v)
	return out, nil
}

// addLayer adds either a scalar to every element or a bias vector
type addLayer struct {
	value float64
	bias  *mat.VecDense
}

func (l *addLayer) op() string { return OpAdd }

func (l *addLayer) forward(v *mat.VecDense) (*mat.VecDense, error) {
	out := mat.NewVecDense(v.Len(), nil)
	if l.bias != nil {
		if l.bias.Len() != v.Len() {
			return nil, fmt.Errorf("%w: bias has %d elements, input has %d",
				ErrShapeMismatch, l.bias.Len(), v.Len())
		}
		out.AddVec(v, l.bias)
		return out, nil
	}

	for i := 0; i < v.Len(); i++ {
		out.SetVec(i, v.AtVec(i)+l.value)
	}
	return out, nil
}

// linearLayer computes W*v + b
type linearLayer struct {
	weights *mat.Dense
	bias    *mat.VecDense
}

func (l *linearLayer) op() string { return OpLinear }

func (l *linearLayer) forward(v *mat.VecDense) (*mat.VecDense, error) {
	rows, cols := l.weights.Dims()
	if v.Len() != cols {
		return nil, fmt.Errorf("%w: expected %d inputs, got %d", ErrShapeMismatch, cols, v.Len())
	}

	out := mat.NewVecDense(rows, nil)
	out.MulVec(l.weights, v)
	if l.bias != nil {
		out.AddVec(out, l.bias)
	}
	return out, nil
}

// activationLayer applies fn to every element
type activationLayer struct {
	name string
	fn   func(float64) float64
}

func (l *activationLayer) op() string { return l.name }

func (l *activationLayer) forward(v *mat.VecDense) (*mat.VecDense, error) {
	out := mat.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		out.SetVec(i, l.fn(v.AtVec(i)))
	}
	return out, nil
}

func relu(x float64) float64 {
	return math.Max(0, x)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// buildLayer validates a layer spec and compiles it. width is the vector
// length flowing into the layer (0 when unknown); the returned width is
// the length flowing out.
func buildLayer(ls LayerSpec, width int) (layer, int, error) {
	switch ls.Op {
	case OpScale:
		if ls.Factor == nil {
			return nil, 0, fmt.Errorf("scale requires factor")
		}
		if ls.Value != nil || ls.Bias != nil || ls.Weights != nil {
			return nil, 0, fmt.Errorf("scale accepts only factor")
		}
		return &scaleLayer{factor: *ls.Factor}, width, nil

	case OpAdd:
		if ls.Factor != nil || ls.Weights != nil {
			return nil, 0, fmt.Errorf("add accepts only value or bias")
		}
		switch {
		case ls.Value != nil && ls.Bias != nil:
			return nil, 0, fmt.Errorf("add takes value or bias, not both")
		case ls.Value != nil:
			return &addLayer{value: *ls.Value}, width, nil
		case len(ls.Bias) > 0:
			if width != 0 && width != len(ls.Bias) {
				return nil, 0, fmt.Errorf("bias has %d elements, expected %d", len(ls.Bias), width)
			}
			return &addLayer{bias: mat.NewVecDense(len(ls.Bias), copyFloats(ls.Bias))}, len(ls.Bias), nil
		default:
			return nil, 0, fmt.Errorf("add requires value or a non-empty bias")
		}

	case OpLinear:
		if ls.Factor != nil || ls.Value != nil {
			return nil, 0, fmt.Errorf("linear accepts only weights and bias")
		}
		weights, err := denseFromRows(ls.Weights)
		if err != nil {
			return nil, 0, err
		}
		rows, cols := weights.Dims()
		if width != 0 && width != cols {
			return nil, 0, fmt.Errorf("weights expect %d inputs, previous layer produces %d", cols, width)
		}

		l := &linearLayer{weights: weights}
		if ls.Bias != nil {
			if len(ls.Bias) != rows {
				return nil, 0, fmt.Errorf("bias has %d elements, weights have %d rows", len(ls.Bias), rows)
			}
			l.bias = mat.NewVecDense(rows, copyFloats(ls.Bias))
		}
		return l, rows, nil

	case OpReLU, OpSigmoid, OpTanh:
		if ls.Factor != nil || ls.Value != nil || ls.Bias != nil || ls.Weights != nil {
			return nil, 0, fmt.Errorf("%s takes no parameters", ls.Op)
		}
		fn := map[string]func(float64) float64{
			OpReLU:    relu,
			OpSigmoid: sigmoid,
			OpTanh:    math.Tanh,
		}[ls.Op]
		return &activationLayer{name: ls.Op, fn: fn}, width, nil

	case "":
		return nil, 0, fmt.Errorf("op is required")

	default:
		return nil, 0, fmt.Errorf("unsupported op %q", ls.Op)
	}
}

// denseFromRows builds a matrix from non-empty rows of equal length
func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("linear requires non-empty weights")
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("weights row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}

	return mat.NewDense(len(rows), cols, data), nil
}

func copyFloats(src []float64) []float64 {
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}
