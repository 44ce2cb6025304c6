// Package tensor provides the rank-1 numeric tensor passed to models.
package tensor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmpty is returned when a tensor is built from no values
	ErrEmpty = errors.New("tensor: empty input")

	// ErrNonFinite is returned when a tensor holds NaN or Inf
	ErrNonFinite = errors.New("tensor: non-finite value")
)

// Tensor is a non-empty vector of float64 values
type Tensor struct {
	vec *mat.VecDense
}

// New creates a tensor holding a copy of values
func New(values []float64) (*Tensor, error) {
	if len(values) == 0 {
		return nil, ErrEmpty
	}

	data := make([]float64, len(values))
	copy(data, values)

	return &Tensor{vec: mat.NewVecDense(len(data), data)}, nil
}

// FromVec wraps v without copying it. The caller must not modify v
// afterwards.
func FromVec(v *mat.VecDense) (*Tensor, error) {
	if v == nil || v.Len() == 0 {
		return nil, ErrEmpty
	}
	return &Tensor{vec: v}, nil
}

// Len returns the number of elements
func (t *Tensor) Len() int {
	return t.vec.Len()
}

// Shape returns the tensor shape
func (t *Tensor) Shape() []int {
	return []int{t.vec.Len()}
}

// Vec returns a copy of the underlying vector
func (t *Tensor) Vec() *mat.VecDense {
	return mat.VecDenseCopyOf(t.vec)
}

// Values returns the elements as a new slice
func (t *Tensor) Values() []float64 {
	n := t.vec.Len()
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = t.vec.AtVec(i)
	}
	return values
}

// CheckFinite reports the first NaN or Inf element, if any
func (t *Tensor) CheckFinite() error {
	for i := 0; i < t.vec.Len(); i++ {
		v := t.vec.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at index %d: %v", ErrNonFinite, i, v)
		}
	}
	return nil
}
