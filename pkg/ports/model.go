package ports

import (
	"context"

	"github.com/aescanero/predictd/pkg/tensor"
)

// Model is a loaded, pre-compiled numeric function.
//
// Implementations are read-only after loading and must be safe for
// concurrent Forward calls.
type Model interface {
	// Name identifies the loaded artifact in logs and metrics
	Name() string

	// Forward evaluates the model on a single input vector
	Forward(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error)
}
