package provider

import (
	"context"
	"errors"

	"modelfan/internal/models"
)

// ErrModelUnavailable indicates no provider binding can serve the requested
// model, either because no routing rule matches or because the matching
// provider's credential is not configured.
var ErrModelUnavailable = errors.New("Model not available")

// Provider defines the behaviour required to serve a single completion call.
// Implementations always request exactly one completion per call; fan-out is
// handled above this interface.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req models.CallRequest) (*models.CallResponse, error)
}
