package ports

import (
	"context"

	"github.com/pilot-dev/pilot/internal/domain"
)

// Confirmer surfaces a pending confirmation to the human-facing channel.
// Request returns once the request is visible; the decision itself arrives
// asynchronously through the gate's Resolve call.
type Confirmer interface {
	Request(ctx context.Context, req domain.PendingConfirmation) error
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, req domain.PendingConfirmation) error

func (f ConfirmerFunc) Request(ctx context.Context, req domain.PendingConfirmation) error {
	return f(ctx, req)
}
