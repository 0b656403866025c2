package ports

import (
	"context"

	"github.com/pilot-dev/pilot/internal/domain"
)

type RunStore interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	UpdateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context) ([]*domain.Run, error)

	SaveCommand(ctx context.Context, runID string, step int, rec domain.CommandRecord) error
	GetCommands(ctx context.Context, runID string) ([]domain.CommandRecord, error)
}
