package ports

import (
	"context"
	"errors"

	"github.com/pilot-dev/pilot/internal/domain"
)

// ErrPlannerUnavailable wraps network/LLM transport failures. The adaptive
// loop counts them against its error budget; nothing below it retries.
var ErrPlannerUnavailable = errors.New("planner unavailable")

// ErrTargetNotFound is returned by SelectCell when the planner explicitly
// declines to pick a cell. Callers can distinguish it from execution errors
// and retry with a different phrasing.
var ErrTargetNotFound = errors.New("element not found on screen")

// Action is the planner's decision for the next adaptive-executor turn.
// Done set means the goal is satisfied and no command follows.
type Action struct {
	Command string
	Done    bool
	Reason  string
}

// Selection names the grid cell the planner believes contains the target.
type Selection struct {
	Cell   int
	Reason string
}

// Planner is the language-model collaborator. Implementations own the wire
// protocol; all calls honor the context deadline.
type Planner interface {
	// Plan decomposes a goal into ordered steps. The optional screenshot
	// gives the model visual context; nil is fine.
	Plan(ctx context.Context, goal string, screenshot []byte) ([]*domain.Step, error)

	// NextAction decides the next shell command given the accumulated
	// command history, or signals completion.
	NextAction(ctx context.Context, goal, cwd string, history []domain.CommandRecord) (Action, error)

	// SelectCell picks the numbered grid cell containing the described
	// element in the annotated image (PNG bytes).
	SelectCell(ctx context.Context, image []byte, description string) (Selection, error)

	// Complete answers a free-form task description. General (non-terminal)
	// steps are dispatched straight here.
	Complete(ctx context.Context, prompt string) (string, error)
}
