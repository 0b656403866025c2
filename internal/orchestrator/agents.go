package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pilot-dev/pilot/internal/confirm"
	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/executor"
	"github.com/pilot-dev/pilot/internal/ports"
)

// TerminalAgent runs a step through the adaptive terminal executor. A fresh
// executor is built per step so concurrent runs never share loop state; the
// run's cwd is carried from step to step.
type TerminalAgent struct {
	Planner ports.Planner
	Gate    *confirm.Gate
	Config  domain.ExecutorConfig
	Log     *zap.Logger
}

func (a *TerminalAgent) Execute(ctx context.Context, run *domain.Run, step *domain.Step, events StatusHandler) (string, error) {
	exe := executor.New(a.Planner, a.Gate, a.Config, a.Log)
	exe.OnCommand = func(rec domain.CommandRecord) {
		run.RecordHistory(step.StepNumber, rec.Command, rec.Output)
		events.OnCommand(run, step, rec)
	}

	res, err := exe.Execute(ctx, step.Action, run.Cwd)
	run.Cwd = res.FinalCwd
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "", fmt.Errorf("%w: %s after %d iterations", ErrBudgetExhausted, res.FailureReason, res.Iterations)
	}
	return res.Output, nil
}

// GeneralAgent dispatches a step's task description straight to the planner.
type GeneralAgent struct {
	Planner ports.Planner
}

func (a *GeneralAgent) Execute(ctx context.Context, run *domain.Run, step *domain.Step, events StatusHandler) (string, error) {
	answer, err := a.Planner.Complete(ctx, step.Action)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrPlannerUnavailable, err)
	}
	run.RecordHistory(step.StepNumber, step.Action, answer)
	events.OnCommand(run, step, domain.CommandRecord{Command: step.Action, Output: answer, Success: true})
	return answer, nil
}
