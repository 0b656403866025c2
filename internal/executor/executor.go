// Package executor runs the adaptive terminal loop: ask the planner for the
// next command, gate it, execute it, feed the output back, until the planner
// signals completion or a budget is exhausted.
package executor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pilot-dev/pilot/internal/confirm"
	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/ports"
)

const (
	reasonConsecutiveErrors = "too many consecutive errors"
	reasonBudgetExhausted   = "iteration budget exhausted"
)

type Executor struct {
	planner ports.Planner
	gate    *confirm.Gate
	runner  CommandRunner
	cfg     domain.ExecutorConfig
	log     *zap.Logger

	// OnCommand is invoked after every command record is appended, rejected
	// commands included. Used by the orchestrator to stream events.
	OnCommand func(rec domain.CommandRecord)
}

func New(planner ports.Planner, gate *confirm.Gate, cfg domain.ExecutorConfig, log *zap.Logger) *Executor {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = domain.DefaultMaxIterations
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = domain.DefaultMaxConsecutiveErrors
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		planner: planner,
		gate:    gate,
		runner:  ShellRunner{},
		cfg:     cfg,
		log:     log,
	}
}

// SetRunner overrides the shell runner. Tests use this to execute nothing.
func (e *Executor) SetRunner(r CommandRunner) {
	e.runner = r
}

// Execute drives the generate-execute-observe loop for one goal. The returned
// result always satisfies Iterations <= MaxIterations; the full command log
// is included whether or not the goal was reached. A non-nil error means the
// loop itself could not proceed (planner transport failure or cancellation),
// not that a command failed.
func (e *Executor) Execute(ctx context.Context, goal, cwd string) (domain.ExecutorResult, error) {
	res := domain.ExecutorResult{FinalCwd: cwd}
	consecutive := 0

	for res.Iterations < e.cfg.MaxIterations {
		// Cancellation is cooperative: observed here, at the iteration
		// boundary, never by interrupting a command mid-output.
		if err := ctx.Err(); err != nil {
			res.FailureReason = "cancelled"
			return res, err
		}

		action, err := e.planner.NextAction(ctx, goal, res.FinalCwd, res.Commands)
		if err != nil {
			res.FailureReason = "planner failure"
			return res, fmt.Errorf("%w: %v", ports.ErrPlannerUnavailable, err)
		}

		if action.Done {
			res.Success = true
			res.Output = action.Reason
			if res.Output == "" && len(res.Commands) > 0 {
				res.Output = res.Commands[len(res.Commands)-1].Output
			}
			return res, nil
		}

		res.Iterations++

		if gateErr := e.gate.Check(ctx, action.Command, res.FinalCwd); gateErr != nil {
			if errors.Is(gateErr, confirm.ErrRejected) {
				e.record(&res, domain.CommandRecord{
					Command: action.Command,
					Output:  "rejected by user",
					Success: false,
				})
				consecutive++
				if consecutive >= e.cfg.MaxConsecutiveErrors {
					res.FailureReason = reasonConsecutiveErrors
					res.Output = lastOutput(res.Commands)
					return res, nil
				}
				continue
			}
			res.FailureReason = "cancelled"
			return res, gateErr
		}

		output, newCwd, runErr := e.runner.Run(ctx, action.Command, res.FinalCwd)
		rec := domain.CommandRecord{
			Command: action.Command,
			Output:  output,
			Success: runErr == nil,
		}
		e.record(&res, rec)
		res.FinalCwd = newCwd

		if runErr != nil {
			e.log.Debug("command failed",
				zap.String("command", action.Command),
				zap.Error(runErr))
			consecutive++
			if consecutive >= e.cfg.MaxConsecutiveErrors {
				res.FailureReason = reasonConsecutiveErrors
				res.Output = lastOutput(res.Commands)
				return res, nil
			}
		} else {
			// Any success resets the circuit breaker, empty output included.
			consecutive = 0
		}
	}

	res.FailureReason = reasonBudgetExhausted
	res.Output = lastOutput(res.Commands)
	return res, nil
}

func (e *Executor) record(res *domain.ExecutorResult, rec domain.CommandRecord) {
	res.Commands = append(res.Commands, rec)
	if e.OnCommand != nil {
		e.OnCommand(rec)
	}
}

// lastOutput returns the most recent non-empty command output for the final
// report. Failed runs still carry the last context the planner saw.
func lastOutput(commands []domain.CommandRecord) string {
	for i := len(commands) - 1; i >= 0; i-- {
		if commands[i].Output != "" {
			return commands[i].Output
		}
	}
	return ""
}
