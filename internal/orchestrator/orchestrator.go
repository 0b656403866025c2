// Package orchestrator drives one goal from plan to completion: it asks the
// planner for an ordered step list, dispatches each step to its agent in
// order, and halts on the first failure rather than re-planning.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/ports"
)

// ErrBudgetExhausted marks a terminal failure caused by an iteration or step
// ceiling, never silently retried.
var ErrBudgetExhausted = errors.New("budget exhausted")

// StepAgent executes a single planned step and returns its result text.
// Implementations report per-command progress through the events handler.
type StepAgent interface {
	Execute(ctx context.Context, run *domain.Run, step *domain.Step, events StatusHandler) (string, error)
}

// StepAgentFunc adapts a function to the StepAgent interface.
type StepAgentFunc func(ctx context.Context, run *domain.Run, step *domain.Step, events StatusHandler) (string, error)

func (f StepAgentFunc) Execute(ctx context.Context, run *domain.Run, step *domain.Step, events StatusHandler) (string, error) {
	return f(ctx, run, step, events)
}

// StatusHandler receives notifications about run progress.
type StatusHandler interface {
	OnRunStarted(run *domain.Run)
	OnPlanCreated(run *domain.Run)
	OnStepStart(run *domain.Run, step *domain.Step)
	OnStepComplete(run *domain.Run, step *domain.Step)
	OnCommand(run *domain.Run, step *domain.Step, rec domain.CommandRecord)
	OnRunComplete(run *domain.Run)
}

type noopStatus struct{}

func (noopStatus) OnRunStarted(*domain.Run)                                     {}
func (noopStatus) OnPlanCreated(*domain.Run)                                    {}
func (noopStatus) OnStepStart(*domain.Run, *domain.Step)                        {}
func (noopStatus) OnStepComplete(*domain.Run, *domain.Step)                     {}
func (noopStatus) OnCommand(*domain.Run, *domain.Step, domain.CommandRecord)    {}
func (noopStatus) OnRunComplete(*domain.Run)                                    {}

const defaultMaxSteps = 20

// Orchestrator owns the run state machine. Agents are a lookup table keyed by
// kind; adding an agent kind is one Register call, not a new subclass.
type Orchestrator struct {
	planner  ports.Planner
	driver   ports.ScreenDriver
	store    ports.RunStore
	agents   map[domain.AgentKind]StepAgent
	status   StatusHandler
	maxSteps int
	log      *zap.Logger
}

func New(planner ports.Planner, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		planner:  planner,
		agents:   make(map[domain.AgentKind]StepAgent),
		status:   noopStatus{},
		maxSteps: defaultMaxSteps,
		log:      log,
	}
}

// Register installs the agent handling the given step kind.
func (o *Orchestrator) Register(kind domain.AgentKind, agent StepAgent) {
	o.agents[kind] = agent
}

func (o *Orchestrator) SetStatusHandler(h StatusHandler) { o.status = h }

// SetStore enables run persistence. Store failures are logged, never fatal:
// losing history must not kill a run in flight.
func (o *Orchestrator) SetStore(s ports.RunStore) { o.store = s }

func (o *Orchestrator) SetMaxSteps(n int) { o.maxSteps = n }

// SetDriver enables screenshot context during planning. Optional; planning
// works without visual context.
func (o *Orchestrator) SetDriver(d ports.ScreenDriver) { o.driver = d }

// Run executes one goal end to end. The returned Run is always populated with
// whatever progress was made; err is non-nil for planner transport failures,
// budget exhaustion, step failure, and cancellation.
func (o *Orchestrator) Run(ctx context.Context, goal string) (*domain.Run, error) {
	cwd, _ := os.Getwd()
	run := domain.NewRun(domain.GenerateRunID(), goal, cwd)
	o.status.OnRunStarted(run)
	o.persistCreate(ctx, run)

	if o.maxSteps <= 0 {
		return o.fail(ctx, run, fmt.Errorf("%w: step budget is zero", ErrBudgetExhausted))
	}

	steps, err := o.planner.Plan(ctx, goal, o.planningScreenshot(ctx))
	if err != nil {
		return o.fail(ctx, run, fmt.Errorf("%w: %v", ports.ErrPlannerUnavailable, err))
	}
	if len(steps) == 0 {
		return o.fail(ctx, run, errors.New("planner produced no steps"))
	}
	if len(steps) > o.maxSteps {
		return o.fail(ctx, run, fmt.Errorf("%w: plan has %d steps, budget is %d", ErrBudgetExhausted, len(steps), o.maxSteps))
	}

	// Renumber defensively so step numbers are 1-based and dense no matter
	// what the model produced.
	for i, step := range steps {
		step.StepNumber = i + 1
		step.Status = domain.StepStatusPending
	}
	run.Steps = steps
	run.Start()
	o.status.OnPlanCreated(run)
	o.persistUpdate(ctx, run)

	for i, step := range run.Steps {
		// Cancellation is cooperative, observed between steps only.
		if ctxErr := ctx.Err(); ctxErr != nil {
			run.Complete(domain.RunStateCancelled)
			o.finish(ctx, run)
			return run, ctxErr
		}

		run.CurrentStep = i
		step.Status = domain.StepStatusRunning
		o.status.OnStepStart(run, step)

		agent, ok := o.agents[step.Agent]
		if !ok {
			step.Status = domain.StepStatusFailed
			step.Result = fmt.Sprintf("no agent registered for kind %q", step.Agent)
			return o.fail(ctx, run, fmt.Errorf("no agent registered for kind %q", step.Agent))
		}

		result, execErr := agent.Execute(ctx, run, step, o.events(run))
		if execErr != nil {
			step.Status = domain.StepStatusFailed
			step.Result = execErr.Error()
			o.status.OnStepComplete(run, step)
			if errors.Is(execErr, context.Canceled) || errors.Is(execErr, context.DeadlineExceeded) {
				run.Complete(domain.RunStateCancelled)
				o.finish(ctx, run)
				return run, execErr
			}
			// Partial completion is reported, not silently continued.
			return o.fail(ctx, run, fmt.Errorf("step %d failed: %w", step.StepNumber, execErr))
		}

		step.Status = domain.StepStatusDone
		step.Result = result
		o.status.OnStepComplete(run, step)
		run.CurrentStep = i + 1
		o.persistUpdate(ctx, run)
	}

	run.Complete(domain.RunStateCompleted)
	o.finish(ctx, run)
	return run, nil
}

// events returns the handler step agents report through: the caller's handler
// plus command persistence.
func (o *Orchestrator) events(run *domain.Run) StatusHandler {
	return &recordingStatus{orch: o, inner: o.status}
}

type recordingStatus struct {
	orch  *Orchestrator
	inner StatusHandler
}

func (r *recordingStatus) OnRunStarted(run *domain.Run)                  { r.inner.OnRunStarted(run) }
func (r *recordingStatus) OnPlanCreated(run *domain.Run)                 { r.inner.OnPlanCreated(run) }
func (r *recordingStatus) OnStepStart(run *domain.Run, s *domain.Step)   { r.inner.OnStepStart(run, s) }
func (r *recordingStatus) OnStepComplete(run *domain.Run, s *domain.Step) {
	r.inner.OnStepComplete(run, s)
}
func (r *recordingStatus) OnRunComplete(run *domain.Run) { r.inner.OnRunComplete(run) }

func (r *recordingStatus) OnCommand(run *domain.Run, step *domain.Step, rec domain.CommandRecord) {
	if r.orch.store != nil {
		if err := r.orch.store.SaveCommand(context.Background(), run.ID, step.StepNumber, rec); err != nil {
			r.orch.log.Warn("saving command record", zap.Error(err))
		}
	}
	r.inner.OnCommand(run, step, rec)
}

func (o *Orchestrator) fail(ctx context.Context, run *domain.Run, err error) (*domain.Run, error) {
	run.Fail(err.Error())
	o.finish(ctx, run)
	return run, err
}

func (o *Orchestrator) finish(ctx context.Context, run *domain.Run) {
	o.status.OnRunComplete(run)
	// The final state write must survive the run's own cancellation.
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	o.persistUpdate(ctx, run)
}

func (o *Orchestrator) planningScreenshot(ctx context.Context) []byte {
	if o.driver == nil {
		return nil
	}
	shot, err := o.driver.CaptureScreen(ctx)
	if err != nil {
		o.log.Debug("planning screenshot unavailable", zap.Error(err))
		return nil
	}
	return shot.PNG
}

func (o *Orchestrator) persistCreate(ctx context.Context, run *domain.Run) {
	if o.store == nil {
		return
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		o.log.Warn("persisting run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (o *Orchestrator) persistUpdate(ctx context.Context, run *domain.Run) {
	if o.store == nil {
		return
	}
	if err := o.store.UpdateRun(ctx, run); err != nil {
		o.log.Warn("updating run", zap.String("run_id", run.ID), zap.Error(err))
	}
}
