package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilot-dev/pilot/internal/confirm"
	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/orchestrator"
	"github.com/pilot-dev/pilot/internal/ports"
)

// fakePlanner serves a canned plan and a global scripted action sequence that
// terminal steps consume in order.
type fakePlanner struct {
	steps    []*domain.Step
	planErr  error
	actions  []ports.Action
	call     int
	complete string
}

func (p *fakePlanner) Plan(context.Context, string, []byte) ([]*domain.Step, error) {
	if p.planErr != nil {
		return nil, p.planErr
	}
	return p.steps, nil
}

func (p *fakePlanner) NextAction(context.Context, string, string, []domain.CommandRecord) (ports.Action, error) {
	i := p.call
	if i >= len(p.actions) {
		i = len(p.actions) - 1
	}
	p.call++
	return p.actions[i], nil
}

func (p *fakePlanner) SelectCell(context.Context, []byte, string) (ports.Selection, error) {
	panic("not used")
}

func (p *fakePlanner) Complete(context.Context, string) (string, error) {
	return p.complete, nil
}

// recordingHandler captures the event stream for assertions.
type recordingHandler struct {
	events   []string
	commands []domain.CommandRecord
}

func (h *recordingHandler) OnRunStarted(*domain.Run)  { h.events = append(h.events, "run_started") }
func (h *recordingHandler) OnPlanCreated(*domain.Run) { h.events = append(h.events, "plan_created") }
func (h *recordingHandler) OnStepStart(_ *domain.Run, s *domain.Step) {
	h.events = append(h.events, "step_start")
}
func (h *recordingHandler) OnStepComplete(_ *domain.Run, s *domain.Step) {
	h.events = append(h.events, "step_complete")
}
func (h *recordingHandler) OnCommand(_ *domain.Run, _ *domain.Step, rec domain.CommandRecord) {
	h.commands = append(h.commands, rec)
}
func (h *recordingHandler) OnRunComplete(*domain.Run) { h.events = append(h.events, "run_complete") }

func openGate(t *testing.T) *confirm.Gate {
	t.Helper()
	gate, err := confirm.NewGate(nil, nil, 0, nil)
	require.NoError(t, err)
	return gate
}

func terminalSteps(actions ...string) []*domain.Step {
	steps := make([]*domain.Step, len(actions))
	for i, a := range actions {
		steps[i] = &domain.Step{Agent: domain.AgentTerminal, Action: a}
	}
	return steps
}

func TestOrchestrator_ThreeCommandsAllSucceed(t *testing.T) {
	planner := &fakePlanner{
		steps: terminalSteps("print one", "print two", "print three"),
		actions: []ports.Action{
			{Command: "echo one"}, {Done: true, Reason: "printed"},
			{Command: "echo two"}, {Done: true, Reason: "printed"},
			{Command: "echo three"}, {Done: true, Reason: "printed"},
		},
	}
	orch := orchestrator.New(planner, nil)
	orch.Register(domain.AgentTerminal, &orchestrator.TerminalAgent{Planner: planner, Gate: openGate(t)})

	handler := &recordingHandler{}
	orch.SetStatusHandler(handler)

	run, err := orch.Run(context.Background(), "print three things")
	require.NoError(t, err)

	assert.True(t, run.Done)
	assert.Equal(t, domain.RunStateCompleted, run.State)
	require.Len(t, run.Steps, 3)
	for _, step := range run.Steps {
		assert.Equal(t, domain.StepStatusDone, step.Status)
	}
	require.Len(t, run.History, 3)
	assert.Equal(t, "echo one", run.History[0].Command)
	assert.Equal(t, 3, run.History[2].Step)

	assert.Len(t, handler.commands, 3)
	assert.Equal(t, []string{
		"run_started", "plan_created",
		"step_start", "step_complete",
		"step_start", "step_complete",
		"step_start", "step_complete",
		"run_complete",
	}, handler.events)
}

func TestOrchestrator_StepFailureHaltsRun(t *testing.T) {
	planner := &fakePlanner{
		steps: terminalSteps("works", "breaks", "never runs"),
		actions: []ports.Action{
			{Command: "echo ok"}, {Done: true, Reason: "ok"},
			{Command: "false"}, {Command: "false"}, // trips the breaker
		},
	}
	orch := orchestrator.New(planner, nil)
	orch.Register(domain.AgentTerminal, &orchestrator.TerminalAgent{
		Planner: planner,
		Gate:    openGate(t),
		Config:  domain.ExecutorConfig{MaxIterations: 10, MaxConsecutiveErrors: 2},
	})

	run, err := orch.Run(context.Background(), "goal")
	require.Error(t, err)
	assert.ErrorIs(t, err, orchestrator.ErrBudgetExhausted)

	assert.True(t, run.Done)
	assert.Equal(t, domain.RunStateFailed, run.State)
	assert.Equal(t, domain.StepStatusDone, run.Steps[0].Status)
	assert.Equal(t, domain.StepStatusFailed, run.Steps[1].Status)
	assert.Equal(t, domain.StepStatusPending, run.Steps[2].Status, "later steps must not run after a failure")
	assert.NotEmpty(t, run.ErrorMsg)
}

func TestOrchestrator_GeneralStepDispatch(t *testing.T) {
	planner := &fakePlanner{
		steps: []*domain.Step{
			{Agent: domain.AgentGeneral, Action: "summarize the release notes"},
		},
		complete: "three bug fixes, one feature",
	}
	orch := orchestrator.New(planner, nil)
	orch.Register(domain.AgentGeneral, &orchestrator.GeneralAgent{Planner: planner})

	run, err := orch.Run(context.Background(), "summarize")
	require.NoError(t, err)
	assert.Equal(t, "three bug fixes, one feature", run.Steps[0].Result)
	require.Len(t, run.History, 1)
	assert.Equal(t, "three bug fixes, one feature", run.History[0].Output)
}

func TestOrchestrator_UnknownAgentKindFails(t *testing.T) {
	planner := &fakePlanner{
		steps: []*domain.Step{{Agent: domain.AgentKind("browser"), Action: "open a tab"}},
	}
	orch := orchestrator.New(planner, nil)

	run, err := orch.Run(context.Background(), "goal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser")
	assert.Equal(t, domain.RunStateFailed, run.State)
}

func TestOrchestrator_EmptyPlanFailsFast(t *testing.T) {
	planner := &fakePlanner{steps: nil}
	orch := orchestrator.New(planner, nil)

	run, err := orch.Run(context.Background(), "goal")
	require.Error(t, err)
	assert.Equal(t, domain.RunStateFailed, run.State)
	assert.True(t, run.Done)
}

func TestOrchestrator_ZeroStepBudgetFailsFast(t *testing.T) {
	planner := &fakePlanner{steps: terminalSteps("anything")}
	orch := orchestrator.New(planner, nil)
	orch.SetMaxSteps(0)

	run, err := orch.Run(context.Background(), "goal")
	assert.ErrorIs(t, err, orchestrator.ErrBudgetExhausted)
	assert.Equal(t, domain.RunStateFailed, run.State)
}

func TestOrchestrator_PlanOverBudgetFailsFast(t *testing.T) {
	planner := &fakePlanner{steps: terminalSteps("a", "b", "c")}
	orch := orchestrator.New(planner, nil)
	orch.SetMaxSteps(2)

	run, err := orch.Run(context.Background(), "goal")
	assert.ErrorIs(t, err, orchestrator.ErrBudgetExhausted)
	assert.Equal(t, domain.RunStateFailed, run.State)
	assert.Empty(t, run.Steps, "an over-budget plan is never adopted")
}

func TestOrchestrator_PlannerFailureFailsRun(t *testing.T) {
	planner := &fakePlanner{planErr: errors.New("dial tcp: refused")}
	orch := orchestrator.New(planner, nil)

	run, err := orch.Run(context.Background(), "goal")
	assert.ErrorIs(t, err, ports.ErrPlannerUnavailable)
	assert.Equal(t, domain.RunStateFailed, run.State)
}

func TestOrchestrator_CancellationBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	planner := &fakePlanner{
		steps: terminalSteps("first", "second"),
		actions: []ports.Action{
			{Command: "echo one"}, {Done: true, Reason: "ok"},
		},
	}
	orch := orchestrator.New(planner, nil)
	orch.Register(domain.AgentTerminal, orchestrator.StepAgentFunc(
		func(_ context.Context, run *domain.Run, step *domain.Step, _ orchestrator.StatusHandler) (string, error) {
			cancel() // cancelled while the first step runs
			return "ok", nil
		}))

	run, err := orch.Run(ctx, "goal")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.RunStateCancelled, run.State)
	assert.True(t, run.Done)
	assert.Equal(t, domain.StepStatusDone, run.Steps[0].Status)
	assert.Equal(t, domain.StepStatusPending, run.Steps[1].Status)
}

func TestOrchestrator_StepsRenumberedDense(t *testing.T) {
	planner := &fakePlanner{
		steps: []*domain.Step{
			{StepNumber: 7, Agent: domain.AgentGeneral, Action: "a"},
			{StepNumber: 7, Agent: domain.AgentGeneral, Action: "b"},
		},
		complete: "done",
	}
	orch := orchestrator.New(planner, nil)
	orch.Register(domain.AgentGeneral, &orchestrator.GeneralAgent{Planner: planner})

	run, err := orch.Run(context.Background(), "goal")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Steps[0].StepNumber)
	assert.Equal(t, 2, run.Steps[1].StepNumber)
}
