package domain

import (
	"fmt"
	"time"
)

type RunState string

const (
	RunStatePlanning  RunState = "planning"
	RunStateExecuting RunState = "executing"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
	RunStateCancelled RunState = "cancelled"
)

// Terminal reports whether the run has reached a final state.
func (s RunState) Terminal() bool {
	return s == RunStateCompleted || s == RunStateFailed || s == RunStateCancelled
}

type StepStatus string

const (
	StepStatusPending StepStatus = "pending"
	StepStatusRunning StepStatus = "running"
	StepStatusDone    StepStatus = "done"
	StepStatusFailed  StepStatus = "failed"
)

// AgentKind selects which executor handles a step. New kinds are added by
// registering one entry in the orchestrator's dispatch table.
type AgentKind string

const (
	AgentTerminal AgentKind = "terminal"
	AgentGeneral  AgentKind = "general"
)

// Step is one unit of planned work. StepNumber is 1-based and stable for the
// lifetime of the run.
type Step struct {
	StepNumber int
	Agent      AgentKind
	Action     string
	Status     StepStatus
	Result     string
}

// HistoryEntry records one completed unit of work. Entries are append-only.
type HistoryEntry struct {
	Step    int
	Command string
	Output  string
}

// Run is the orchestration context for a single goal. It is owned exclusively
// by the orchestrator driving it and must never be shared across runs.
type Run struct {
	ID          string
	Goal        string
	Cwd         string
	State       RunState
	CurrentStep int
	Steps       []*Step
	History     []HistoryEntry
	Done        bool
	StartedAt   time.Time
	CompletedAt time.Time
	ErrorMsg    string
}

func NewRun(id, goal, cwd string) *Run {
	return &Run{
		ID:    id,
		Goal:  goal,
		Cwd:   cwd,
		State: RunStatePlanning,
	}
}

func (r *Run) Start() {
	r.State = RunStateExecuting
	r.StartedAt = time.Now()
}

// StepByNumber returns the step with the given 1-based number.
func (r *Run) StepByNumber(n int) (*Step, error) {
	if n < 1 || n > len(r.Steps) {
		return nil, fmt.Errorf("step %d out of range (run has %d steps)", n, len(r.Steps))
	}
	return r.Steps[n-1], nil
}

// RecordHistory appends a completed unit of work to the run log.
func (r *Run) RecordHistory(step int, command, output string) {
	r.History = append(r.History, HistoryEntry{Step: step, Command: command, Output: output})
}

// Complete moves the run to a terminal state.
func (r *Run) Complete(state RunState) {
	r.State = state
	r.Done = true
	r.CompletedAt = time.Now()
}

func (r *Run) Fail(msg string) {
	r.ErrorMsg = msg
	r.Complete(RunStateFailed)
}
