package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilot-dev/pilot/internal/domain"
)

func TestRun_Lifecycle(t *testing.T) {
	run := domain.NewRun("run-test-0001", "list the files", "/tmp")
	assert.Equal(t, domain.RunStatePlanning, run.State)
	assert.False(t, run.Done)
	assert.True(t, run.StartedAt.IsZero())

	run.Start()
	assert.Equal(t, domain.RunStateExecuting, run.State)
	assert.False(t, run.StartedAt.IsZero())

	run.Complete(domain.RunStateCompleted)
	assert.Equal(t, domain.RunStateCompleted, run.State)
	assert.True(t, run.Done)
	assert.False(t, run.CompletedAt.IsZero())
}

func TestRun_FailSetsTerminalFlag(t *testing.T) {
	run := domain.NewRun("run-test-0002", "goal", "/tmp")
	run.Start()
	run.Fail("step 2 failed")

	assert.Equal(t, domain.RunStateFailed, run.State)
	assert.True(t, run.Done, "failure still ends the run")
	assert.Equal(t, "step 2 failed", run.ErrorMsg)
}

func TestRunState_Terminal(t *testing.T) {
	assert.False(t, domain.RunStatePlanning.Terminal())
	assert.False(t, domain.RunStateExecuting.Terminal())
	assert.True(t, domain.RunStateCompleted.Terminal())
	assert.True(t, domain.RunStateFailed.Terminal())
	assert.True(t, domain.RunStateCancelled.Terminal())
}

func TestRun_StepByNumber(t *testing.T) {
	run := domain.NewRun("run-test-0003", "goal", "/tmp")
	run.Steps = []*domain.Step{
		{StepNumber: 1, Agent: domain.AgentTerminal, Action: "first"},
		{StepNumber: 2, Agent: domain.AgentGeneral, Action: "second"},
	}

	step, err := run.StepByNumber(2)
	require.NoError(t, err)
	assert.Equal(t, "second", step.Action)

	_, err = run.StepByNumber(0)
	assert.Error(t, err)
	_, err = run.StepByNumber(3)
	assert.Error(t, err)
}

func TestRun_RecordHistoryAppends(t *testing.T) {
	run := domain.NewRun("run-test-0004", "goal", "/tmp")
	run.RecordHistory(1, "echo one", "one")
	run.RecordHistory(1, "echo two", "two")
	run.RecordHistory(2, "echo three", "three")

	require.Len(t, run.History, 3)
	assert.Equal(t, domain.HistoryEntry{Step: 1, Command: "echo two", Output: "two"}, run.History[1])
	assert.Equal(t, 2, run.History[2].Step)
}

func TestGenerateRunID(t *testing.T) {
	id := domain.GenerateRunID()
	assert.Regexp(t, `^run-[a-z]+-[a-z]+-\d{4}$`, id)
}
