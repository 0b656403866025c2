package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pilot-dev/pilot/internal/adapters/screen"
	"github.com/pilot-dev/pilot/internal/adapters/sqlite"
	"github.com/pilot-dev/pilot/internal/confirm"
	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/orchestrator"
	"github.com/pilot-dev/pilot/internal/protocol"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <goal>",
		Short: "Plan and execute a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoal(args[0])
		},
	}
}

func runGoal(goal string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plan, err := buildPlanner(ctx, cfg)
	if err != nil {
		return err
	}

	confirmer := newTerminalConfirmer()
	patterns := cfg.Confirm.RiskPatterns
	if len(patterns) == 0 {
		patterns = confirm.DefaultRiskPatterns()
	}
	gate, err := confirm.NewGate(patterns, confirmer,
		time.Duration(cfg.Confirm.TimeoutSeconds)*time.Second, logger)
	if err != nil {
		return err
	}
	confirmer.gate = gate

	orch := orchestrator.New(plan, logger)
	orch.SetMaxSteps(cfg.Orchestrator.MaxSteps)
	orch.Register(domain.AgentTerminal, &orchestrator.TerminalAgent{
		Planner: plan,
		Gate:    gate,
		Config: domain.ExecutorConfig{
			MaxIterations:        cfg.Executor.MaxIterations,
			MaxConsecutiveErrors: cfg.Executor.MaxConsecutiveErrors,
		},
		Log: logger,
	})
	orch.Register(domain.AgentGeneral, &orchestrator.GeneralAgent{Planner: plan})

	if cfg.Orchestrator.PlanScreenshot {
		orch.SetDriver(screen.NewDriver(cfg.Driver.BaseURL))
	}

	if path, dbErr := dbPath(); dbErr == nil {
		if store, storeErr := sqlite.NewStore(path); storeErr == nil {
			defer store.Close()
			orch.SetStore(store)
		} else {
			logger.Warn("run store unavailable", zap.Error(storeErr))
		}
	}

	var handler orchestrator.StatusHandler = &textStatus{}
	if flagJSON {
		handler = &jsonStatus{w: protocol.NewStatusWriter(os.Stdout)}
	}
	if cwd, cwdErr := os.Getwd(); cwdErr == nil {
		handler = &historyStatus{workDir: cwd, inner: handler}
	}
	orch.SetStatusHandler(handler)

	run, err := orch.Run(ctx, goal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run %s: %s (%v)\n", run.ID, run.State, err)
		return err
	}
	fmt.Printf("run %s completed: %d/%d steps done\n", run.ID, run.CurrentStep, len(run.Steps))
	return nil
}

// terminalConfirmer is the human side of the confirmation gate: it prints the
// pending request and reads the decision from stdin in the background, so the
// gate's own timeout and cancellation still apply while the prompt is open.
type terminalConfirmer struct {
	gate *confirm.Gate
	mu   sync.Mutex
	in   *bufio.Reader
}

func newTerminalConfirmer() *terminalConfirmer {
	return &terminalConfirmer{in: bufio.NewReader(os.Stdin)}
}

func (t *terminalConfirmer) Request(_ context.Context, req domain.PendingConfirmation) error {
	fmt.Printf("\n!! risky command in %s:\n    %s\nallow? [y/N] ", req.Cwd, req.Command)
	go func() {
		t.mu.Lock()
		line, err := t.in.ReadString('\n')
		t.mu.Unlock()
		allowed := err == nil && (line == "y\n" || line == "Y\n" || line == "yes\n")
		t.gate.Resolve(req.RequestID, allowed)
	}()
	return nil
}

// textStatus renders run progress for humans.
type textStatus struct{}

func (textStatus) OnRunStarted(run *domain.Run) {
	fmt.Printf("run %s: %s\n", run.ID, run.Goal)
}

func (textStatus) OnPlanCreated(run *domain.Run) {
	fmt.Printf("plan: %d steps\n", len(run.Steps))
	for _, s := range run.Steps {
		fmt.Printf("  %d. [%s] %s\n", s.StepNumber, s.Agent, s.Action)
	}
}

func (textStatus) OnStepStart(_ *domain.Run, step *domain.Step) {
	fmt.Printf("-> step %d: %s\n", step.StepNumber, step.Action)
}

func (textStatus) OnStepComplete(_ *domain.Run, step *domain.Step) {
	fmt.Printf("   step %d: %s\n", step.StepNumber, step.Status)
}

func (textStatus) OnCommand(_ *domain.Run, _ *domain.Step, rec domain.CommandRecord) {
	status := "ok"
	if !rec.Success {
		status = "failed"
	}
	fmt.Printf("   $ %s  (%s)\n", rec.Command, status)
}

func (textStatus) OnRunComplete(run *domain.Run) {
	fmt.Printf("run %s: %s\n", run.ID, run.State)
}

// historyStatus mirrors run events into the workspace history log at
// .pilot/history.log, then delegates to the display handler.
type historyStatus struct {
	workDir string
	inner   orchestrator.StatusHandler
}

func (h *historyStatus) OnRunStarted(run *domain.Run) {
	protocol.AppendHistoryMarker(h.workDir, fmt.Sprintf("run %s started: %s", run.ID, run.Goal))
	h.inner.OnRunStarted(run)
}

func (h *historyStatus) OnPlanCreated(run *domain.Run) { h.inner.OnPlanCreated(run) }

func (h *historyStatus) OnStepStart(run *domain.Run, step *domain.Step) {
	h.inner.OnStepStart(run, step)
}

func (h *historyStatus) OnStepComplete(run *domain.Run, step *domain.Step) {
	h.inner.OnStepComplete(run, step)
}

func (h *historyStatus) OnCommand(run *domain.Run, step *domain.Step, rec domain.CommandRecord) {
	protocol.AppendHistory(h.workDir, run.ID, rec.Command, rec.Success, rec.Output)
	h.inner.OnCommand(run, step, rec)
}

func (h *historyStatus) OnRunComplete(run *domain.Run) {
	protocol.AppendHistoryMarker(h.workDir, fmt.Sprintf("run %s finished: %s", run.ID, run.State))
	h.inner.OnRunComplete(run)
}

// jsonStatus bridges orchestrator notifications onto the JSON-lines protocol.
type jsonStatus struct {
	w *protocol.StatusWriter
}

func (j *jsonStatus) OnRunStarted(run *domain.Run) {
	j.w.RunStarted(run.ID, run.Goal)
}

func (j *jsonStatus) OnPlanCreated(run *domain.Run) {
	j.w.PlanCreated(run.ID, len(run.Steps))
}

func (j *jsonStatus) OnStepStart(run *domain.Run, step *domain.Step) {
	j.w.StepStarted(run.ID, step.StepNumber, step.Action)
}

func (j *jsonStatus) OnStepComplete(run *domain.Run, step *domain.Step) {
	j.w.StepCompleted(run.ID, step.StepNumber, string(step.Status))
}

func (j *jsonStatus) OnCommand(run *domain.Run, step *domain.Step, rec domain.CommandRecord) {
	result := "ok"
	if !rec.Success {
		result = "failed"
	}
	j.w.CommandRun(run.ID, step.StepNumber, rec.Command, result)
}

func (j *jsonStatus) OnRunComplete(run *domain.Run) {
	j.w.RunCompleted(run.ID, string(run.State))
}
