package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pilot-dev/pilot/internal/adapters/sqlite"
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List past runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(context.Background())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs found.")
				return nil
			}
			for _, run := range runs {
				fmt.Printf("%-28s  %-10s  %s  %s\n",
					run.ID, run.State, run.StartedAt.Format(time.RFC3339), run.Goal)
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run's steps and command log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Run:   %s\n", run.ID)
			fmt.Printf("Goal:  %s\n", run.Goal)
			fmt.Printf("State: %s\n", run.State)
			if run.ErrorMsg != "" {
				fmt.Printf("Error: %s\n", run.ErrorMsg)
			}
			for _, step := range run.Steps {
				fmt.Printf("  %d. [%s] %s (%s)\n", step.StepNumber, step.Agent, step.Action, step.Status)
			}

			cmds, err := store.GetCommands(ctx, run.ID)
			if err != nil {
				return err
			}
			if len(cmds) > 0 {
				fmt.Println("Commands:")
				for _, rec := range cmds {
					status := "ok"
					if !rec.Success {
						status = "failed"
					}
					fmt.Printf("  $ %s  (%s)\n", rec.Command, status)
				}
			}
			return nil
		},
	}
}

func openStore() (*sqlite.Store, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path)
}
