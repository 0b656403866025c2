package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pilot-dev/pilot/internal/adapters/screen"
	"github.com/pilot-dev/pilot/internal/grid"
	"github.com/pilot-dev/pilot/internal/ports"
)

func newClickCmd() *cobra.Command {
	var (
		action   string
		data     string
		gridSize int
	)

	cmd := &cobra.Command{
		Use:   "click <description>",
		Short: "Locate a UI element by description and act on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return visionAct(args[0], action, data, gridSize)
		},
	}

	cmd.Flags().StringVar(&action, "action", "click", "click, double-click, right-click, type, or press")
	cmd.Flags().StringVar(&data, "data", "", "text to type or key to press")
	cmd.Flags().IntVar(&gridSize, "grid", 0, "grid size override (2-10)")
	return cmd
}

func visionAct(description, actionName, data string, gridSize int) error {
	act, err := grid.ParseAction(actionName)
	if err != nil {
		return err
	}
	if (act == grid.ActionTypeText || act == grid.ActionPressKey) && data == "" {
		return fmt.Errorf("action %q requires --data", act)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if gridSize == 0 {
		gridSize = cfg.Grid.Size
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plan, err := buildPlanner(ctx, cfg)
	if err != nil {
		return err
	}
	driver := screen.NewDriver(cfg.Driver.BaseURL)
	refiner := grid.NewRefiner(driver, plan, gridSize, cfg.Grid.Verify, logger)

	res, err := refiner.Act(ctx, description, act, data)
	if err != nil {
		if errors.Is(err, ports.ErrTargetNotFound) {
			fmt.Fprintf(os.Stderr, "element not found: %q (try describing it differently)\n", description)
		}
		return err
	}

	fmt.Printf("%s at (%d, %d)\n", act, res.Point.X, res.Point.Y)
	if res.Reason != "" {
		fmt.Printf("  %s\n", res.Reason)
	}
	return nil
}
