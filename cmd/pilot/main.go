package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pilot-dev/pilot/internal/config"
	"github.com/pilot-dev/pilot/internal/planner"
	"github.com/pilot-dev/pilot/internal/ports"
)

var (
	flagConfig string
	flagDebug  bool
	flagJSON   bool

	logger *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "pilot",
		Short:         "Goal-driven desktop automation",
		Long:          "pilot turns a natural-language goal into planned, bounded terminal and UI actions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a TOML config file (default .pilot/config)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit progress as JSON lines")

	root.AddCommand(newRunCmd())
	root.AddCommand(newClickCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newShowCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func initLogger() error {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if flagDebug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.Development = true
	}
	var err error
	logger, err = cfg.Build()
	return err
}

func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(cwd)
}

// buildPlanner selects the planner backend from config: the Gemini API when a
// key is available, otherwise the configured agent CLI.
func buildPlanner(ctx context.Context, cfg *config.Config) (ports.Planner, error) {
	switch cfg.Planner.Provider {
	case "", "gemini":
		keyEnv := cfg.Planner.APIKeyEnv
		if keyEnv == "" {
			keyEnv = "GEMINI_API_KEY"
		}
		key := os.Getenv(keyEnv)
		if key == "" {
			if cfg.Planner.Command != "" {
				return planner.NewCommandClient(cfg.Planner.Command, cfg.Planner.CommandArgs...), nil
			}
			return nil, fmt.Errorf("planner API key not set (%s)", keyEnv)
		}
		return planner.NewGeminiClient(ctx, key, cfg.Planner.Model, logger)
	case "command":
		return planner.NewCommandClient(cfg.Planner.Command, cfg.Planner.CommandArgs...), nil
	default:
		return nil, fmt.Errorf("unknown planner provider %q", cfg.Planner.Provider)
	}
}

// dbPath resolves the run store location: $PILOT_DB, else ~/.pilot/pilot.db.
func dbPath() (string, error) {
	if p := os.Getenv("PILOT_DB"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".pilot")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "pilot.db"), nil
}
