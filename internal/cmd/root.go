package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kdh92417/team-tasks/internal/config"
	"github.com/kdh92417/team-tasks/internal/observability"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "team-tasks",
	Short: "Team task delegation service",
	Long: `team-tasks tracks tasks that a creator delegates to one or more teams.
Each team completes its own sub-task; the task completes once all of them are done.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap loads configuration and builds the logger shared by subcommands.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.With(zap.String("service", cfg.App.Name), zap.String("env", cfg.App.Env)), nil
}
