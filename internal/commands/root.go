// Package commands implements the budget command line tool.
package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rupeeriser/budget-buddy/internal/config"
	"github.com/rupeeriser/budget-buddy/internal/logger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "budget",
		Short: "Personal finance assistant",
		Long: "Interpret free-text transactions, ask for budget advice and manage the\n" +
			"analytics export and backups. Configuration comes from BUDGET_* variables.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level to stderr")

	env := &environment{verbose: &verbose}
	rootCmd.AddCommand(
		newParseCommand(env),
		newChatCommand(env),
		newPlanCommand(env),
		newMigrateCommand(env),
		newBackupCommand(env),
		newRestoreCommand(env),
		newReportCommand(env),
	)

	return rootCmd
}

// environment lazily loads what subcommands share.
type environment struct {
	verbose *bool
}

func (e *environment) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// logger writes to the command's stderr so stdout stays machine readable.
func (e *environment) logger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	level := "warn"
	if *e.verbose {
		level = "debug"
	} else if cfg != nil && cfg.LogLevel == "debug" {
		level = cfg.LogLevel
	}
	return logger.NewWithWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
		Level(logger.ParseLevel(level))
}
