package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eventdesk.org/internal/config"
)

// flags shared by every subcommand
type globalFlags struct {
	logLevel  string
	logFormat string
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "eventdesk",
		Short: "eventdesk API - authentication and role based access control",
		Long: `eventdesk API serves login, registration and role administration for the
event and task management backend.

Configuration is read from the environment (DATABASE_URL, JWT_SECRET, ...).
Without DATABASE_URL the server keeps its data in memory.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format (json, console) (default: json)")

	root.AddCommand(newServeCommand(flags))
	root.AddCommand(newSeedCommand(flags))
	root.AddCommand(newMigrateCommand(flags))
	root.AddCommand(newVersionCommand())
	return root
}

func (f *globalFlags) loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Logging.Format = f.logFormat
	}
	return cfg, nil
}
