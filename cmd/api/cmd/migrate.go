package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"eventdesk.org/internal/migrate"
	"eventdesk.org/internal/obs"
)

func newMigrateCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withManager := func(run func(cmd *cobra.Command, m *migrate.Manager) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := obs.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			store, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			return run(cmd, migrate.NewManager(store.DB(), migrate.WithLogger(logger)))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withManager(func(cmd *cobra.Command, m *migrate.Manager) error {
			applied, err := m.Up(cmd.Context())
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return err
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withManager(func(cmd *cobra.Command, m *migrate.Manager) error {
			name, err := m.Down(cmd.Context())
			if errors.Is(err, migrate.ErrNothingToRollback) {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", name)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied migrations",
		Args:  cobra.NoArgs,
		RunE: withManager(func(cmd *cobra.Command, m *migrate.Manager) error {
			history, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range history {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}),
	})
	return cmd
}
