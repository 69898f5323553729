package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventdesk.org/internal/obs"
)

func newSeedCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed builtin permissions, roles and the admin account",
		Long: `Seed the permission catalog, the Admin, Event Manager, Task Manager and
Viewer roles, and the admin account from ADMIN_* variables. Running it again
changes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if cfg.Database.URL == "" {
				return errNoDatabase
			}
			logger := obs.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

			b, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			if err := runSeed(cmd.Context(), b, cfg, logger); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
			return nil
		},
	}
}
