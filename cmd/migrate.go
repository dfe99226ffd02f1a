package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zazmarga/tango-api/internal/logging"
	"github.com/zazmarga/tango-api/internal/server"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the quote schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Context())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush

			store, err := server.OpenQuoteStore(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", strings.TrimSpace(cfg.Database.Driver))
			return nil
		},
	}
}
