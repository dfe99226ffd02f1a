package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zazmarga/tango-api/internal/logging"
	"github.com/zazmarga/tango-api/internal/quote"
	"github.com/zazmarga/tango-api/internal/server"
)

func newImportQuotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-quotes <file.yaml>",
		Short: "Bulk insert quotes from a YAML list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open quotes file: %w", err)
			}
			defer f.Close()

			quotes, err := quote.DecodeYAML(f)
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
			defer store.Close()

			n, err := quote.NewService(store, nil, logger).Import(cmd.Context(), quotes)
			if err != nil {
				return fmt.Errorf("imported %d of %d quotes: %w", n, len(quotes), err)
			}
			total, err := store.CountAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("count quotes: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d quotes, %d in store\n", n, total)
			return nil
		},
	}
}
