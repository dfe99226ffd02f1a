package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zazmarga/tango-api/internal/clock/system"
	"github.com/zazmarga/tango-api/internal/milonga"
	"github.com/zazmarga/tango-api/internal/server"
)

func newMilongasCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "milongas",
		Short: "Fetch the listing once and print today's milonga count",
		Long: `Fetches the configured listing page, counts the DanceEvent records
starting today in the listing's region and prints the snapshot as JSON.
Use --at to count for another instant (RFC 3339).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Context())
			if err != nil {
				return err
			}
			var clock milonga.Clock = system.New()
			if at != "" {
				ts, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				clock = system.NewFixed(ts)
			}

			counter := server.NewMilongaCounter(cfg.Milongas, clock, zap.NewNop())
			if err := counter.Warm(cmd.Context()); err != nil {
				return fmt.Errorf("refresh milongas: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(counter.Snapshot()); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "count as of this RFC 3339 instant instead of now")
	return cmd
}
