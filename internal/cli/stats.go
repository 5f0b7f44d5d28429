package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qom/internal/metrics"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print runtime metrics after building the machine",
		Long:  "Build the machine and print the runtime's counters in the Prometheus\ntext exposition format.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			if err := metrics.WriteText(cmd.OutOrStdout(), s.registry); err != nil {
				return sysError("write metrics: %w", err)
			}
			return nil
		},
	}
}
