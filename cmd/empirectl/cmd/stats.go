package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show engine counters",
		Long: "Show the matching engine's counters: items processed, matches by\n" +
			"category, rejections, suppressed duplicates, and delivery totals.",
		Example: `  empirectl stats
  empirectl stats --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			s, err := c.GetStats(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(s)
			}
			return printStatsDetail(s)
		},
	}
}
