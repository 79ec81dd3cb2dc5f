package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show service health",
		Example: `  empirectl health
  empirectl health --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			h, err := c.GetHealth(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(h)
			}
			return printHealthDetail(h)
		},
	}
}
