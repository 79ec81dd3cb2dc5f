package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func refreshPricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-prices",
		Short: "Trigger a reference price refresh",
		Long: "Ask the server to refresh its reference price table outside the\n" +
			"regular schedule. The refresh runs in the background; check\n" +
			"'jobs history reference_refresh' for the outcome.",
		Example: `  empirectl refresh-prices`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			if err := c.TriggerRefreshPrices(context.Background()); err != nil {
				return err
			}
			fmt.Println("Reference price refresh started.")
			return nil
		},
	}
}
