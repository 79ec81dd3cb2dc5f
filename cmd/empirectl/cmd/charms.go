package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func charmsCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "charms",
		Short: "List the charm price table",
		Long: "List the static charm vocabulary the keychain detector works from:\n" +
			"name, rarity category, and table price.",
		Example: `  empirectl charms
  empirectl charms --category red
  empirectl charms --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			charms, err := c.ListCharms(context.Background(), category)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(charms)
			}
			if len(charms) == 0 {
				fmt.Println("No charms found.")
				return nil
			}
			return printCharmsTable(charms)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "rarity filter (red, pink, purple, blue)")

	return cmd
}
