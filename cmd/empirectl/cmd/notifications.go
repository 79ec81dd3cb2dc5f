package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/Sadat41/Empire-Enhanced-sub001/internal/api/client"
)

func notificationsCmd() *cobra.Command {
	var params apiclient.ListNotificationsParams

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Browse notification history",
		Example: `  empirectl notifications
  empirectl notifications --type keychain --limit 20
  empirectl notifications --keyword Karambit --order-by market_value`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListNotifications(context.Background(), &params)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			if len(resp.Notifications) == 0 {
				fmt.Println("No notifications found.")
				return nil
			}
			if err := printNotificationsTable(resp.Notifications); err != nil {
				return err
			}
			fmt.Printf("\n%d of %d notifications.\n", len(resp.Notifications), resp.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Type, "type", "", "notification type (target_item, keychain)")
	cmd.Flags().StringVar(&params.Keyword, "keyword", "", "market-name substring filter")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "max rows (server default 50)")
	cmd.Flags().IntVar(&params.Offset, "offset", 0, "rows to skip")
	cmd.Flags().StringVar(&params.OrderBy, "order-by", "",
		"sort column (notified_at, market_value, market_name)")

	return cmd
}
