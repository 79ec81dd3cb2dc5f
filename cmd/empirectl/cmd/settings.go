package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func settingsCmd() *cobra.Command {
	settingsRoot := &cobra.Command{
		Use:   "settings",
		Short: "Manage matching settings",
		Long: "Inspect and replace the matching settings: the price deviation band,\n" +
			"the keychain percentage threshold, and the enabled keychain set.\n" +
			"Every replacement bumps the ruleset version and applies immediately.",
	}

	settingsRoot.AddCommand(
		settingsGetCmd(),
		settingsSetBandCmd(),
		settingsSetThresholdCmd(),
		settingsSetKeychainsCmd(),
	)

	return settingsRoot
}

func settingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the active settings",
		Example: `  empirectl settings get
  empirectl settings get --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			s, err := c.GetSettings(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(s)
			}
			return printSettingsDetail(s)
		},
	}
}

func settingsSetBandCmd() *cobra.Command {
	var (
		bandMin float64
		bandMax float64
	)

	cmd := &cobra.Command{
		Use:   "set-band",
		Short: "Replace the price deviation band",
		Long: "Replace the [min, max] percentage band an item's above-recommended\n" +
			"deviation must fall inside. Both bounds are inclusive.",
		Example: `  # Accept items priced between 50% under and 5% over recommended
  empirectl settings set-band --min -50 --max 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("min") || !cmd.Flags().Changed("max") {
				return fmt.Errorf("--min and --max are required")
			}
			c := newClient()
			resp, err := c.ReplacePriceBand(context.Background(), bandMin, bandMax)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			fmt.Printf("Price band set to [%.2f%%, %.2f%%] (version %d).\n",
				resp.PriceBand.Min, resp.PriceBand.Max, resp.Version)
			return nil
		},
	}
	cmd.Flags().Float64Var(&bandMin, "min", 0, "lower deviation bound (percent)")
	cmd.Flags().Float64Var(&bandMax, "max", 0, "upper deviation bound (percent)")

	return cmd
}

func settingsSetThresholdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-threshold <percentage>",
		Short: "Replace the keychain threshold",
		Long: "Replace the minimum charm-price-to-market-value percentage for a\n" +
			"keychain match. A charm worth $7 on a $10 item is 70%.",
		Example: `  empirectl settings set-threshold 50`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			pct, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid percentage %q: %w", args[0], err)
			}
			c := newClient()
			resp, err := c.ReplaceKeychainThreshold(context.Background(), pct)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			fmt.Printf("Keychain threshold set to %.2f%% (version %d).\n",
				resp.KeychainThreshold, resp.Version)
			return nil
		},
	}
}

func settingsSetKeychainsCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "set-keychains [name]...",
		Short: "Replace the enabled keychain set",
		Long: "Replace the enabled keychain set wholesale with the given charm names.\n" +
			"Names are matched case-insensitively against the charm table. Pass\n" +
			"--clear instead of names to disable keychain matching entirely.",
		Example: `  empirectl settings set-keychains "Hot Howl" "Baby Karat T"
  empirectl settings set-keychains --clear`,
		Args: cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 && !clear {
				return fmt.Errorf("pass charm names, or --clear to disable all")
			}
			if len(args) > 0 && clear {
				return fmt.Errorf("--clear cannot be combined with names")
			}
			c := newClient()
			resp, err := c.ReplaceEnabledKeychains(context.Background(), args)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			fmt.Printf("Enabled keychains: %s (version %d).\n",
				joinNames(resp.EnabledKeychains), resp.Version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "disable all keychains")

	return cmd
}
