package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

func targetsCmd() *cobra.Command {
	targetsRoot := &cobra.Command{
		Use:   "targets",
		Short: "Manage the target list",
		Long: "Manage the ordered list of target entries the engine matches items\n" +
			"against. The server replaces the list wholesale; add and remove fetch\n" +
			"the current list, modify it locally, and push the result back.",
	}

	targetsRoot.AddCommand(
		targetsListCmd(),
		targetsReplaceCmd(),
		targetsAddCmd(),
		targetsRemoveCmd(),
	)

	return targetsRoot
}

func targetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List target entries",
		Example: `  empirectl targets list
  empirectl targets list --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			entries, err := c.ListTargets(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println("No target entries.")
				return nil
			}
			return printTargetsTable(entries)
		},
	}
}

func targetsReplaceCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace the whole target list",
		Long: "Replace the whole target list from a JSON file (an array of entries).\n" +
			"Pass --file - to read from stdin. Entries without ids get one assigned.",
		Example: `  empirectl targets replace --file targets.json
  empirectl targets list --output json | jq 'map(select(.keyword != "AWP"))' | empirectl targets replace --file -`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			entries, err := readTargetsFile(file)
			if err != nil {
				return err
			}
			c := newClient()
			resp, err := c.ReplaceTargets(context.Background(), entries)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			fmt.Printf("Target list replaced: %d entries (version %d).\n",
				len(resp.Entries), resp.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the new target list (- for stdin)")

	return cmd
}

func readTargetsFile(path string) ([]domain.TargetEntry, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path from trusted CLI flag
	}
	if err != nil {
		return nil, fmt.Errorf("reading target list: %w", err)
	}

	var entries []domain.TargetEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing target list: %w", err)
	}
	return entries, nil
}

func targetsAddCmd() *cobra.Command {
	var (
		keyword    string
		universal  bool
		filterArgs []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a target entry",
		Long: "Append one entry to the target list. Give a keyword to match item\n" +
			"names against, or --universal for an entry that matches every item\n" +
			"and applies only its filters.",
		Example: `  # Match any Karambit
  empirectl targets add --keyword "Karambit"

  # Match factory-new Redlines under $80
  empirectl targets add --keyword "AK-47 | Redline" \
    --filter "float_max=0.07" --filter "price_max=80"

  # Flag anything at least 30% under recommended price
  empirectl targets add --universal --filter "percent_min=-100" --filter "percent_max=-30"`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if keyword == "" && !universal {
				return fmt.Errorf("--keyword or --universal is required")
			}
			if keyword != "" && universal {
				return fmt.Errorf("--universal cannot be combined with --keyword")
			}

			entry := domain.TargetEntry{Keyword: keyword, Universal: universal}
			if err := applyTargetFilters(&entry, filterArgs); err != nil {
				return fmt.Errorf("parsing filters: %w", err)
			}

			c := newClient()
			ctx := context.Background()

			entries, err := c.ListTargets(ctx)
			if err != nil {
				return err
			}
			resp, err := c.ReplaceTargets(ctx, append(entries, entry))
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			added := resp.Entries[len(resp.Entries)-1]
			name := added.Keyword
			if added.IsUniversal() {
				name = "(universal)"
			}
			fmt.Printf("Target added: %s (%s, version %d).\n", name, added.ID, resp.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyword, "keyword", "", "substring to match item names against")
	cmd.Flags().BoolVar(&universal, "universal", false, "match every item, applying only filters")
	cmd.Flags().StringArrayVar(&filterArgs, "filter", nil, "sub-filters (key=value)")

	return cmd
}

func targetsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Short:   "Remove a target entry",
		Example: `  empirectl targets remove 5f8d7a2e-1c3b-4f6a-9e8d-7a2e1c3b4f6a`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id := args[0]
			c := newClient()
			ctx := context.Background()

			entries, err := c.ListTargets(ctx)
			if err != nil {
				return err
			}

			kept := make([]domain.TargetEntry, 0, len(entries))
			for i := range entries {
				if entries[i].ID != id {
					kept = append(kept, entries[i])
				}
			}
			if len(kept) == len(entries) {
				return fmt.Errorf("no target entry with id %q", id)
			}

			resp, err := c.ReplaceTargets(ctx, kept)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			fmt.Printf("Target %s removed (%d entries remain, version %d).\n",
				id, len(resp.Entries), resp.Version)
			return nil
		},
	}
}
