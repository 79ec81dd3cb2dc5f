package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	apiclient "github.com/Sadat41/Empire-Enhanced-sub001/internal/api/client"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printHealthDetail(h *apiclient.HealthResponse) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Status:\t%s\n", h.Status)
	tw.writef("Uptime:\t%ds\n", h.UptimeSeconds)
	tw.writef("Feed Connected:\t%v\n", h.FeedConnected)
	tw.writef("Rules Version:\t%d\n", h.RulesVersion)
	tw.writef("Ledger Size:\t%d\n", h.LedgerSize)
	return tw.finish()
}

func printStatsDetail(s *apiclient.StatsResponse) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Items Processed:\t%d\n", s.Engine.ItemsProcessed)
	tw.writef("Specific Matches:\t%d\n", s.Engine.SpecificMatches)
	tw.writef("Keychain Matches:\t%d\n", s.Engine.KeychainMatches)
	tw.writef("Universal Matches:\t%d\n", s.Engine.UniversalMatches)
	tw.writef("Rejected:\t%d\n", s.Engine.Rejected)
	tw.writef("Duplicates Suppressed:\t%d\n", s.Engine.DuplicatesSuppressed)
	tw.writef("Notifications Sent:\t%d\n", s.Engine.NotificationsSent)
	tw.writef("Notifications Failed:\t%d\n", s.Engine.NotificationsFailed)
	tw.writef("Ledger Size:\t%d\n", s.LedgerSize)
	tw.writef("Rules Version:\t%d\n", s.RulesVersion)
	return tw.finish()
}

func printSettingsDetail(s *apiclient.SettingsResponse) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Version:\t%d\n", s.Version)
	tw.writef("Price Band:\t[%.2f%%, %.2f%%]\n", s.PriceBand.Min, s.PriceBand.Max)
	tw.writef("Keychain Threshold:\t%.2f%%\n", s.KeychainThreshold)
	tw.writef("Enabled Keychains:\t%d\n", len(s.EnabledKeychains))
	tw.writef("Target Entries:\t%d\n", len(s.Entries))
	tw.writef("Updated:\t%s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))
	if err := tw.finish(); err != nil {
		return err
	}
	if len(s.EnabledKeychains) > 0 {
		fmt.Println("\nEnabled keychains:")
		for _, name := range s.EnabledKeychains {
			fmt.Println("  " + name)
		}
	}
	return nil
}

func printTargetsTable(entries []domain.TargetEntry) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tKEYWORD\tFLOAT\tPERCENT\tPRICE\n")
	for i := range entries {
		e := &entries[i]
		keyword := e.Keyword
		if e.IsUniversal() {
			keyword = "(universal)"
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			truncate(keyword, 40),
			formatFloatFilter(e.Float),
			formatPercentFilter(e.PercentDiff),
			formatPriceFilter(e.Price),
		)
	}
	return tw.finish()
}

func formatFloatFilter(f *domain.FloatFilter) string {
	if f == nil || !f.Enabled {
		return "-"
	}
	return fmt.Sprintf("[%.3f, %.3f]", f.Min, f.Max)
}

func formatPercentFilter(f *domain.PercentDiffFilter) string {
	if f == nil || !f.Enabled {
		return "-"
	}
	return formatRange(f.Min, f.Max)
}

func formatPriceFilter(f *domain.PriceFilter) string {
	if f == nil || !f.Enabled {
		return "-"
	}
	return formatRange(f.Min, f.Max)
}

// formatRange renders an optional-bound range, using * for an unbounded side.
func formatRange(min, max *float64) string {
	lo, hi := "*", "*"
	if min != nil {
		lo = fmt.Sprintf("%.2f", *min)
	}
	if max != nil {
		hi = fmt.Sprintf("%.2f", *max)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}

func printCharmsTable(charms []charm.Charm) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("NAME\tCATEGORY\tPRICE\n")
	for i := range charms {
		tw.writef("%s\t%s\t$%.2f\n",
			charms[i].Name,
			charms[i].Category,
			charms[i].Price,
		)
	}
	return tw.finish()
}

func printNotificationsTable(items []domain.NotifiedItem) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("NOTIFIED\tTYPE\tITEM\tVALUE\tMATCH\n")
	for i := range items {
		n := &items[i]
		tw.writef("%s\t%s\t%s\t$%.2f\t%s\n",
			n.NotifiedAt.Format("2006-01-02 15:04:05"),
			n.NotificationType,
			truncate(n.MarketName, 40),
			float64(n.MarketValue)/100,
			matchDetail(n),
		)
	}
	return tw.finish()
}

// matchDetail renders what fired the notification: the keyword for target
// matches, the charm for keychain matches.
func matchDetail(n *domain.NotifiedItem) string {
	switch {
	case n.CharmName != "":
		detail := n.CharmName
		if n.CharmCategory != "" {
			detail += " (" + n.CharmCategory + ")"
		}
		return detail
	case n.MatchedKeyword != "":
		return "keyword: " + n.MatchedKeyword
	default:
		return "-"
	}
}

func printJobRunsTable(runs []domain.JobRun) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("JOB\tSTATUS\tSTARTED\tCOMPLETED\tITEMS\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format("2006-01-02 15:04:05")
		}
		items := "-"
		if r.ItemsProcessed != nil {
			items = fmt.Sprintf("%d", *r.ItemsProcessed)
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			completed,
			items,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// joinNames renders a name list for confirmation messages.
func joinNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
