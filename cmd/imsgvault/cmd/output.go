package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wesm/imsgvault/internal/query"
	"github.com/wesm/imsgvault/internal/textutil"
)

// Shared filter and output flags.
var (
	filterAfter    string
	filterBefore   string
	filterContacts []int64
	listLimit      int
	jsonOutput     bool
)

// addDateFlags adds --after and --before to cmd.
func addDateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterAfter, "after", "", "Only messages on or after date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filterBefore, "before", "", "Only messages before date (YYYY-MM-DD)")
}

// addJSONFlag adds --json to cmd.
func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
}

// parseFilterFlags builds the message filter from the shared flags.
func parseFilterFlags() (query.ExportOptions, error) {
	after, err := query.ParseDate(filterAfter)
	if err != nil {
		return query.ExportOptions{}, fmt.Errorf("--after: %w", err)
	}
	before, err := query.ParseDate(filterBefore)
	if err != nil {
		return query.ExportOptions{}, fmt.Errorf("--before: %w", err)
	}
	opts := query.ExportOptions{ContactIDs: filterContacts}.WithDates(after, before)
	return opts, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes aligned columns with an underline row beneath the headers.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	rules := make([]string, len(headers))
	for i, h := range headers {
		rules[i] = strings.Repeat("─", len(h))
	}
	fmt.Fprintln(t.tw, strings.Join(headers, "\t"))
	fmt.Fprintln(t.tw, strings.Join(rules, "\t"))
	return t
}

func (t *table) row(cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.tw, strings.Join(parts, "\t"))
}

func (t *table) flush() {
	_ = t.tw.Flush()
}

// cell fits s into a table column.
func cell(s string, width int) string {
	return textutil.TruncateWidth(s, width)
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
