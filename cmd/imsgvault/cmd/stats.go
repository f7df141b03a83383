package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wesm/imsgvault/internal/appletime"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show message statistics",
	Long: `Show totals of sent and received messages, the number of handles, and the
date range covered. --after and --before restrict the counted messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseFilterFlags()
		if err != nil {
			return err
		}
		a := openArchive()
		stats, err := a.GetStats(cmd.Context(), opts)
		if err != nil {
			return storeError("get stats", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, stats)
		}

		path, _ := a.ChatDBPath()
		fmt.Fprintf(out, "Database: %s\n", path)
		fmt.Fprintf(out, "  Messages:  %d\n", stats.TotalMessages)
		fmt.Fprintf(out, "  Sent:      %d\n", stats.MessagesSent)
		fmt.Fprintf(out, "  Received:  %d\n", stats.MessagesReceived)
		fmt.Fprintf(out, "  Contacts:  %d\n", stats.TotalContacts)
		if stats.DateRangeStart != nil && stats.DateRangeEnd != nil {
			fmt.Fprintf(out, "  Range:     %s to %s\n",
				appletime.Format(*stats.DateRangeStart), appletime.Format(*stats.DateRangeEnd))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addDateFlags(statsCmd)
	addJSONFlag(statsCmd)
}
