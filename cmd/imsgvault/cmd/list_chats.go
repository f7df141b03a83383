package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wesm/imsgvault/internal/export"
)

var listChatsCmd = &cobra.Command{
	Use:   "list-chats",
	Short: "List conversations with participants and message counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		chats, err := openArchive().ListChats(cmd.Context())
		if err != nil {
			return storeError("list chats", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, chats)
		}
		if len(chats) == 0 {
			fmt.Fprintln(out, "No chats found.")
			return nil
		}

		t := newTable(out, "ID", "NAME", "TYPE", "PARTICIPANTS", "MESSAGES")
		for _, c := range chats {
			kind := "direct"
			if c.IsGroup {
				kind = "group"
			}
			t.row(c.ID, cell(export.ChatTitle(c), 30), kind, cell(strings.Join(c.Participants, ", "), 40), c.MessageCount)
		}
		t.flush()
		fmt.Fprintf(out, "\n%d chats\n", len(chats))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listChatsCmd)
	addJSONFlag(listChatsCmd)
}
