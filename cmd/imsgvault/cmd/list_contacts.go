package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listContactsCmd = &cobra.Command{
	Use:   "list-contacts",
	Short: "List phone numbers and addresses with message counts",
	Long: `List every handle in chat.db with its resolved contact name and message
count, busiest first. Handle IDs can be passed to --contact on other commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		contacts, err := openArchive().ListContacts(cmd.Context())
		if err != nil {
			return storeError("list contacts", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, contacts)
		}
		if len(contacts) == 0 {
			fmt.Fprintln(out, "No contacts found.")
			return nil
		}

		t := newTable(out, "ID", "NAME", "IDENTIFIER", "MESSAGES")
		for _, c := range contacts {
			t.row(c.ID, cell(deref(c.DisplayName, c.Identifier), 30), cell(c.Identifier, 30), c.MessageCount)
		}
		t.flush()
		fmt.Fprintf(out, "\n%d contacts\n", len(contacts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listContactsCmd)
	addJSONFlag(listContactsCmd)
}
