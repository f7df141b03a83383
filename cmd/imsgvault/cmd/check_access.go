package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wesm/imsgvault/internal/query"
)

var errStoreInaccessible = errors.New("message store is not accessible")

var checkAccessCmd = &cobra.Command{
	Use:   "check-access",
	Short: "Check that the Messages and Contacts databases can be read",
	Long: `Check that chat.db can be opened read-only and queried, and that at least
one Contacts database yields names. Exits non-zero when chat.db is not
readable, with instructions for granting Full Disk Access.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := openArchive()
		status := a.CheckStoreAccessible(cmd.Context())
		contactsOK := a.CheckContactsAccessible(cmd.Context())

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := printJSON(out, struct {
				Database           query.DatabaseStatus `json:"database"`
				ContactsAccessible bool                 `json:"contacts_accessible"`
			}{status, contactsOK}); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "Messages database: %s\n", deref(&status.Path, "(unknown)"))
			if status.Accessible {
				fmt.Fprintln(out, "  Status: accessible")
			} else {
				fmt.Fprintf(out, "  Status: not accessible\n  %s\n", deref(status.Error, "unknown error"))
			}
			if contactsOK {
				fmt.Fprintln(out, "Contacts: accessible")
			} else {
				fmt.Fprintln(out, "Contacts: no names found (numbers and addresses will be shown as-is)")
			}
		}

		if !status.Accessible {
			return errStoreInaccessible
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkAccessCmd)
	addJSONFlag(checkAccessCmd)
}
