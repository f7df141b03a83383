package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/wesm/imsgvault/internal/query"
	"github.com/wesm/imsgvault/internal/textutil"
)

var listMessagesCmd = &cobra.Command{
	Use:   "list-messages",
	Short: "List messages, newest first",
	Long: `List messages newest first with their sender, attachments and reactions.

Examples:
  imsgvault list-messages -n 20
  imsgvault list-messages --after 2024-01-01 --before 2024-02-01
  imsgvault list-messages --contact 3 --contact 7 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseFilterFlags()
		if err != nil {
			return err
		}
		messages, err := openArchive().ListMessages(cmd.Context(), opts, listLimit)
		if err != nil {
			return storeError("list messages", err)
		}
		return outputMessages(cmd.OutOrStdout(), messages)
	},
}

var contactMessagesCmd = &cobra.Command{
	Use:   "contact-messages <contact-id>",
	Short: "Show the full message history with one contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid contact ID %q: use an ID from list-contacts", args[0])
		}
		opts, err := parseFilterFlags()
		if err != nil {
			return err
		}
		messages, err := openArchive().ListMessagesForContact(cmd.Context(), id, opts)
		if err != nil {
			return storeError("list messages", err)
		}
		return outputMessages(cmd.OutOrStdout(), messages)
	},
}

func outputMessages(out io.Writer, messages []query.Message) error {
	if jsonOutput {
		if messages == nil {
			messages = []query.Message{}
		}
		return printJSON(out, messages)
	}
	if len(messages) == 0 {
		fmt.Fprintln(out, "No messages found.")
		return nil
	}

	t := newTable(out, "DATE", "FROM", "TEXT", "EXTRAS")
	for _, m := range messages {
		text := ""
		if m.Text != nil {
			text = textutil.FirstLine(*m.Text)
		}
		t.row(m.Time(), cell(m.SenderName, 24), cell(text, 50), extras(m))
	}
	t.flush()
	fmt.Fprintf(out, "\nShowing %d messages\n", len(messages))
	return nil
}

func extras(m query.Message) string {
	s := ""
	if n := len(m.Attachments); n > 0 {
		s = fmt.Sprintf("%d att", n)
	}
	if n := len(m.Reactions); n > 0 {
		if s != "" {
			s += ", "
		}
		s += fmt.Sprintf("%d react", n)
	}
	return s
}

func init() {
	rootCmd.AddCommand(listMessagesCmd)
	addDateFlags(listMessagesCmd)
	addJSONFlag(listMessagesCmd)
	listMessagesCmd.Flags().Int64SliceVar(&filterContacts, "contact", nil, "Only messages with this contact ID (repeatable)")
	listMessagesCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "Maximum number of messages (0 for all)")

	rootCmd.AddCommand(contactMessagesCmd)
	addDateFlags(contactMessagesCmd)
	addJSONFlag(contactMessagesCmd)
}
