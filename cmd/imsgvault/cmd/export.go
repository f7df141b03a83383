package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/wesm/imsgvault/internal/export"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export conversations as text transcripts with an HTML viewer",
	Long: `Write one plain-text transcript per conversation, orphaned.txt for messages
that belong to no chat, and viewer.html, a self-contained page for browsing
the transcripts. Files are written with owner-only permissions.

Examples:
  imsgvault export
  imsgvault export --dir ~/Desktop/messages --after 2024-01-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseFilterFlags()
		if err != nil {
			return err
		}
		dir := exportDir
		if dir == "" {
			dir = cfg.ExportDir()
		}

		exportOpts := export.Options{Dir: dir, Filter: opts}
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			exportOpts.Progress = func(written, total int) {
				fmt.Fprintf(os.Stderr, "\rWriting files: %d/%d", written, total)
				if written == total {
					fmt.Fprintln(os.Stderr)
				}
			}
		}

		res, err := export.NewExporter(openArchive(), export.WithLogger(logger)).Export(cmd.Context(), exportOpts)
		if err != nil {
			return storeError("export", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, res)
		}
		fmt.Fprintf(out, "Exported %d messages in %d conversations to %s\n", res.Messages, res.Conversations, res.Dir)
		fmt.Fprintf(out, "Open %s in a browser to read them.\n", export.ViewerFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportDir, "dir", "o", "", "Output directory (default: <data_dir>/exports)")
	exportCmd.Flags().Int64SliceVar(&filterContacts, "contact", nil, "Only messages with this contact ID (repeatable)")
	addDateFlags(exportCmd)
	addJSONFlag(exportCmd)
}
