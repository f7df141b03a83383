package cmd

import (
	"github.com/spf13/cobra"
	mcpserver "github.com/wesm/imsgvault/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server over stdio",
	Long: `Start an MCP (Model Context Protocol) server over stdio so MCP clients can
read your message history with the tools check_access, list_contacts,
list_chats, get_stats, list_messages and get_contact_messages.

Example client configuration:
  {
    "mcpServers": {
      "imsgvault": {
        "command": "imsgvault",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpserver.Serve(cmd.Context(), openArchive(), Version)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
