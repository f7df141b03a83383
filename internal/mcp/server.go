// Package mcp exposes the message archive to MCP clients over stdio.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wesm/imsgvault/internal/archive"
)

// Tool name constants.
const (
	ToolCheckAccess        = "check_access"
	ToolListContacts       = "list_contacts"
	ToolListChats          = "list_chats"
	ToolGetStats           = "get_stats"
	ToolListMessages       = "list_messages"
	ToolGetContactMessages = "get_contact_messages"
)

const defaultListMessageLimit = 50

func withAfter() mcp.ToolOption {
	return mcp.WithString("after",
		mcp.Description("Only messages on or after this date (YYYY-MM-DD)"),
	)
}

func withBefore() mcp.ToolOption {
	return mcp.WithString("before",
		mcp.Description("Only messages before this date (YYYY-MM-DD)"),
	)
}

// NewServer builds an MCP server with the archive tools registered.
func NewServer(reader archive.Reader, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"imsgvault",
		version,
		server.WithToolCapabilities(false),
	)

	h := &handlers{reader: reader}

	s.AddTool(checkAccessTool(), h.checkAccess)
	s.AddTool(listContactsTool(), h.listContacts)
	s.AddTool(listChatsTool(), h.listChats)
	s.AddTool(getStatsTool(), h.getStats)
	s.AddTool(listMessagesTool(), h.listMessages)
	s.AddTool(getContactMessagesTool(), h.getContactMessages)
	return s
}

// Serve serves the archive tools over stdio. It blocks until stdin is
// closed or the context is cancelled.
func Serve(ctx context.Context, reader archive.Reader, version string) error {
	stdio := server.NewStdioServer(NewServer(reader, version))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func checkAccessTool() mcp.Tool {
	return mcp.NewTool(ToolCheckAccess,
		mcp.WithDescription("Check whether the Messages database and the Contacts databases can be read. Reports the Full Disk Access guidance when access is denied."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listContactsTool() mcp.Tool {
	return mcp.NewTool(ToolListContacts,
		mcp.WithDescription("List every phone number or email address in the Messages database with its resolved contact name and message count, busiest first."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listChatsTool() mcp.Tool {
	return mcp.NewTool(ToolListChats,
		mcp.WithDescription("List conversations with their participants and message counts, busiest first."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func getStatsTool() mcp.Tool {
	return mcp.NewTool(ToolGetStats,
		mcp.WithDescription("Get message totals (sent, received, contacts) and the date range covered."),
		mcp.WithReadOnlyHintAnnotation(true),
		withAfter(),
		withBefore(),
	)
}

func listMessagesTool() mcp.Tool {
	return mcp.NewTool(ToolListMessages,
		mcp.WithDescription("List messages newest first with attachments and tapback reactions. Use list_contacts to find contact IDs."),
		mcp.WithReadOnlyHintAnnotation(true),
		withAfter(),
		withBefore(),
		mcp.WithNumber("contact_id",
			mcp.Description("Only messages exchanged with this contact ID"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default 50, max 1000)"),
		),
	)
}

func getContactMessagesTool() mcp.Tool {
	return mcp.NewTool(ToolGetContactMessages,
		mcp.WithDescription("Get the complete message history with one contact, newest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("contact_id",
			mcp.Required(),
			mcp.Description("Contact ID (from list_contacts)"),
		),
		withAfter(),
		withBefore(),
	)
}
