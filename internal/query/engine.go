package query

import (
	"context"

	"github.com/wesm/imsgvault/internal/contacts"
)

// Engine answers read queries against one chat.db snapshot.
type Engine interface {
	// ListContacts returns every handle with its message count, busiest first.
	ListContacts(ctx context.Context) ([]Contact, error)

	// ListChats returns every chat with resolved participants, busiest first.
	ListChats(ctx context.Context) ([]Chat, error)

	// GetStats counts messages within the optional date range.
	GetStats(ctx context.Context, opts ExportOptions) (*ChatStats, error)

	// ListMessages returns ordinary messages newest first, with attachments
	// and reactions attached. limit <= 0 returns every match.
	ListMessages(ctx context.Context, opts ExportOptions, limit int) ([]Message, error)

	// ListMessagesForContact returns every message exchanged with one handle.
	ListMessagesForContact(ctx context.Context, contactID int64, opts ExportOptions) ([]Message, error)
}

// DirectoryLoader builds the contact directory used for name resolution.
// The engine calls it once per request.
type DirectoryLoader interface {
	Build(ctx context.Context) *contacts.Directory
}
