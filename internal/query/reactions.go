package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wesm/imsgvault/internal/contacts"
)

// ParentGUID extracts the target message guid from an
// associated_message_guid reference. Two encodings occur: "p:<part>/<guid>"
// for a reaction to one part of a message and "bp:<guid>" for a reaction to
// the whole bubble. Anything else is taken as a bare guid.
func ParentGUID(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	if guid, ok := strings.CutPrefix(ref, "bp:"); ok {
		return guid
	}
	return ref
}

// attachReactions scans every tapback in the store and appends it to its
// parent message when the parent is in messages.
func (e *SQLiteEngine) attachReactions(ctx context.Context, messages []Message, dir *contacts.Directory) error {
	guidToIndex := make(map[string]int, len(messages))
	for i, m := range messages {
		guidToIndex[m.GUID] = i
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT COALESCE(m.associated_message_guid, ''), m.associated_message_type, m.is_from_me, COALESCE(h.id, '')
		FROM message m
		LEFT JOIN handle h ON m.handle_id = h.ROWID
		WHERE m.associated_message_type >= 2000 AND m.associated_message_type < 3000
	`)
	if err != nil {
		return fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref, handle string
		var kind int64
		var isFromMe sql.NullBool
		if err := rows.Scan(&ref, &kind, &isFromMe, &handle); err != nil {
			return fmt.Errorf("scan reaction: %w", err)
		}
		idx, ok := guidToIndex[ParentGUID(ref)]
		if !ok {
			continue
		}
		fromMe := isFromMe.Valid && isFromMe.Bool
		messages[idx].Reactions = append(messages[idx].Reactions, Reaction{
			ReactionType: ReactionType(kind),
			Sender:       dir.SenderName(handle, fromMe),
			IsFromMe:     fromMe,
		})
	}
	return rows.Err()
}
