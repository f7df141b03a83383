package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wesm/imsgvault/internal/appletime"
	"github.com/wesm/imsgvault/internal/store"
	"github.com/wesm/imsgvault/internal/textutil"
	"github.com/wesm/imsgvault/internal/typedstream"
)

// messageFilter compiles ExportOptions into the WHERE clause of the primary
// message query. Tapbacks, edits and other associated messages are always
// excluded, as are rows without a positive date.
func messageFilter(opts ExportOptions) (string, []any) {
	conditions := []string{
		"m.date > 0",
		"(m.associated_message_type IS NULL OR m.associated_message_type = 0)",
	}
	dateConds, args := dateConditions(opts, "m.date")
	conditions = append(conditions, dateConds...)

	if len(opts.ContactIDs) > 0 {
		placeholders := make([]string, len(opts.ContactIDs))
		for i, id := range opts.ContactIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, fmt.Sprintf("m.handle_id IN (%s)", strings.Join(placeholders, ",")))
	}
	return strings.Join(conditions, " AND "), args
}

// ListMessages returns ordinary messages newest first. Attachments and
// reactions are fetched in follow-up queries; a failure in either is logged
// and the messages are returned without them.
func (e *SQLiteEngine) ListMessages(ctx context.Context, opts ExportOptions, limit int) ([]Message, error) {
	where, args := messageFilter(opts)
	q := fmt.Sprintf(`
		SELECT m.ROWID, COALESCE(m.guid, ''), m.text, m.date, m.is_from_me,
			COALESCE(m.handle_id, 0), COALESCE(h.id, ''), m.cache_has_attachments,
			(SELECT MIN(cmj.chat_id) FROM chat_message_join cmj WHERE cmj.message_id = m.ROWID),
			m.attributedBody
		FROM message m
		LEFT JOIN handle h ON m.handle_id = h.ROWID
		WHERE %s
		ORDER BY m.date DESC, m.ROWID DESC
	`, where)
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := e.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	dir := e.directory(ctx)

	var results []Message
	for rows.Next() {
		var m Message
		var text sql.NullString
		var date int64
		var isFromMe, hasAttachments sql.NullBool
		var chatID sql.NullInt64
		var body []byte
		if err := rows.Scan(&m.ID, &m.GUID, &text, &date, &isFromMe,
			&m.HandleID, &m.ContactIdentifier, &hasAttachments, &chatID, &body); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Text = messageText(text, body)
		m.Date = appletime.ToUnix(date)
		m.DateFormatted = appletime.Format(m.Date)
		m.IsFromMe = isFromMe.Valid && isFromMe.Bool
		m.HasAttachment = hasAttachments.Valid && hasAttachments.Bool
		if chatID.Valid {
			id := chatID.Int64
			m.ChatID = &id
		}
		m.SenderName = dir.SenderName(m.ContactIdentifier, m.IsFromMe)
		m.Attachments = []Attachment{}
		m.Reactions = []Reaction{}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	rows.Close()

	if len(results) == 0 {
		return results, nil
	}
	if err := e.attachAttachments(ctx, results); err != nil {
		e.logger.Warn("attachments unavailable", "error", err)
	}
	if err := e.attachReactions(ctx, results, dir); err != nil {
		e.logger.Warn("reactions unavailable", "error", err)
	}
	return results, nil
}

// ListMessagesForContact returns every message exchanged with one handle,
// ignoring any contact filter in opts.
func (e *SQLiteEngine) ListMessagesForContact(ctx context.Context, contactID int64, opts ExportOptions) ([]Message, error) {
	opts.ContactIDs = []int64{contactID}
	return e.ListMessages(ctx, opts, 0)
}

// messageText returns the stored text when present. Newer macOS versions
// leave text NULL and keep the body only in attributedBody, so that blob is
// decoded as a fallback.
func messageText(text sql.NullString, body []byte) *string {
	if text.Valid && text.String != "" {
		return &text.String
	}
	if len(body) > 0 {
		if decoded, err := typedstream.Decode(body); err == nil {
			if cleaned := textutil.CleanMessageText(decoded); cleaned != "" {
				return &cleaned
			}
		}
	}
	if text.Valid {
		return &text.String
	}
	return nil
}

// attachAttachments loads attachment metadata for messages flagged as
// having attachments.
func (e *SQLiteEngine) attachAttachments(ctx context.Context, messages []Message) error {
	idToIndex := make(map[int64]int)
	var ids []int64
	for i, m := range messages {
		if m.HasAttachment {
			idToIndex[m.ID] = i
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	return store.QueryInChunks(ctx, e.db, ids, nil, `
		SELECT maj.message_id, a.filename, a.mime_type, a.transfer_name
		FROM message_attachment_join maj
		JOIN attachment a ON maj.attachment_id = a.ROWID
		WHERE maj.message_id IN (%s)
		ORDER BY maj.message_id, maj.ROWID
	`, func(rows *sql.Rows) error {
		var msgID int64
		var filename, mimeType, transferName sql.NullString
		if err := rows.Scan(&msgID, &filename, &mimeType, &transferName); err != nil {
			return err
		}
		idx, ok := idToIndex[msgID]
		if !ok {
			return nil
		}
		messages[idx].Attachments = append(messages[idx].Attachments, Attachment{
			Filename:     nullableString(filename),
			MimeType:     nullableString(mimeType),
			TransferName: nullableString(transferName),
		})
		return nil
	})
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
