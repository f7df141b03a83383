package query

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wesm/imsgvault/internal/appletime"
	"github.com/wesm/imsgvault/internal/contacts"
	"github.com/wesm/imsgvault/internal/store"
)

// SQLiteEngine implements Engine over an open chat.db connection.
type SQLiteEngine struct {
	db       *sql.DB
	contacts DirectoryLoader
	logger   *slog.Logger
}

// Compile-time check.
var _ Engine = (*SQLiteEngine)(nil)

// NewSQLiteEngine creates an engine reading db. loader may be nil, in which
// case no names are resolved.
func NewSQLiteEngine(db *sql.DB, loader DirectoryLoader, logger *slog.Logger) *SQLiteEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteEngine{db: db, contacts: loader, logger: logger}
}

// directory builds the request's contact directory.
func (e *SQLiteEngine) directory(ctx context.Context) *contacts.Directory {
	if e.contacts == nil {
		return contacts.NewDirectory()
	}
	return e.contacts.Build(ctx)
}

// dateConditions translates the optional date bounds into store-native
// predicates on col.
func dateConditions(opts ExportOptions, col string) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.StartDate != nil {
		conditions = append(conditions, col+" >= ?")
		args = append(args, appletime.ToStore(*opts.StartDate))
	}
	if opts.EndDate != nil {
		conditions = append(conditions, col+" <= ?")
		args = append(args, appletime.ToStore(*opts.EndDate))
	}
	return conditions, args
}

// whereClause joins conditions with AND, returning "1=1" when there are none.
func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return "1=1"
	}
	return strings.Join(conditions, " AND ")
}

// ListContacts returns every handle with the number of messages it sent or
// received. DisplayName is the resolved contact name, falling back to the
// handle's uncanonicalized form.
func (e *SQLiteEngine) ListContacts(ctx context.Context) ([]Contact, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT h.ROWID, h.id, h.uncanonicalized_id, COUNT(m.ROWID) AS msg_count
		FROM handle h
		LEFT JOIN message m ON m.handle_id = h.ROWID
		GROUP BY h.ROWID
		ORDER BY msg_count DESC, h.ROWID ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	dir := e.directory(ctx)

	var results []Contact
	for rows.Next() {
		var c Contact
		var uncanonicalized sql.NullString
		if err := rows.Scan(&c.ID, &c.Identifier, &uncanonicalized, &c.MessageCount); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		if name, ok := dir.Resolve(c.Identifier); ok {
			c.DisplayName = &name
		} else if uncanonicalized.Valid && uncanonicalized.String != "" {
			c.DisplayName = &uncanonicalized.String
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return results, nil
}

// ListChats returns every chat with its participants. A one-to-one chat with
// no stored name takes the resolved name of its participant.
func (e *SQLiteEngine) ListChats(ctx context.Context) ([]Chat, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT c.ROWID, COALESCE(c.chat_identifier, ''), c.display_name, COALESCE(c.style, 0),
			COUNT(DISTINCT cmj.message_id) AS msg_count
		FROM chat c
		LEFT JOIN chat_message_join cmj ON c.ROWID = cmj.chat_id
		GROUP BY c.ROWID
		ORDER BY msg_count DESC, c.ROWID ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var results []Chat
	for rows.Next() {
		var c Chat
		var displayName sql.NullString
		var style int64
		if err := rows.Scan(&c.ID, &c.ChatIdentifier, &displayName, &style, &c.MessageCount); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		if displayName.Valid && displayName.String != "" {
			c.DisplayName = &displayName.String
		}
		c.IsGroup = style == groupChatStyle
		c.Participants = []string{}
		c.ParticipantIDs = []string{}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	rows.Close()

	if len(results) == 0 {
		return results, nil
	}
	if err := e.fetchParticipants(ctx, results); err != nil {
		return nil, fmt.Errorf("fetch participants: %w", err)
	}
	return results, nil
}

// fetchParticipants fills participant lists for chats in one batched query
// and backfills one-to-one chat names.
func (e *SQLiteEngine) fetchParticipants(ctx context.Context, chats []Chat) error {
	ids := make([]int64, len(chats))
	idToIndex := make(map[int64]int, len(chats))
	for i, c := range chats {
		ids[i] = c.ID
		idToIndex[c.ID] = i
	}

	err := store.QueryInChunks(ctx, e.db, ids, nil, `
		SELECT chj.chat_id, h.id
		FROM chat_handle_join chj
		JOIN handle h ON h.ROWID = chj.handle_id
		WHERE chj.chat_id IN (%s)
		ORDER BY chj.chat_id, chj.ROWID
	`, func(rows *sql.Rows) error {
		var chatID int64
		var handle string
		if err := rows.Scan(&chatID, &handle); err != nil {
			return err
		}
		if idx, ok := idToIndex[chatID]; ok {
			chats[idx].ParticipantIDs = append(chats[idx].ParticipantIDs, handle)
		}
		return nil
	})
	if err != nil {
		return err
	}

	dir := e.directory(ctx)
	for i := range chats {
		c := &chats[i]
		c.Participants = make([]string, len(c.ParticipantIDs))
		for j, id := range c.ParticipantIDs {
			if name, ok := dir.Resolve(id); ok {
				c.Participants[j] = name
			} else {
				c.Participants[j] = id
			}
		}
		c.ParticipantCount = int64(len(c.ParticipantIDs))
		if c.DisplayName == nil && len(c.ParticipantIDs) == 1 {
			if name, ok := dir.Resolve(c.ParticipantIDs[0]); ok {
				c.DisplayName = &name
			}
		}
	}
	return nil
}

// GetStats counts messages within the date range. Every message row counts,
// including reactions. The date range bounds are the oldest and newest
// positive timestamps within the same range.
func (e *SQLiteEngine) GetStats(ctx context.Context, opts ExportOptions) (*ChatStats, error) {
	conditions, args := dateConditions(opts, "date")
	where := whereClause(conditions)

	stats := &ChatStats{}
	if err := e.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM message WHERE "+where, args...,
	).Scan(&stats.TotalMessages); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	sentWhere := whereClause(append(append([]string{}, conditions...), "is_from_me = 1"))
	if err := e.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM message WHERE "+sentWhere, args...,
	).Scan(&stats.MessagesSent); err != nil {
		return nil, fmt.Errorf("count sent messages: %w", err)
	}
	stats.MessagesReceived = stats.TotalMessages - stats.MessagesSent

	if err := e.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM handle").Scan(&stats.TotalContacts); err != nil {
		return nil, fmt.Errorf("count handles: %w", err)
	}

	rangeWhere := whereClause(append(append([]string{}, conditions...), "date > 0"))
	var minDate, maxDate sql.NullInt64
	if err := e.db.QueryRowContext(ctx,
		"SELECT MIN(date), MAX(date) FROM message WHERE "+rangeWhere, args...,
	).Scan(&minDate, &maxDate); err != nil {
		return nil, fmt.Errorf("date range: %w", err)
	}
	if minDate.Valid {
		v := appletime.ToUnix(minDate.Int64)
		stats.DateRangeStart = &v
	}
	if maxDate.Valid {
		v := appletime.ToUnix(maxDate.Int64)
		stats.DateRangeEnd = &v
	}
	return stats, nil
}
