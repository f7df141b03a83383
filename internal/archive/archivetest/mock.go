// Package archivetest provides an in-memory archive.Reader for tests.
package archivetest

import (
	"context"
	"sync"

	"github.com/wesm/imsgvault/internal/archive"
	"github.com/wesm/imsgvault/internal/query"
)

// MockArchive returns canned data and records the arguments of the last
// message and stats calls. Setting Err makes every fallible call fail.
type MockArchive struct {
	Status     query.DatabaseStatus
	ContactsOK bool
	Contacts   []query.Contact
	Chats      []query.Chat
	Stats      *query.ChatStats
	Messages   []query.Message
	Err        error

	mu            sync.Mutex
	LastOpts      query.ExportOptions
	LastLimit     int
	LastContactID int64
	Calls         map[string]int
}

// Compile-time check.
var _ archive.Reader = (*MockArchive)(nil)

func (m *MockArchive) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[name]++
}

func (m *MockArchive) CheckStoreAccessible(ctx context.Context) query.DatabaseStatus {
	m.record("CheckStoreAccessible")
	return m.Status
}

func (m *MockArchive) CheckContactsAccessible(ctx context.Context) bool {
	m.record("CheckContactsAccessible")
	return m.ContactsOK
}

func (m *MockArchive) ListContacts(ctx context.Context) ([]query.Contact, error) {
	m.record("ListContacts")
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Contacts, nil
}

func (m *MockArchive) ListChats(ctx context.Context) ([]query.Chat, error) {
	m.record("ListChats")
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Chats, nil
}

func (m *MockArchive) GetStats(ctx context.Context, opts query.ExportOptions) (*query.ChatStats, error) {
	m.record("GetStats")
	m.mu.Lock()
	m.LastOpts = opts
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Stats == nil {
		return &query.ChatStats{}, nil
	}
	return m.Stats, nil
}

// ListMessages applies the date and contact filters and the limit to
// Messages, which are assumed to be newest first.
func (m *MockArchive) ListMessages(ctx context.Context, opts query.ExportOptions, limit int) ([]query.Message, error) {
	m.record("ListMessages")
	m.mu.Lock()
	m.LastOpts = opts
	m.LastLimit = limit
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []query.Message
	for _, msg := range m.Messages {
		if matches(msg, opts) {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockArchive) ListMessagesForContact(ctx context.Context, contactID int64, opts query.ExportOptions) ([]query.Message, error) {
	m.mu.Lock()
	m.LastContactID = contactID
	m.mu.Unlock()
	opts.ContactIDs = []int64{contactID}
	return m.ListMessages(ctx, opts, 0)
}

func matches(msg query.Message, opts query.ExportOptions) bool {
	if opts.StartDate != nil && msg.Date < *opts.StartDate {
		return false
	}
	if opts.EndDate != nil && msg.Date > *opts.EndDate {
		return false
	}
	if len(opts.ContactIDs) == 0 {
		return true
	}
	for _, id := range opts.ContactIDs {
		if msg.HandleID == id {
			return true
		}
	}
	return false
}
