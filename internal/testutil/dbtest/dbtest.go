// Package dbtest builds throwaway Messages (chat.db) and AddressBook databases
// for tests. Databases are file-backed under t.TempDir() so callers can open
// them through the same read-only path production code uses.
package dbtest

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/wesm/imsgvault/internal/appletime"
)

//go:embed chatdb_schema.sql
var chatDBSchema string

//go:embed addressbook_schema.sql
var addressBookSchema string

// StrPtr returns a pointer to a string (useful for optional fields in test opts).
func StrPtr(s string) *string { return &s }

// BaseTime is the timestamp of the first message in the standard data set.
var BaseTime = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

// StoreDate converts t to the chat.db nanosecond timestamp encoding.
func StoreDate(t time.Time) int64 {
	return appletime.ToStore(t.Unix()) + int64(t.Nanosecond())
}

// At returns the store timestamp for BaseTime plus the given number of hours.
func At(hours int) int64 {
	return StoreDate(BaseTime.Add(time.Duration(hours) * time.Hour))
}

// createDB creates a SQLite file at path and applies schema.
func createDB(t testing.TB, path, schema string) *sql.DB {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

// ---------------------------------------------------------------------------
// chat.db
// ---------------------------------------------------------------------------

// ChatDB is a writable chat.db fixture.
type ChatDB struct {
	DB   *sql.DB
	Path string
	T    testing.TB

	nextGUID int
}

// NewChatDB creates an empty chat.db under t.TempDir().
func NewChatDB(t testing.TB) *ChatDB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Library", "Messages", "chat.db")
	return &ChatDB{DB: createDB(t, path, chatDBSchema), Path: path, T: t}
}

func (c *ChatDB) guid(prefix string) string {
	c.nextGUID++
	return fmt.Sprintf("%s-%d", prefix, c.nextGUID)
}

func (c *ChatDB) insert(name, query string, args ...any) int64 {
	c.T.Helper()
	res, err := c.DB.Exec(query, args...)
	if err != nil {
		c.T.Fatalf("%s: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// HandleOpts configures a handle to insert.
type HandleOpts struct {
	Identifier      string  // required
	Uncanonicalized *string // nil = NULL
	Service         string  // defaults to "iMessage"
}

// AddHandle inserts a handle and returns its ROWID.
func (c *ChatDB) AddHandle(opts HandleOpts) int64 {
	c.T.Helper()
	if opts.Identifier == "" {
		c.T.Fatalf("AddHandle: Identifier is required")
	}
	if opts.Service == "" {
		opts.Service = "iMessage"
	}
	var uncanonicalized any
	if opts.Uncanonicalized != nil {
		uncanonicalized = *opts.Uncanonicalized
	}
	return c.insert("AddHandle",
		`INSERT INTO handle (id, service, uncanonicalized_id) VALUES (?, ?, ?)`,
		opts.Identifier, opts.Service, uncanonicalized)
}

// ChatOpts configures a chat to insert.
type ChatOpts struct {
	Identifier  string  // required
	DisplayName *string // nil = NULL
	Style       int     // defaults to 45 (one-to-one); 43 is a group
	HandleIDs   []int64 // chat_handle_join rows, in insertion order
}

// AddChat inserts a chat with its participants and returns its ROWID.
func (c *ChatDB) AddChat(opts ChatOpts) int64 {
	c.T.Helper()
	if opts.Identifier == "" {
		c.T.Fatalf("AddChat: Identifier is required")
	}
	if opts.Style == 0 {
		opts.Style = 45
	}
	var displayName any
	if opts.DisplayName != nil {
		displayName = *opts.DisplayName
	}
	id := c.insert("AddChat",
		`INSERT INTO chat (guid, style, chat_identifier, service_name, display_name) VALUES (?, ?, ?, 'iMessage', ?)`,
		c.guid("chat"), opts.Style, opts.Identifier, displayName)
	for _, h := range opts.HandleIDs {
		c.insert("AddChat participant",
			`INSERT INTO chat_handle_join (chat_id, handle_id) VALUES (?, ?)`, id, h)
	}
	return id
}

// MessageOpts configures a message to insert.
type MessageOpts struct {
	GUID           string  // defaults to a generated "msg-N"
	Text           *string // nil = NULL
	AttributedBody []byte
	HandleID       int64
	Date           int64 // store timestamp; defaults to At(0)
	IsFromMe       bool
	ChatIDs        []int64
	HasAttachments bool
	AssociatedGUID string // "" = NULL
	AssociatedType int
}

// AddMessage inserts a message, links it to its chats and returns its ROWID.
func (c *ChatDB) AddMessage(opts MessageOpts) int64 {
	c.T.Helper()
	if opts.GUID == "" {
		opts.GUID = c.guid("msg")
	}
	if opts.Date == 0 {
		opts.Date = At(0)
	}
	var text, assoc any
	if opts.Text != nil {
		text = *opts.Text
	}
	if opts.AssociatedGUID != "" {
		assoc = opts.AssociatedGUID
	}
	id := c.insert("AddMessage",
		`INSERT INTO message (guid, text, handle_id, service, date, is_from_me, cache_has_attachments,
			associated_message_guid, associated_message_type, attributedBody)
		 VALUES (?, ?, ?, 'iMessage', ?, ?, ?, ?, ?, ?)`,
		opts.GUID, text, opts.HandleID, opts.Date, boolInt(opts.IsFromMe), boolInt(opts.HasAttachments),
		assoc, opts.AssociatedType, opts.AttributedBody)
	for _, chatID := range opts.ChatIDs {
		c.insert("AddMessage chat link",
			`INSERT INTO chat_message_join (chat_id, message_id, message_date) VALUES (?, ?, ?)`,
			chatID, id, opts.Date)
	}
	return id
}

// AttachmentOpts configures an attachment to insert.
type AttachmentOpts struct {
	Filename     *string
	MimeType     *string
	TransferName *string
}

// AddAttachment inserts an attachment owned by messageID and returns its ROWID.
func (c *ChatDB) AddAttachment(messageID int64, opts AttachmentOpts) int64 {
	c.T.Helper()
	id := c.insert("AddAttachment",
		`INSERT INTO attachment (guid, filename, mime_type, transfer_name) VALUES (?, ?, ?, ?)`,
		c.guid("att"), nullable(opts.Filename), nullable(opts.MimeType), nullable(opts.TransferName))
	c.insert("AddAttachment join",
		`INSERT INTO message_attachment_join (message_id, attachment_id) VALUES (?, ?)`, messageID, id)
	return id
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// AttributedBody builds a minimal typedstream NSAttributedString blob
// carrying text, shaped like the attributedBody column on macOS Ventura+.
func AttributedBody(text string) []byte {
	b := []byte("\x04\x0bstreamtyped\x81\xe8\x03\x84\x01@\x84\x84\x84\x12NSAttributedString\x00\x84\x84\x08NSObject\x00\x85\x92\x84\x84\x84\x08NSString\x01\x94\x84\x01+")
	n := len(text)
	switch {
	case n < 0x80:
		b = append(b, byte(n))
	default:
		b = append(b, 0x81, byte(n), byte(n>>8))
	}
	b = append(b, text...)
	b = append(b, 0x86, 0x84, 0x02, 'i', 'I', 0x01)
	return b
}

// Standard data set handles, chats and messages. IDs are stable because the
// data set is always inserted into an empty database.
const (
	AliceHandle   int64 = 1 // +14155550100
	BobHandle     int64 = 2 // bob@example.com
	UnknownHandle int64 = 3 // +15105550199, in no contact source

	AliceChat   int64 = 1 // one-to-one, no stored name
	GroupChat   int64 = 2 // "Weekend Plans", Alice and Bob
	BobChat     int64 = 3 // one-to-one, no stored name
	UnknownChat int64 = 4 // one-to-one with the unknown handle
)

// SeedStandardDataSet inserts three handles, four chats, seven ordinary
// messages (one with two attachments, one with text only in attributedBody,
// one with no chat linkage), three reactions (one pointing at a missing
// parent), one edit pseudo-message and one undated message.
func (c *ChatDB) SeedStandardDataSet() {
	c.T.Helper()

	c.AddHandle(HandleOpts{Identifier: "+14155550100", Uncanonicalized: StrPtr("(415) 555-0100")})
	c.AddHandle(HandleOpts{Identifier: "bob@example.com"})
	c.AddHandle(HandleOpts{Identifier: "+15105550199", Uncanonicalized: StrPtr("(510) 555-0199"), Service: "SMS"})

	c.AddChat(ChatOpts{Identifier: "+14155550100", HandleIDs: []int64{AliceHandle}})
	c.AddChat(ChatOpts{Identifier: "chat123456", DisplayName: StrPtr("Weekend Plans"), Style: 43, HandleIDs: []int64{AliceHandle, BobHandle}})
	c.AddChat(ChatOpts{Identifier: "bob@example.com", HandleIDs: []int64{BobHandle}})
	c.AddChat(ChatOpts{Identifier: "+15105550199", HandleIDs: []int64{UnknownHandle}})

	c.AddMessage(MessageOpts{GUID: "MSG-1", Text: StrPtr("Hi Alice"), HandleID: AliceHandle, IsFromMe: true, Date: At(0), ChatIDs: []int64{AliceChat}})
	c.AddMessage(MessageOpts{GUID: "MSG-2", Text: StrPtr("Hello!"), HandleID: AliceHandle, Date: At(1), ChatIDs: []int64{AliceChat}})
	photo := c.AddMessage(MessageOpts{GUID: "MSG-3", Text: StrPtr("\ufffcLook"), HandleID: AliceHandle, Date: At(2), ChatIDs: []int64{GroupChat}, HasAttachments: true})
	c.AddAttachment(photo, AttachmentOpts{
		Filename:     StrPtr("~/Library/Messages/Attachments/ab/IMG_0001.heic"),
		MimeType:     StrPtr("image/heic"),
		TransferName: StrPtr("IMG_0001.heic"),
	})
	c.AddAttachment(photo, AttachmentOpts{
		Filename:     StrPtr("~/Library/Messages/Attachments/cd/plan.pdf"),
		MimeType:     StrPtr("application/pdf"),
		TransferName: StrPtr("plan.pdf"),
	})
	c.AddMessage(MessageOpts{GUID: "MSG-4", Text: StrPtr("Lunch?"), HandleID: BobHandle, Date: At(3), ChatIDs: []int64{GroupChat}})
	c.AddMessage(MessageOpts{GUID: "MSG-5", AttributedBody: AttributedBody("Sent from the body"), HandleID: UnknownHandle, Date: At(4), ChatIDs: []int64{UnknownChat}})
	c.AddMessage(MessageOpts{GUID: "MSG-6", Text: StrPtr("Sure"), HandleID: BobHandle, IsFromMe: true, Date: At(48), ChatIDs: []int64{BobChat}})
	c.AddMessage(MessageOpts{GUID: "MSG-7", Text: StrPtr("No chat"), HandleID: BobHandle, Date: At(72)})

	// Reactions: love from me on MSG-4, like from Alice on MSG-2, laugh on a missing parent.
	c.AddMessage(MessageOpts{GUID: "R-1", HandleID: BobHandle, IsFromMe: true, Date: At(5), ChatIDs: []int64{GroupChat}, AssociatedGUID: "p:0/MSG-4", AssociatedType: 2000})
	c.AddMessage(MessageOpts{GUID: "R-2", HandleID: AliceHandle, Date: At(6), ChatIDs: []int64{AliceChat}, AssociatedGUID: "bp:MSG-2", AssociatedType: 2001})
	c.AddMessage(MessageOpts{GUID: "R-3", HandleID: BobHandle, Date: At(7), ChatIDs: []int64{GroupChat}, AssociatedGUID: "p:0/UNKNOWN-GUID", AssociatedType: 2003})

	// An edit-style pseudo-message and an undated message are never listed.
	c.AddMessage(MessageOpts{GUID: "E-1", Text: StrPtr("edited"), HandleID: AliceHandle, Date: At(8), ChatIDs: []int64{AliceChat}, AssociatedGUID: "p:0/MSG-2", AssociatedType: 1000})
	c.AddMessage(MessageOpts{GUID: "NODATE", Text: StrPtr("undated"), HandleID: AliceHandle, Date: -1, ChatIDs: []int64{AliceChat}})
}

// ---------------------------------------------------------------------------
// AddressBook
// ---------------------------------------------------------------------------

// AddressBook is a writable AddressBook-v22.abcddb fixture.
type AddressBook struct {
	DB   *sql.DB
	Path string
	T    testing.TB
}

// NewAddressBook creates an AddressBook database at path, creating parent
// directories as needed.
func NewAddressBook(t testing.TB, path string) *AddressBook {
	t.Helper()
	return &AddressBook{DB: createDB(t, path, addressBookSchema), Path: path, T: t}
}

// NewAddressBookSource creates <root>/Sources/<name>/AddressBook-v22.abcddb.
func NewAddressBookSource(t testing.TB, root, name string) *AddressBook {
	t.Helper()
	return NewAddressBook(t, filepath.Join(root, "Sources", name, "AddressBook-v22.abcddb"))
}

// ContactOpts configures a contact record to insert.
type ContactOpts struct {
	First  *string // nil = NULL
	Last   *string // nil = NULL
	Phones []string
	Emails []string
}

// AddContact inserts a record with its phone numbers and email addresses and
// returns its Z_PK.
func (a *AddressBook) AddContact(opts ContactOpts) int64 {
	a.T.Helper()
	res, err := a.DB.Exec(`INSERT INTO ZABCDRECORD (Z_ENT, ZFIRSTNAME, ZLASTNAME) VALUES (22, ?, ?)`,
		nullable(opts.First), nullable(opts.Last))
	if err != nil {
		a.T.Fatalf("AddContact: %v", err)
	}
	pk, _ := res.LastInsertId()
	for _, p := range opts.Phones {
		if _, err := a.DB.Exec(`INSERT INTO ZABCDPHONENUMBER (ZOWNER, ZFULLNUMBER, ZLABEL) VALUES (?, ?, '_$!<Mobile>!$_')`, pk, p); err != nil {
			a.T.Fatalf("AddContact phone: %v", err)
		}
	}
	for _, e := range opts.Emails {
		if _, err := a.DB.Exec(`INSERT INTO ZABCDEMAILADDRESS (ZOWNER, ZADDRESS, ZLABEL) VALUES (?, ?, '_$!<Home>!$_')`, pk, e); err != nil {
			a.T.Fatalf("AddContact email: %v", err)
		}
	}
	return pk
}

// SeedStandardContacts creates one contact source under root that names the
// standard data set's Alice and Bob handles.
func SeedStandardContacts(t testing.TB, root string) *AddressBook {
	t.Helper()
	ab := NewAddressBookSource(t, root, "00000000-AAAA")
	ab.AddContact(ContactOpts{First: StrPtr("Alice"), Last: StrPtr("Smith"), Phones: []string{"(415) 555-0100"}})
	ab.AddContact(ContactOpts{First: StrPtr("Bob"), Emails: []string{"Bob@Example.com"}})
	return ab
}
