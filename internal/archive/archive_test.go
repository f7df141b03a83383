package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wesm/imsgvault/internal/config"
	"github.com/wesm/imsgvault/internal/query"
	"github.com/wesm/imsgvault/internal/store"
	"github.com/wesm/imsgvault/internal/testutil/dbtest"
)

func noHome() (string, error) { return "", errors.New("$HOME is not defined") }

// newSeededArchive returns an archive over the standard data set whose
// locations are explicit paths.
func newSeededArchive(t *testing.T) *Archive {
	t.Helper()
	cdb := dbtest.NewChatDB(t)
	cdb.SeedStandardDataSet()
	root := t.TempDir()
	dbtest.SeedStandardContacts(t, root)
	return New(Options{ChatDBPath: cdb.Path, ContactsRoot: root, HomeDir: noHome})
}

// newHomeArchive lays the stores out under a fake home directory the way
// macOS does and returns an archive using the default locations.
func newHomeArchive(t *testing.T) (*Archive, string) {
	t.Helper()
	home := t.TempDir()
	cdb := dbtest.NewChatDB(t)
	cdb.SeedStandardDataSet()

	dest := filepath.Join(home, "Library", "Messages", "chat.db")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := cdb.DB.Exec(`VACUUM INTO ?`, dest); err != nil {
		t.Fatalf("copy chat.db: %v", err)
	}
	dbtest.SeedStandardContacts(t, filepath.Join(home, "Library", "Application Support", "AddressBook"))

	return New(Options{HomeDir: func() (string, error) { return home, nil }}), dest
}

func TestDefaultLocations(t *testing.T) {
	a, dest := newHomeArchive(t)

	path, err := a.ChatDBPath()
	if err != nil || path != dest {
		t.Errorf("ChatDBPath() = %q, %v; want %q", path, err, dest)
	}

	status := a.CheckStoreAccessible(context.Background())
	if !status.Accessible || status.Path != dest || status.Error != nil {
		t.Errorf("CheckStoreAccessible() = %+v", status)
	}
	if !a.CheckContactsAccessible(context.Background()) {
		t.Error("CheckContactsAccessible() = false")
	}

	chats, err := a.ListChats(context.Background())
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if chats[0].DisplayName == nil || *chats[0].DisplayName != "Alice Smith" {
		t.Errorf("names should resolve from the default contacts root, got %v", chats[0].DisplayName)
	}
}

func TestCheckStoreAccessible_HomeUnavailable(t *testing.T) {
	a := New(Options{HomeDir: noHome})

	status := a.CheckStoreAccessible(context.Background())
	if status.Accessible || status.Path != "" {
		t.Errorf("status = %+v", status)
	}
	if status.Error == nil || *status.Error != "Could not determine home directory" {
		t.Errorf("Error = %v", status.Error)
	}
	if a.CheckContactsAccessible(context.Background()) {
		t.Error("contacts should be inaccessible without a home directory")
	}
	if _, err := a.ListChats(context.Background()); !errors.Is(err, ErrHomeUnavailable) {
		t.Errorf("ListChats error = %v, want ErrHomeUnavailable", err)
	}
}

func TestCheckStoreAccessible_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	a := New(Options{ChatDBPath: path, HomeDir: noHome})

	status := a.CheckStoreAccessible(context.Background())
	if status.Accessible {
		t.Fatal("missing store reported accessible")
	}
	if status.Path != path {
		t.Errorf("Path = %q, want %q", status.Path, path)
	}
	if status.Error == nil || !strings.HasPrefix(*status.Error, "Cannot open database. Please grant Full Disk Access") {
		t.Errorf("Error = %v", status.Error)
	}
	if strings.Contains(*status.Error, "open "+path) {
		t.Errorf("guidance should carry the driver error only: %s", *status.Error)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("checking access must not create the store")
	}
}

func TestCheckStoreAccessible_WrongSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	dbtest.NewAddressBook(t, path)
	a := New(Options{ChatDBPath: path, HomeDir: noHome})

	status := a.CheckStoreAccessible(context.Background())
	if status.Accessible {
		t.Fatal("store without a message table reported accessible")
	}
	if status.Error == nil || !strings.HasPrefix(*status.Error, "Cannot read database: ") {
		t.Errorf("Error = %v", status.Error)
	}
}

func TestOperations_OpenFailure(t *testing.T) {
	a := New(Options{ChatDBPath: filepath.Join(t.TempDir(), "missing.db"), HomeDir: noHome})

	_, err := a.ListMessages(context.Background(), query.ExportOptions{}, 10)
	var openErr *store.OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("error = %v, want *store.OpenError", err)
	}
	if g := Guidance(err); !strings.Contains(g, "Full Disk Access") {
		t.Errorf("Guidance() = %q", g)
	}
	if g := Guidance(errors.New("boom")); g != "" {
		t.Errorf("Guidance(other) = %q, want empty", g)
	}
}

func TestOperations(t *testing.T) {
	a := newSeededArchive(t)
	ctx := context.Background()

	contacts, err := a.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(contacts) != 3 {
		t.Errorf("ListContacts len = %d, want 3", len(contacts))
	}

	stats, err := a.GetStats(ctx, query.ExportOptions{})
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.MessagesReceived != stats.TotalMessages-stats.MessagesSent {
		t.Errorf("received = %d, want total - sent", stats.MessagesReceived)
	}

	msgs, err := a.ListMessages(ctx, query.ExportOptions{}, 3)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Errorf("ListMessages len = %d, want 3", len(msgs))
	}

	forAlice, err := a.ListMessagesForContact(ctx, dbtest.AliceHandle, query.ExportOptions{})
	if err != nil {
		t.Fatalf("ListMessagesForContact: %v", err)
	}
	for _, m := range forAlice {
		if m.HandleID != dbtest.AliceHandle {
			t.Errorf("message %s has handle %d", m.GUID, m.HandleID)
		}
	}

	// Repeating a read yields the same result.
	again, err := a.ListMessages(ctx, query.ExportOptions{}, 3)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	for i := range msgs {
		if msgs[i].GUID != again[i].GUID {
			t.Errorf("result %d changed between calls: %s then %s", i, msgs[i].GUID, again[i].GUID)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.IMessage.DatabasePath = "/tmp/x/chat.db"
	cfg.IMessage.AddressBookDir = "/tmp/x/AddressBook"

	a := FromConfig(cfg, nil)
	if p, _ := a.ChatDBPath(); p != "/tmp/x/chat.db" {
		t.Errorf("ChatDBPath() = %q", p)
	}
	if p, _ := a.ContactsRoot(); p != "/tmp/x/AddressBook" {
		t.Errorf("ContactsRoot() = %q", p)
	}
}
