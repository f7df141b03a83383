package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wesm/imsgvault/internal/export"
	"github.com/wesm/imsgvault/internal/query"
	"github.com/wesm/imsgvault/internal/testutil"
	"github.com/wesm/imsgvault/internal/testutil/dbtest"
)

// newTestHome writes a config.toml pointing at a seeded chat.db and
// AddressBook and returns the home directory.
func newTestHome(t *testing.T) string {
	t.Helper()
	cdb := dbtest.NewChatDB(t)
	cdb.SeedStandardDataSet()
	contactsRoot := t.TempDir()
	dbtest.SeedStandardContacts(t, contactsRoot)
	return writeConfig(t, cdb.Path, contactsRoot)
}

func writeConfig(t *testing.T, chatDB, contactsRoot string) string {
	t.Helper()
	home := t.TempDir()
	toml := fmt.Sprintf("[imessage]\ndatabase_path = '%s'\naddressbook_dir = '%s'\n", chatDB, contactsRoot)
	testutil.MustNoErr(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(toml), 0o600), "write config")
	return home
}

// runCLI executes the real root command with fresh flag state and returns
// what it printed to stdout.
func runCLI(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	cfgFile, homeDir, verbose = "", "", false
	jsonOutput, filterAfter, filterBefore, filterContacts = false, "", "", nil
	listLimit, exportDir, servePort = 50, "", 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--home", home}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func runJSON[T any](t *testing.T, home string, args ...string) T {
	t.Helper()
	out, err := runCLI(t, home, append(args, "--json")...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %v output: %v\n%s", args, err, out)
	}
	return v
}

func messageGUIDs(msgs []query.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.GUID
	}
	return out
}

func TestListContactsCommand(t *testing.T) {
	home := newTestHome(t)

	contacts := runJSON[[]query.Contact](t, home, "list-contacts")
	if len(contacts) != 3 {
		t.Fatalf("got %d contacts, want 3", len(contacts))
	}
	if contacts[0].ID != dbtest.AliceHandle || contacts[0].DisplayName == nil || *contacts[0].DisplayName != "Alice Smith" {
		t.Errorf("first contact = %+v", contacts[0])
	}

	out, err := runCLI(t, home, "list-contacts")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertContainsAll(t, out, []string{"ID", "──", "Alice Smith", "+14155550100", "3 contacts"})
}

func TestListChatsCommand(t *testing.T) {
	home := newTestHome(t)

	out, err := runCLI(t, home, "list-chats")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertContainsAll(t, out, []string{"Weekend Plans", "group", "direct", "4 chats"})
}

func TestStatsCommand(t *testing.T) {
	home := newTestHome(t)

	stats := runJSON[query.ChatStats](t, home, "stats")
	if stats.TotalMessages != 12 || stats.MessagesSent != 3 || stats.TotalContacts != 3 {
		t.Errorf("stats = %+v", stats)
	}

	out, err := runCLI(t, home, "stats")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertContainsAll(t, out, []string{"Messages:  12", "Range:     2024-01-15 10:00:00 to "})

	if _, err := runCLI(t, home, "stats", "--after", "last week"); err == nil {
		t.Error("expected error for malformed --after")
	}
}

func TestListMessagesCommand(t *testing.T) {
	home := newTestHome(t)

	msgs := runJSON[[]query.Message](t, home, "list-messages", "-n", "2")
	testutil.AssertStrings(t, messageGUIDs(msgs), "MSG-7", "MSG-6")

	all := runJSON[[]query.Message](t, home, "list-messages", "-n", "0")
	if len(all) != 7 {
		t.Errorf("-n 0 returned %d messages, want 7", len(all))
	}

	bob := runJSON[[]query.Message](t, home, "list-messages", "--contact", fmt.Sprint(dbtest.BobHandle))
	testutil.AssertStrings(t, messageGUIDs(bob), "MSG-7", "MSG-6", "MSG-4")

	out, err := runCLI(t, home, "list-messages")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertContainsAll(t, out, []string{"DATE", "Alice Smith", "2 att", "Showing 7 messages"})
}

func TestContactMessagesCommand(t *testing.T) {
	home := newTestHome(t)

	msgs := runJSON[[]query.Message](t, home, "contact-messages", fmt.Sprint(dbtest.AliceHandle))
	for _, m := range msgs {
		if m.HandleID != dbtest.AliceHandle {
			t.Errorf("message %s has handle %d", m.GUID, m.HandleID)
		}
	}
	if len(msgs) == 0 {
		t.Error("expected messages for Alice")
	}

	if _, err := runCLI(t, home, "contact-messages", "alice"); err == nil {
		t.Error("expected error for non-numeric contact ID")
	}
}

func TestCheckAccessCommand(t *testing.T) {
	home := newTestHome(t)
	out, err := runCLI(t, home, "check-access")
	if err != nil {
		t.Fatalf("check-access: %v", err)
	}
	testutil.AssertContainsAll(t, out, []string{"Status: accessible", "Contacts: accessible"})

	missing := writeConfig(t, filepath.Join(t.TempDir(), "chat.db"), t.TempDir())
	out, err = runCLI(t, missing, "check-access")
	if !errors.Is(err, errStoreInaccessible) {
		t.Errorf("error = %v, want errStoreInaccessible", err)
	}
	testutil.AssertContainsAll(t, out, []string{"not accessible", "Full Disk Access", "Contacts: no names found"})
}

func TestReadCommandsReportGuidance(t *testing.T) {
	missing := writeConfig(t, filepath.Join(t.TempDir(), "chat.db"), t.TempDir())

	_, err := runCLI(t, missing, "list-chats")
	if err == nil || !strings.HasPrefix(err.Error(), "Cannot open database. Please grant Full Disk Access") {
		t.Errorf("error = %v", err)
	}
}

func TestExportCommand(t *testing.T) {
	home := newTestHome(t)
	dir := filepath.Join(t.TempDir(), "out")

	out, err := runCLI(t, home, "export", "--dir", dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	testutil.AssertContainsAll(t, out, []string{"Exported 7 messages in 4 conversations to " + dir})
	for _, name := range []string{export.ViewerFile, export.OrphanedFile, "Weekend Plans.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	// Without --dir the export goes under the data directory.
	res := runJSON[export.Result](t, home, "export")
	if want := filepath.Join(home, "exports"); res.Dir != want {
		t.Errorf("default dir = %q, want %q", res.Dir, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "imsgvault dev") {
		t.Errorf("version output = %q", out)
	}
}
