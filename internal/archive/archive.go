// Package archive exposes the read operations over a user's Messages
// history. Every call opens its own read-only connection, builds a fresh
// contact directory, and closes both before returning.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wesm/imsgvault/internal/config"
	"github.com/wesm/imsgvault/internal/contacts"
	"github.com/wesm/imsgvault/internal/query"
	"github.com/wesm/imsgvault/internal/store"
)

// ErrHomeUnavailable is returned when a default store location is needed but
// the user's home directory cannot be determined.
var ErrHomeUnavailable = errors.New("could not determine home directory")

const (
	homeUnavailableMessage = "Could not determine home directory"
	fullDiskAccessMessage  = "Cannot open database. Please grant Full Disk Access in System Settings > Privacy & Security > Full Disk Access. Error: "
	cannotReadMessage      = "Cannot read database: "
)

// Reader is the read surface shared by the CLI, HTTP API, MCP server and
// exporter.
type Reader interface {
	CheckStoreAccessible(ctx context.Context) query.DatabaseStatus
	CheckContactsAccessible(ctx context.Context) bool
	ListContacts(ctx context.Context) ([]query.Contact, error)
	ListChats(ctx context.Context) ([]query.Chat, error)
	GetStats(ctx context.Context, opts query.ExportOptions) (*query.ChatStats, error)
	ListMessages(ctx context.Context, opts query.ExportOptions, limit int) ([]query.Message, error)
	ListMessagesForContact(ctx context.Context, contactID int64, opts query.ExportOptions) ([]query.Message, error)
}

// Compile-time check.
var _ Reader = (*Archive)(nil)

// Options configures an Archive. Empty paths use the macOS defaults under
// the user's home directory.
type Options struct {
	ChatDBPath   string
	ContactsRoot string
	Logger       *slog.Logger

	// HomeDir overrides os.UserHomeDir, for tests.
	HomeDir func() (string, error)
}

// Archive reads chat.db and the AddressBook sources.
type Archive struct {
	chatDBPath   string
	contactsRoot string
	homeDir      func() (string, error)
	logger       *slog.Logger
}

// New creates an Archive.
func New(opts Options) *Archive {
	a := &Archive{
		chatDBPath:   opts.ChatDBPath,
		contactsRoot: opts.ContactsRoot,
		homeDir:      opts.HomeDir,
		logger:       opts.Logger,
	}
	if a.homeDir == nil {
		a.homeDir = os.UserHomeDir
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// FromConfig creates an Archive using the store overrides in cfg.
func FromConfig(cfg *config.Config, logger *slog.Logger) *Archive {
	return New(Options{
		ChatDBPath:   cfg.ChatDBPath(),
		ContactsRoot: cfg.AddressBookDir(),
		Logger:       logger,
	})
}

func (a *Archive) home() (string, error) {
	home, err := a.homeDir()
	if err != nil || home == "" {
		return "", ErrHomeUnavailable
	}
	return home, nil
}

// ChatDBPath returns the chat.db location.
func (a *Archive) ChatDBPath() (string, error) {
	if a.chatDBPath != "" {
		return a.chatDBPath, nil
	}
	home, err := a.home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Messages", "chat.db"), nil
}

// ContactsRoot returns the AddressBook directory.
func (a *Archive) ContactsRoot() (string, error) {
	if a.contactsRoot != "" {
		return a.contactsRoot, nil
	}
	home, err := a.home()
	if err != nil {
		return "", err
	}
	return contacts.DefaultRoot(home), nil
}

// CheckStoreAccessible reports whether chat.db can be opened and read. The
// error text tells the user how to grant access when the OS denies it.
func (a *Archive) CheckStoreAccessible(ctx context.Context) query.DatabaseStatus {
	path, err := a.ChatDBPath()
	if err != nil {
		return failedStatus("", homeUnavailableMessage)
	}

	st, err := store.OpenReadOnly(ctx, path)
	if err != nil {
		return failedStatus(path, fullDiskAccessMessage+openCause(err).Error())
	}
	defer st.Close()

	var n int64
	if err := st.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM message").Scan(&n); err != nil {
		return failedStatus(path, cannotReadMessage+err.Error())
	}
	a.logger.Debug("message store accessible", "path", path, "messages", n)
	return query.DatabaseStatus{Accessible: true, Path: path}
}

func failedStatus(path, msg string) query.DatabaseStatus {
	return query.DatabaseStatus{Accessible: false, Path: path, Error: &msg}
}

func openCause(err error) error {
	var openErr *store.OpenError
	if errors.As(err, &openErr) && openErr.Err != nil {
		return openErr.Err
	}
	return err
}

// CheckContactsAccessible reports whether any contact source yielded at
// least one name.
func (a *Archive) CheckContactsAccessible(ctx context.Context) bool {
	root, err := a.ContactsRoot()
	if err != nil {
		return false
	}
	return contacts.NewBuilder(root, a.logger).Accessible(ctx)
}

// Guidance returns user-facing advice for err, or "" when there is none.
func Guidance(err error) string {
	switch {
	case errors.Is(err, ErrHomeUnavailable):
		return homeUnavailableMessage
	case isOpenError(err):
		return fullDiskAccessMessage + openCause(err).Error()
	default:
		return ""
	}
}

func isOpenError(err error) bool {
	var openErr *store.OpenError
	return errors.As(err, &openErr)
}

// withEngine opens chat.db, runs fn against a fresh engine and closes the
// connection. Without a resolvable contacts root, names are not resolved.
func (a *Archive) withEngine(ctx context.Context, fn func(query.Engine) error) error {
	path, err := a.ChatDBPath()
	if err != nil {
		return err
	}
	st, err := store.OpenReadOnly(ctx, path)
	if err != nil {
		return fmt.Errorf("open message store: %w", err)
	}
	defer st.Close()

	var loader query.DirectoryLoader
	if root, err := a.ContactsRoot(); err == nil {
		loader = contacts.NewBuilder(root, a.logger)
	} else {
		a.logger.Warn("contact names unavailable", "error", err)
	}
	return fn(query.NewSQLiteEngine(st.DB(), loader, a.logger))
}

// ListContacts returns every handle with its message count.
func (a *Archive) ListContacts(ctx context.Context) ([]query.Contact, error) {
	var out []query.Contact
	err := a.withEngine(ctx, func(e query.Engine) error {
		var err error
		out, err = e.ListContacts(ctx)
		return err
	})
	return out, err
}

// ListChats returns every chat with resolved participants.
func (a *Archive) ListChats(ctx context.Context) ([]query.Chat, error) {
	var out []query.Chat
	err := a.withEngine(ctx, func(e query.Engine) error {
		var err error
		out, err = e.ListChats(ctx)
		return err
	})
	return out, err
}

// GetStats summarizes messages within the optional date range.
func (a *Archive) GetStats(ctx context.Context, opts query.ExportOptions) (*query.ChatStats, error) {
	var out *query.ChatStats
	err := a.withEngine(ctx, func(e query.Engine) error {
		var err error
		out, err = e.GetStats(ctx, opts)
		return err
	})
	return out, err
}

// ListMessages returns messages newest first. limit <= 0 means no cap.
func (a *Archive) ListMessages(ctx context.Context, opts query.ExportOptions, limit int) ([]query.Message, error) {
	var out []query.Message
	err := a.withEngine(ctx, func(e query.Engine) error {
		var err error
		out, err = e.ListMessages(ctx, opts, limit)
		return err
	})
	return out, err
}

// ListMessagesForContact returns every message exchanged with one handle.
func (a *Archive) ListMessagesForContact(ctx context.Context, contactID int64, opts query.ExportOptions) ([]query.Message, error) {
	var out []query.Message
	err := a.withEngine(ctx, func(e query.Engine) error {
		var err error
		out, err = e.ListMessagesForContact(ctx, contactID, opts)
		return err
	})
	return out, err
}
