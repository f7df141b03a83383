// Package export writes conversations as plain-text transcripts, one file
// per chat, plus a self-contained HTML viewer that embeds them.
package export

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/wesm/imsgvault/internal/archive"
	"github.com/wesm/imsgvault/internal/fileutil"
	"github.com/wesm/imsgvault/internal/query"
	"github.com/wesm/imsgvault/internal/textutil"
)

const (
	// OrphanedFile collects messages that belong to no known chat.
	OrphanedFile = "orphaned.txt"
	// ViewerFile is the generated HTML viewer.
	ViewerFile = "viewer.html"

	viewerPlaceholder  = "window.IMESSAGE_DATA = {};"
	defaultConcurrency = 4
)

//go:embed viewer_template.html
var viewerTemplate string

// Options selects what to export and where.
type Options struct {
	Dir    string
	Filter query.ExportOptions

	// Progress, if set, is called after each file is written.
	Progress func(written, total int)
}

// Result summarizes a completed export.
type Result struct {
	Dir           string   `json:"dir"`
	Conversations int      `json:"conversations"`
	Messages      int      `json:"messages"`
	Files         []string `json:"files"`
}

// Exporter writes transcripts read through an archive.Reader.
type Exporter struct {
	reader      archive.Reader
	logger      *slog.Logger
	concurrency int
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger for the exporter.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Exporter) {
		x.logger = logger
	}
}

// WithConcurrency sets how many files are written in parallel.
func WithConcurrency(n int) Option {
	return func(x *Exporter) {
		if n > 0 {
			x.concurrency = n
		}
	}
}

// NewExporter creates an Exporter.
func NewExporter(reader archive.Reader, opts ...Option) *Exporter {
	x := &Exporter{
		reader:      reader,
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// file is one output file and its contents.
type file struct {
	name    string
	content string
}

// Export reads chats and messages once and writes every non-empty
// conversation, the orphaned messages and the viewer into opts.Dir.
func (x *Exporter) Export(ctx context.Context, opts Options) (*Result, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("export directory is required")
	}

	chats, err := x.reader.ListChats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	messages, err := x.reader.ListMessages(ctx, opts.Filter, 0)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	files, conversations := buildTranscripts(chats, messages)
	viewer, err := renderViewer(files)
	if err != nil {
		return nil, err
	}
	files = append(files, file{name: ViewerFile, content: viewer})

	if err := fileutil.SecureMkdirAll(opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	if err := x.writeFiles(ctx, opts, files); err != nil {
		return nil, err
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	sort.Strings(names)

	x.logger.Info("export complete", "dir", opts.Dir, "conversations", conversations, "messages", len(messages))
	return &Result{
		Dir:           opts.Dir,
		Conversations: conversations,
		Messages:      len(messages),
		Files:         names,
	}, nil
}

func (x *Exporter) writeFiles(ctx context.Context, opts Options, files []file) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(x.concurrency)

	var mu sync.Mutex
	written := 0
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(opts.Dir, f.name)
			if err := fileutil.SecureWriteFile(path, []byte(f.content), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", f.name, err)
			}
			x.logger.Debug("wrote transcript", "file", f.name, "bytes", len(f.content))
			if opts.Progress != nil {
				mu.Lock()
				written++
				opts.Progress(written, len(files))
				mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}

// buildTranscripts groups messages by chat and renders one file per chat
// that has messages, plus orphaned.txt for the rest. It returns the files
// and the number of chat conversations among them.
func buildTranscripts(chats []query.Chat, messages []query.Message) ([]file, int) {
	byChat := make(map[int64][]query.Message)
	var orphaned []query.Message
	known := make(map[int64]bool, len(chats))
	for _, c := range chats {
		known[c.ID] = true
	}
	for _, m := range messages {
		if m.ChatID != nil && known[*m.ChatID] {
			byChat[*m.ChatID] = append(byChat[*m.ChatID], m)
		} else {
			orphaned = append(orphaned, m)
		}
	}

	var files []file
	used := make(map[string]bool)
	for _, c := range chats {
		msgs := byChat[c.ID]
		if len(msgs) == 0 {
			continue
		}
		name := uniqueName(ChatTitle(c), c.ID, used)
		files = append(files, file{name: name, content: RenderTranscript(msgs)})
	}
	conversations := len(files)
	if len(orphaned) > 0 {
		files = append(files, file{name: OrphanedFile, content: RenderTranscript(orphaned)})
	}
	return files, conversations
}

// ChatTitle names a chat for display: its stored or backfilled name, else
// its participants, else its identifier.
func ChatTitle(c query.Chat) string {
	switch {
	case c.DisplayName != nil && *c.DisplayName != "":
		return *c.DisplayName
	case len(c.Participants) > 0:
		return strings.Join(c.Participants, ", ")
	case c.ChatIdentifier != "":
		return c.ChatIdentifier
	default:
		return fmt.Sprintf("chat-%d", c.ID)
	}
}

// maxBaseBytes caps a file name's title part so that suffixes and the
// temporary-file extension still fit in a 255-byte name.
const maxBaseBytes = 180

// uniqueName returns a sanitized "<title>.txt" that is not yet in used,
// adding "-<id>" (then "-<id>-<n>") on collision. Names are compared
// case-insensitively.
func uniqueName(title string, id int64, used map[string]bool) string {
	base := textutil.SanitizeFilename(title)
	if len(base) > maxBaseBytes {
		if base = strings.TrimRight(truncateBytes(base, maxBaseBytes), " ."); base == "" {
			base = "_"
		}
	}
	name := base + ".txt"
	for n := 1; used[strings.ToLower(name)] || strings.EqualFold(name, OrphanedFile); n++ {
		if n == 1 {
			name = fmt.Sprintf("%s-%d.txt", base, id)
		} else {
			name = fmt.Sprintf("%s-%d-%d.txt", base, id, n)
		}
	}
	used[strings.ToLower(name)] = true
	return name
}

// truncateBytes shortens s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// RenderTranscript renders messages oldest first.
func RenderTranscript(messages []query.Message) string {
	sorted := make([]query.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].ID < sorted[j].ID
	})

	var sb strings.Builder
	for _, m := range sorted {
		text := ""
		if m.Text != nil {
			text = *m.Text
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.Time(), m.SenderName, text)
		for _, a := range m.Attachments {
			if a.MimeType != nil && *a.MimeType != "" {
				fmt.Fprintf(&sb, "  [Attachment: %s (%s)]\n", a.DisplayName(), *a.MimeType)
			} else {
				fmt.Fprintf(&sb, "  [Attachment: %s]\n", a.DisplayName())
			}
		}
		if len(m.Reactions) > 0 {
			parts := make([]string, len(m.Reactions))
			for i, r := range m.Reactions {
				parts[i] = r.Sender + " " + reactionVerb(r.ReactionType)
			}
			fmt.Fprintf(&sb, "  Reactions: %s\n", strings.Join(parts, ", "))
		}
	}
	return sb.String()
}

func reactionVerb(t query.ReactionType) string {
	switch t {
	case query.ReactionLove:
		return "loved"
	case query.ReactionLike:
		return "liked"
	case query.ReactionDislike:
		return "disliked"
	case query.ReactionLaugh:
		return "laughed at"
	case query.ReactionEmphasis:
		return "emphasized"
	case query.ReactionQuestion:
		return "questioned"
	default:
		return "reacted to"
	}
}

// renderViewer injects the chat transcripts into the viewer template.
// orphaned.txt is left out since it is not a conversation.
func renderViewer(files []file) (string, error) {
	data := make(map[string]string, len(files))
	for _, f := range files {
		if f.name != OrphanedFile {
			data[f.name] = f.content
		}
	}
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode viewer data: %w", err)
	}
	return strings.Replace(viewerTemplate, viewerPlaceholder,
		"window.IMESSAGE_DATA = "+string(payload)+";", 1), nil
}
