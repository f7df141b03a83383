package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wesm/imsgvault/internal/archive"
	"github.com/wesm/imsgvault/internal/query"
)

const (
	defaultMessageLimit = 100
	maxMessageLimit     = 1000
)

// AccessResponse reports whether the message store and contacts are readable.
type AccessResponse struct {
	Database           query.DatabaseStatus `json:"database"`
	ContactsAccessible bool                 `json:"contacts_accessible"`
}

// ContactsResponse lists handles.
type ContactsResponse struct {
	Contacts []query.Contact `json:"contacts"`
}

// ChatsResponse lists chats.
type ChatsResponse struct {
	Chats []query.Chat `json:"chats"`
}

// MessagesResponse lists messages newest first.
type MessagesResponse struct {
	Count    int             `json:"count"`
	Messages []query.Message `json:"messages"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// writeReaderError maps archive errors to responses. Store access problems
// carry the guidance text the user needs to fix them.
func (s *Server) writeReaderError(w http.ResponseWriter, op string, err error) {
	if guidance := archive.Guidance(err); guidance != "" {
		s.logger.Warn("message store unavailable", "op", op, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", guidance)
		return
	}
	s.logger.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "Failed to "+op)
}

// parseFilter reads the date bounds and the repeatable contact_id
// parameter. Bounds are either calendar days (after, before) or inclusive
// Unix seconds (start, end); start and end win when both are given.
func parseFilter(r *http.Request) (query.ExportOptions, error) {
	q := r.URL.Query()
	after, err := query.ParseDate(q.Get("after"))
	if err != nil {
		return query.ExportOptions{}, err
	}
	before, err := query.ParseDate(q.Get("before"))
	if err != nil {
		return query.ExportOptions{}, err
	}
	opts := query.ExportOptions{}.WithDates(after, before)

	if opts.StartDate, err = unixParam(q.Get("start"), "start", opts.StartDate); err != nil {
		return query.ExportOptions{}, err
	}
	if opts.EndDate, err = unixParam(q.Get("end"), "end", opts.EndDate); err != nil {
		return query.ExportOptions{}, err
	}

	for _, v := range q["contact_id"] {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return query.ExportOptions{}, fmt.Errorf("invalid contact_id %q", v)
		}
		opts.ContactIDs = append(opts.ContactIDs, id)
	}
	return opts, nil
}

func unixParam(v, name string, def *int64) (*int64, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: expected Unix seconds", name, v)
	}
	return &n, nil
}

// parseLimit returns the limit parameter clamped to maxMessageLimit.
func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		return defaultMessageLimit
	}
	if limit > maxMessageLimit {
		return maxMessageLimit
	}
	return limit
}

func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AccessResponse{
		Database:           s.reader.CheckStoreAccessible(r.Context()),
		ContactsAccessible: s.reader.CheckContactsAccessible(r.Context()),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	opts, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	stats, err := s.reader.GetStats(r.Context(), opts)
	if err != nil {
		s.writeReaderError(w, "retrieve statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.reader.ListContacts(r.Context())
	if err != nil {
		s.writeReaderError(w, "retrieve contacts", err)
		return
	}
	if contacts == nil {
		contacts = []query.Contact{}
	}
	writeJSON(w, http.StatusOK, ContactsResponse{Contacts: contacts})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.reader.ListChats(r.Context())
	if err != nil {
		s.writeReaderError(w, "retrieve chats", err)
		return
	}
	if chats == nil {
		chats = []query.Chat{}
	}
	writeJSON(w, http.StatusOK, ChatsResponse{Chats: chats})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	opts, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	messages, err := s.reader.ListMessages(r.Context(), opts, parseLimit(r))
	if err != nil {
		s.writeReaderError(w, "retrieve messages", err)
		return
	}
	writeMessages(w, messages)
}

func (s *Server) handleContactMessages(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Contact ID must be a number")
		return
	}
	opts, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	messages, err := s.reader.ListMessagesForContact(r.Context(), id, opts)
	if err != nil {
		s.writeReaderError(w, "retrieve messages", err)
		return
	}
	writeMessages(w, messages)
}

func writeMessages(w http.ResponseWriter, messages []query.Message) {
	if messages == nil {
		messages = []query.Message{}
	}
	writeJSON(w, http.StatusOK, MessagesResponse{Count: len(messages), Messages: messages})
}
