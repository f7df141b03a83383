// Package query reassembles the Messages chat.db into contacts, chats and
// messages with their attachments and reactions. chat.db links reactions to
// their parent messages only through prefixed guid strings and links
// attachments through join tables, so the engine rebuilds those
// relationships in batched secondary queries.
package query

import "github.com/wesm/imsgvault/internal/appletime"

// groupChatStyle is the chat.style value for group conversations; one-to-one
// chats use 45.
const groupChatStyle = 43

// Contact is one handle in the message store.
type Contact struct {
	ID           int64   `json:"id"`
	Identifier   string  `json:"identifier"`
	DisplayName  *string `json:"display_name"`
	MessageCount int64   `json:"message_count"`
}

// Chat is a conversation with its resolved participants.
type Chat struct {
	ID               int64    `json:"id"`
	ChatIdentifier   string   `json:"chat_identifier"`
	DisplayName      *string  `json:"display_name"`
	IsGroup          bool     `json:"is_group"`
	ParticipantCount int64    `json:"participant_count"`
	MessageCount     int64    `json:"message_count"`
	Participants     []string `json:"participants"`    // resolved names
	ParticipantIDs   []string `json:"participant_ids"` // raw identifiers, same order
}

// Message is an ordinary message. Reactions and edits never appear as
// messages; reactions are attached to their parent instead.
type Message struct {
	ID                int64        `json:"id"`
	GUID              string       `json:"guid"`
	Text              *string      `json:"text"`
	Date              int64        `json:"date"` // Unix seconds
	DateFormatted     string       `json:"date_formatted"`
	IsFromMe          bool         `json:"is_from_me"`
	HandleID          int64        `json:"handle_id"`
	ContactIdentifier string       `json:"contact_identifier"`
	SenderName        string       `json:"sender_name"`
	ChatID            *int64       `json:"chat_id"`
	HasAttachment     bool         `json:"has_attachment"`
	Attachments       []Attachment `json:"attachments"`
	Reactions         []Reaction   `json:"reactions"`
}

// Time returns the message date as "YYYY-MM-DD HH:MM:SS" in UTC.
func (m Message) Time() string {
	return appletime.Format(m.Date)
}

// Attachment describes a file attached to a message.
type Attachment struct {
	Filename     *string `json:"filename"`
	MimeType     *string `json:"mime_type"`
	TransferName *string `json:"transfer_name"`
}

// DisplayName returns the best available name for the attachment.
func (a Attachment) DisplayName() string {
	switch {
	case a.TransferName != nil && *a.TransferName != "":
		return *a.TransferName
	case a.Filename != nil && *a.Filename != "":
		return *a.Filename
	default:
		return "attachment"
	}
}

// ReactionType is the chat.db associated_message_type of a tapback.
type ReactionType int64

// Tapback kinds. Values 3000-3005 remove the corresponding tapback and are
// not reported.
const (
	ReactionLove     ReactionType = 2000
	ReactionLike     ReactionType = 2001
	ReactionDislike  ReactionType = 2002
	ReactionLaugh    ReactionType = 2003
	ReactionEmphasis ReactionType = 2004
	ReactionQuestion ReactionType = 2005
)

func (r ReactionType) String() string {
	switch r {
	case ReactionLove:
		return "love"
	case ReactionLike:
		return "like"
	case ReactionDislike:
		return "dislike"
	case ReactionLaugh:
		return "laugh"
	case ReactionEmphasis:
		return "emphasis"
	case ReactionQuestion:
		return "question"
	default:
		return "reaction"
	}
}

// Reaction is a tapback attached to its parent message.
type Reaction struct {
	ReactionType ReactionType `json:"reaction_type"`
	Sender       string       `json:"sender"`
	IsFromMe     bool         `json:"is_from_me"`
}

// ExportOptions filters messages and statistics. Dates are Unix seconds and
// inclusive; nil means unbounded on that side.
type ExportOptions struct {
	StartDate  *int64  `json:"start_date,omitempty"`
	EndDate    *int64  `json:"end_date,omitempty"`
	ContactIDs []int64 `json:"contact_ids,omitempty"`
}

// ChatStats summarizes the message store.
type ChatStats struct {
	TotalMessages    int64  `json:"total_messages"`
	MessagesSent     int64  `json:"messages_sent"`
	MessagesReceived int64  `json:"messages_received"`
	TotalContacts    int64  `json:"total_contacts"`
	DateRangeStart   *int64 `json:"date_range_start"`
	DateRangeEnd     *int64 `json:"date_range_end"`
}

// DatabaseStatus reports whether chat.db can be read.
type DatabaseStatus struct {
	Accessible bool    `json:"accessible"`
	Path       string  `json:"path"`
	Error      *string `json:"error"`
}
