package domain

import "time"

// CommentAuthorType indicates who authored a comment.
type CommentAuthorType string

const (
	AuthorTypeUser   CommentAuthorType = "USER"
	AuthorTypeStaff  CommentAuthorType = "STAFF"
	AuthorTypeSystem CommentAuthorType = "SYSTEM"
)

// TicketCommentType differentiates between replies and notes.
type TicketCommentType string

const (
	CommentTypePublicReply  TicketCommentType = "PUBLIC_REPLY"
	CommentTypeInternalNote TicketCommentType = "INTERNAL_NOTE"
	CommentTypeSystemEvent  TicketCommentType = "SYSTEM_EVENT"
)

// TicketComment captures communications in a ticket thread.
type TicketComment struct {
	ID          string
	TicketID    string
	AuthorType  CommentAuthorType
	AuthorID    *string
	CommentType TicketCommentType
	Body        string
	Attachments []AttachmentReference
	CreatedAt   time.Time
}

// AttachmentReference stores metadata for ticket comment attachments. The
// bytes themselves live in external object storage under StorageKey.
type AttachmentReference struct {
	ID              string
	TicketCommentID string
	StorageKey      string
	FileName        string
	MimeType        string
	SizeBytes       int64
	CreatedAt       time.Time
}
