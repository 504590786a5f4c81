package dto

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string                `json:"category_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Tags        []string              `json:"tags"`
}

// TicketListQuery captures query filters for user endpoints.
type TicketListQuery struct {
	Statuses    []string
	Priorities  []domain.TicketPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// TicketSummary response.
type TicketSummary struct {
	ID         string                `json:"id"`
	Number     string                `json:"number"`
	CategoryID string                `json:"category_id"`
	AssigneeID *string               `json:"assignee_id"`
	Title      string                `json:"title"`
	Status     string                `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	Tags       []string              `json:"tags"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID              string                  `json:"id"`
	Number          string                  `json:"number"`
	CategoryID      string                  `json:"category_id"`
	AssigneeID      *string                 `json:"assignee_id"`
	Title           string                  `json:"title"`
	Description     string                  `json:"description"`
	Status          string                  `json:"status"`
	Priority        domain.TicketPriority   `json:"priority"`
	Resolution      *string                 `json:"resolution"`
	Tags            []string                `json:"tags"`
	WorkflowID      *string                 `json:"workflow_id"`
	WorkflowVersion *int                    `json:"workflow_version"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	ClosedAt        *time.Time              `json:"closed_at"`
	Comments        []TicketCommentResponse `json:"comments"`
	History         []TicketHistoryResponse `json:"history,omitempty"`
}

// TicketCommentResponse represents a thread entry.
type TicketCommentResponse struct {
	ID          string                   `json:"id"`
	CommentType domain.TicketCommentType `json:"comment_type"`
	AuthorType  domain.CommentAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id"`
	Body        string                   `json:"body"`
	Attachments []AttachmentResponse     `json:"attachments"`
	CreatedAt   time.Time                `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body        string                    `json:"body"`
	CommentType *domain.TicketCommentType `json:"comment_type,omitempty"`
	Attachments []AttachmentRequest       `json:"attachments"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// TransitionRequestBody payload for status changes.
type TransitionRequestBody struct {
	TargetStatus string  `json:"target_status"`
	Comment      *string `json:"comment,omitempty"`
	Resolution   *string `json:"resolution,omitempty"`
}

// TransitionOption describes one available transition.
type TransitionOption struct {
	To         string `json:"to"`
	Label      string `json:"label"`
	CanExecute bool   `json:"can_execute"`
}

// TicketHistoryResponse represents an audit entry.
type TicketHistoryResponse struct {
	ID            string         `json:"id"`
	ChangedByType string         `json:"changed_by_type"`
	ChangedByID   *string        `json:"changed_by_id"`
	ChangeType    string         `json:"change_type"`
	OldValue      map[string]any `json:"old_value"`
	NewValue      map[string]any `json:"new_value"`
	CreatedAt     time.Time      `json:"created_at"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	StaffID string `json:"staff_id"`
}
