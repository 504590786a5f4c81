package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus     TicketChangeType = "STATUS_CHANGE"
	ChangeTypeResolution TicketChangeType = "RESOLUTION_CHANGE"
	ChangeTypeAssignee   TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority   TicketChangeType = "PRIORITY_CHANGE"
	ChangeTypeCategory   TicketChangeType = "CATEGORY_CHANGE"
	ChangeTypeWorkflow   TicketChangeType = "WORKFLOW_ATTACHED"
	ChangeTypeTags       TicketChangeType = "TAGS_CHANGE"
)

// TicketHistory is an immutable audit trail entry. Entries are append-only
// and totally ordered per ticket by CreatedAt.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByType CommentAuthorType
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
