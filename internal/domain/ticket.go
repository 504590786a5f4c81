package domain

import "time"

// Well-known status literals. Ticket status is an open string validated
// against the attached workflow graph, not a closed enum; these two are the
// only literals the engine itself relies on.
const (
	StatusNew    = "NEW"
	StatusClosed = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for service-desk requests.
type Ticket struct {
	ID          string
	Number      string
	RequesterID string
	CategoryID  string
	AssigneeID  *string
	Title       string
	Description string
	Status      string
	Priority    TicketPriority
	Resolution  *string
	Tags        []string

	// Workflow binding captured at creation time. WorkflowID is nil for
	// legacy tickets created before workflows existed; the snapshot, once
	// written, never changes even if the source definition is edited.
	WorkflowID       *string
	WorkflowVersion  *int
	WorkflowSnapshot *WorkflowSnapshot

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}
