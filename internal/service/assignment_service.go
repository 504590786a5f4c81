package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	tickets     repository.TicketRepository
	staff       repository.StaffRepository
	historyRepo repository.TicketHistoryRepository
	dispatcher  events.Dispatcher
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	StaffRepo   repository.StaffRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:     deps.TicketRepo,
		staff:       deps.StaffRepo,
		historyRepo: deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// SelfAssignTicket allows a staff member to take a ticket themselves.
func (s *AssignmentService) SelfAssignTicket(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	if !domain.IsStaffRole(staff.Role) {
		return nil, apperrors.NewPermissionDenied("insufficient role for self assign", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !s.staffCanAccess(staff, ticket) {
		return nil, apperrors.NewPermissionDenied("access denied", nil)
	}
	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = &staff.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssigneeChange(ctx, staff.ID, ticket.ID, oldAssignee, ticket.AssigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, staff.ID, events.TicketAssignedPayload{
		AssigneeStaffID: ticket.AssigneeID,
		CategoryID:      &ticket.CategoryID,
	}, ticket.ID)
	return ticket, nil
}

// AssignTicketToStaff assigns a ticket to the given staff member
// (TEAM_LEAD/ADMIN only).
func (s *AssignmentService) AssignTicketToStaff(ctx context.Context, actor *domain.StaffMember, ticketID, assigneeStaffID string) (*domain.Ticket, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	assignee, err := s.staff.GetByID(ctx, assigneeStaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": assigneeStaffID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"staff_id": assigneeStaffID})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !s.staffCanAccess(actor, ticket) {
		return nil, apperrors.NewPermissionDenied("access denied", nil)
	}
	if actor.Role != domain.RoleAdmin && !s.staffMatchesTicketScope(assignee, ticket) {
		return nil, apperrors.NewPermissionDenied("assignee outside ticket scope", nil)
	}
	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = &assignee.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssigneeChange(ctx, actor.ID, ticket.ID, oldAssignee, ticket.AssigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, actor.ID, events.TicketAssignedPayload{
		AssigneeStaffID: ticket.AssigneeID,
		CategoryID:      &ticket.CategoryID,
	}, ticket.ID)
	return ticket, nil
}

// AutoAssignTicket picks an assignee among active staff scoped to the
// ticket's category, falling back to unscoped staff.
func (s *AssignmentService) AutoAssignTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	filter := repository.StaffFilter{
		CategoryID: &ticket.CategoryID,
		Active:     ptrBool(true),
		Limit:      1000,
	}
	staffList, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(staffList) == 0 {
		staffList, err = s.staff.List(ctx, repository.StaffFilter{Active: ptrBool(true), Limit: 1000})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if len(staffList) == 0 {
		return nil, apperrors.NewConflict("no eligible staff for assignment", map[string]any{"category_id": ticket.CategoryID})
	}
	sort.Slice(staffList, func(i, j int) bool {
		return staffList[i].CreatedAt.Before(staffList[j].CreatedAt)
	})

	assignee := staffList[selectIndex(ticket.ID, len(staffList))]
	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = &assignee.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssigneeChange(ctx, assignee.ID, ticket.ID, oldAssignee, ticket.AssigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, assignee.ID, events.TicketAssignedPayload{
		AssigneeStaffID: ticket.AssigneeID,
		CategoryID:      &ticket.CategoryID,
	}, ticket.ID)
	return ticket, nil
}

func selectIndex(key string, length int) int {
	if length == 0 {
		return 0
	}
	sum := 0
	for _, ch := range key {
		sum += int(ch)
	}
	return sum % length
}

func ptrBool(v bool) *bool {
	return &v
}

func requireAssignPriv(staff *domain.StaffMember) error {
	if staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	if staff.Role != domain.RoleTeamLead && staff.Role != domain.RoleAdmin {
		return apperrors.NewPermissionDenied("insufficient role for assignment", nil)
	}
	return nil
}

func (s *AssignmentService) staffCanAccess(staff *domain.StaffMember, ticket *domain.Ticket) bool {
	if staff == nil {
		return false
	}
	if staff.Role == domain.RoleAdmin {
		return true
	}
	if staff.CategoryID == nil {
		return true
	}
	return *staff.CategoryID == ticket.CategoryID
}

func (s *AssignmentService) staffMatchesTicketScope(staff *domain.StaffMember, ticket *domain.Ticket) bool {
	if staff == nil {
		return false
	}
	return staff.CategoryID == nil || *staff.CategoryID == ticket.CategoryID
}

func (s *AssignmentService) recordAssigneeChange(ctx context.Context, actorID string, ticketID string, oldAssignee, newAssignee *string) error {
	return s.historyRepo.Create(ctx, &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.AuthorTypeStaff,
		ChangedByID:   &actorID,
		ChangeType:    domain.ChangeTypeAssignee,
		OldValue: map[string]any{
			"assignee_staff_id": oldAssignee,
		},
		NewValue: map[string]any{
			"assignee_staff_id": newAssignee,
		},
	})
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, actorID string, payload events.TicketAssignedPayload, ticketID string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticketID,
		Actor:     events.Actor{Type: domain.SubjectTypeStaff, StaffID: &actorID},
		Timestamp: time.Now(),
		Payload:   payload,
	}
	_ = s.dispatcher.Publish(ctx, event)
}
