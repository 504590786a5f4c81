package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/sequence"
	"github.com/spec-kit/servicedesk/internal/workflow"
	apperrors "github.com/spec-kit/servicedesk/pkg/util"
)

// TicketService coordinates ticket creation and the lifecycle engine.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.TicketCommentRepository
	attachments repository.AttachmentRepository
	categories  repository.CategoryRepository
	workflows   repository.WorkflowRepository
	staff       repository.StaffRepository
	history     repository.TicketHistoryRepository
	allocator   *sequence.Allocator
	capturer    *workflow.Capturer
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.TicketCommentRepository
	AttachmentRepo repository.AttachmentRepository
	CategoryRepo   repository.CategoryRepository
	WorkflowRepo   repository.WorkflowRepository
	StaffRepo      repository.StaffRepository
	HistoryRepo    repository.TicketHistoryRepository
	Allocator      *sequence.Allocator
	Capturer       *workflow.Capturer
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	CategoryID  string
	Title       string
	Description string
	Priority    domain.TicketPriority
	Tags        []string
}

// TransitionRequest describes a single requested status change.
type TransitionRequest struct {
	TicketID     string
	TargetStatus string
	ActorID      string
	ActorType    domain.SubjectType
	ActorRole    domain.Role
	Comment      *string
	Resolution   *string
}

// TicketUserFilter describes end-user listing filters.
type TicketUserFilter struct {
	Statuses    []string
	Priorities  []domain.TicketPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketStaffFilter describes staff listing filters.
type TicketStaffFilter struct {
	CategoryID  *string
	AssigneeID  *string
	Statuses    []string
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
	Limit       int
	Offset      int
}

// CommentAttachmentInput defines attachment metadata.
type CommentAttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		categories:  deps.CategoryRepo,
		workflows:   deps.WorkflowRepo,
		staff:       deps.StaffRepo,
		history:     deps.HistoryRepo,
		allocator:   deps.Allocator,
		capturer:    deps.Capturer,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// CreateTicket allocates a ticket number, captures the default workflow
// snapshot and persists the new ticket in the snapshot's entry status.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewValidationError("category inactive", map[string]any{"category_id": input.CategoryID})
	}

	number, err := s.allocator.Allocate(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	capture := s.capturer.CaptureDefault(ctx)

	ticket := &domain.Ticket{
		Number:           number,
		RequesterID:      userID,
		CategoryID:       input.CategoryID,
		Title:            strings.TrimSpace(input.Title),
		Description:      strings.TrimSpace(input.Description),
		Status:           capture.InitialStatus,
		Priority:         input.Priority,
		Tags:             input.Tags,
		WorkflowID:       capture.WorkflowID,
		WorkflowVersion:  capture.Version,
		WorkflowSnapshot: capture.Snapshot,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketCreatedPayload{
			Number:     ticket.Number,
			CategoryID: ticket.CategoryID,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
			Status:     ticket.Status,
		},
	})
	return ticket, nil
}

// ResolveTransitions computes the transitions available to role from the
// ticket's current status under its effective workflow graph. Used both
// server-side for validation and as a read model for UI affordances.
func (s *TicketService) ResolveTransitions(ctx context.Context, ticketID string, role domain.Role) ([]workflow.Transition, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	graph, ok, err := s.effectiveGraph(ctx, ticket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return []workflow.Transition{}, nil
	}
	return workflow.Resolve(graph, ticket.Status, role), nil
}

// RequestTransition validates and commits a single status change. On
// technical failures in the workflow path it falls back to the legacy
// unconditional transition; validation and permission failures are always
// surfaced and never mask into the fallback.
func (s *TicketService) RequestTransition(ctx context.Context, req TransitionRequest) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, req.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": req.TicketID})
		}
		return nil, apperrors.MapError(err)
	}

	if ticket.WorkflowID == nil && ticket.WorkflowSnapshot == nil {
		s.attachDefaultWorkflow(ctx, ticket, req)
	}

	graph, ok, graphErr := s.effectiveGraph(ctx, ticket)
	if graphErr != nil {
		s.logger.Warn("workflow lookup failed; applying legacy transition path",
			zap.String("ticket_id", ticket.ID),
			zap.Error(graphErr))
		return s.legacyTransition(ctx, ticket, req)
	}
	if !ok {
		// No workflow attached anywhere: the legacy path accepts any
		// status value.
		return s.legacyTransition(ctx, ticket, req)
	}

	match, found := workflow.MatchTarget(graph, ticket.Status, req.TargetStatus, req.ActorRole)
	if !found {
		return nil, apperrors.NewValidationError("transition not available from current status", map[string]any{
			"current_status": ticket.Status,
			"target_status":  req.TargetStatus,
		})
	}
	if !match.Transition.CanExecute {
		return nil, apperrors.NewPermissionDenied("role not permitted for transition", map[string]any{
			"role":          req.ActorRole,
			"target_status": req.TargetStatus,
		})
	}
	if err := checkConditions(match.Edge, req); err != nil {
		return nil, err
	}

	return s.commitTransition(ctx, ticket, match.Transition.To, match.Edge.Actions, req)
}

// effectiveGraph returns the graph governing a ticket: the immutable
// snapshot when present, otherwise the referenced definition, otherwise the
// live default. ok is false when the ticket has no workflow at all.
func (s *TicketService) effectiveGraph(ctx context.Context, ticket *domain.Ticket) (domain.WorkflowGraph, bool, error) {
	if ticket.WorkflowSnapshot != nil {
		return ticket.WorkflowSnapshot.Graph, true, nil
	}
	if ticket.WorkflowID != nil {
		def, err := s.workflows.GetByID(ctx, *ticket.WorkflowID)
		if err != nil {
			return domain.WorkflowGraph{}, false, err
		}
		return def.Graph, true, nil
	}
	def, err := s.workflows.FindDefault(ctx)
	if err != nil {
		return domain.WorkflowGraph{}, false, err
	}
	if def == nil {
		return domain.WorkflowGraph{}, false, nil
	}
	return def.Graph, true, nil
}

// attachDefaultWorkflow upgrades a legacy ticket by binding the current
// default workflow. Best-effort: failures are logged and the transition
// proceeds without the attachment.
func (s *TicketService) attachDefaultWorkflow(ctx context.Context, ticket *domain.Ticket, req TransitionRequest) {
	capture := s.capturer.CaptureDefault(ctx)
	if capture.WorkflowID == nil {
		return
	}
	ticket.WorkflowID = capture.WorkflowID
	ticket.WorkflowVersion = capture.Version
	ticket.WorkflowSnapshot = capture.Snapshot
	if err := s.tickets.Update(ctx, ticket); err != nil {
		s.logger.Warn("failed to persist default workflow attachment",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		return
	}
	actorType, actorID := historyActor(req)
	entry := &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeWorkflow,
		OldValue:      map[string]any{"workflow_id": nil},
		NewValue:      map[string]any{"workflow_id": *capture.WorkflowID, "workflow_version": capture.Version},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record workflow attachment", zap.Error(err))
	}
}

// commitTransition applies edge actions, writes the new status and one
// history entry per changed field, then publishes the change.
func (s *TicketService) commitTransition(ctx context.Context, ticket *domain.Ticket, newStatus string, actions []domain.TransitionAction, req TransitionRequest) (*domain.Ticket, error) {
	oldStatus := ticket.Status
	oldResolution := ticket.Resolution

	for _, action := range actions {
		applyAction(ticket, action)
	}
	if req.Resolution != nil && strings.TrimSpace(*req.Resolution) != "" {
		resolution := strings.TrimSpace(*req.Resolution)
		ticket.Resolution = &resolution
	}
	ticket.Status = newStatus
	stampClosed(ticket)

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordTransitionHistory(ctx, ticket, oldStatus, oldResolution, req); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStatusChange(ctx, ticket, oldStatus, req)
	return ticket, nil
}

// legacyTransition accepts the requested status unconditionally. It exists
// so that workflow misconfiguration never blocks ticket progress entirely.
func (s *TicketService) legacyTransition(ctx context.Context, ticket *domain.Ticket, req TransitionRequest) (*domain.Ticket, error) {
	oldStatus := ticket.Status
	oldResolution := ticket.Resolution

	if req.Resolution != nil && strings.TrimSpace(*req.Resolution) != "" {
		resolution := strings.TrimSpace(*req.Resolution)
		ticket.Resolution = &resolution
	}
	ticket.Status = workflow.StatusToken(req.TargetStatus)
	stampClosed(ticket)

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordTransitionHistory(ctx, ticket, oldStatus, oldResolution, req); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStatusChange(ctx, ticket, oldStatus, req)
	return ticket, nil
}

func applyAction(ticket *domain.Ticket, action domain.TransitionAction) {
	switch action.Type {
	case "set_field":
		switch action.Field {
		case "resolution":
			value := action.Value
			ticket.Resolution = &value
		case "assignee":
			if action.Value == "" {
				ticket.AssigneeID = nil
			} else {
				value := action.Value
				ticket.AssigneeID = &value
			}
		}
	case "clear_resolution":
		ticket.Resolution = nil
	}
}

// stampClosed maintains the closed timestamp: set when entering CLOSED,
// cleared when leaving it.
func stampClosed(ticket *domain.Ticket) {
	if ticket.Status == domain.StatusClosed {
		if ticket.ClosedAt == nil {
			now := time.Now()
			ticket.ClosedAt = &now
		}
		return
	}
	ticket.ClosedAt = nil
}

func checkConditions(edge domain.WorkflowEdge, req TransitionRequest) error {
	for _, condition := range edge.Conditions {
		switch condition.Type {
		case "require_resolution":
			if req.Resolution == nil || strings.TrimSpace(*req.Resolution) == "" {
				return apperrors.NewValidationError("transition requires a resolution", map[string]any{
					"target_status": req.TargetStatus,
				})
			}
		case "require_comment":
			if req.Comment == nil || strings.TrimSpace(*req.Comment) == "" {
				return apperrors.NewValidationError("transition requires a comment", map[string]any{
					"target_status": req.TargetStatus,
				})
			}
		}
		// Unknown condition types come from the external editor and are
		// ignored here.
	}
	return nil
}

func (s *TicketService) recordTransitionHistory(ctx context.Context, ticket *domain.Ticket, oldStatus string, oldResolution *string, req TransitionRequest) error {
	actorType, actorID := historyActor(req)

	newValue := map[string]any{"status": ticket.Status}
	if req.Comment != nil && strings.TrimSpace(*req.Comment) != "" {
		newValue["comment"] = strings.TrimSpace(*req.Comment)
	}
	entry := &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": oldStatus},
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return err
	}

	if !equalStringPtr(oldResolution, ticket.Resolution) {
		entry := &domain.TicketHistory{
			TicketID:      ticket.ID,
			ChangedByType: actorType,
			ChangedByID:   actorID,
			ChangeType:    domain.ChangeTypeResolution,
			OldValue:      map[string]any{"resolution": oldResolution},
			NewValue:      map[string]any{"resolution": ticket.Resolution},
		}
		if err := s.history.Create(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *TicketService) publishStatusChange(ctx context.Context, ticket *domain.Ticket, oldStatus string, req TransitionRequest) {
	comment := ""
	if req.Comment != nil {
		comment = strings.TrimSpace(*req.Comment)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actorFromSubject(req.ActorType, req.ActorID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   comment,
		},
	})
}

// ListUserTickets returns paginated tickets for a requester.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, filter TicketUserFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		RequesterID: &userID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicketForUser fetches a ticket ensuring ownership.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, []domain.TicketComment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if ticket.RequesterID != userID {
		return nil, nil, apperrors.NewPermissionDenied("access denied", nil)
	}
	comments, err := s.visibleCommentsForUser(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, nil
}

// ListStaffTickets returns tickets accessible to staff.
func (s *TicketService) ListStaffTickets(ctx context.Context, staff *domain.StaffMember, filter TicketStaffFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		CategoryID:  filter.CategoryID,
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		UpdatedFrom: filter.UpdatedFrom,
		UpdatedTo:   filter.UpdatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	s.applyStaffScope(&repoFilter, staff)
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicketForStaff fetches a ticket ensuring staff access.
func (s *TicketService) GetTicketForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, []domain.TicketComment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !s.staffCanAccessTicket(staff, ticket) {
		return nil, nil, apperrors.NewPermissionDenied("access denied", nil)
	}
	comments, err := s.commentsWithAttachments(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, nil
}

// AddComment appends a comment to a ticket thread.
func (s *TicketService) AddComment(ctx context.Context, actor domain.SubjectType, actorID string, staff *domain.StaffMember, ticketID string, commentType domain.TicketCommentType, body string, attachments []CommentAttachmentInput) (*domain.TicketComment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	switch actor {
	case domain.SubjectTypeUser:
		if ticket.RequesterID != actorID {
			return nil, apperrors.NewPermissionDenied("access denied", nil)
		}
		if commentType != domain.CommentTypePublicReply {
			return nil, apperrors.NewValidationError("users can only post public replies", nil)
		}
	case domain.SubjectTypeStaff:
		if staff == nil {
			return nil, apperrors.NewUnauthorized("staff context required")
		}
		if !s.staffCanAccessTicket(staff, ticket) {
			return nil, apperrors.NewPermissionDenied("access denied", nil)
		}
		if commentType != domain.CommentTypePublicReply && commentType != domain.CommentTypeInternalNote {
			return nil, apperrors.NewValidationError("invalid comment type for staff", nil)
		}
	default:
		return nil, apperrors.NewValidationError("unknown actor", nil)
	}

	comment := &domain.TicketComment{
		TicketID:    ticket.ID,
		CommentType: commentType,
		Body:        strings.TrimSpace(body),
	}
	if actor == domain.SubjectTypeUser {
		comment.AuthorType = domain.AuthorTypeUser
		authorID := ticket.RequesterID
		comment.AuthorID = &authorID
	} else {
		comment.AuthorType = domain.AuthorTypeStaff
		if staff != nil {
			comment.AuthorID = &staff.ID
		}
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, att := range attachments {
		record := &domain.AttachmentReference{
			TicketCommentID: comment.ID,
			StorageKey:      att.StorageKey,
			FileName:        att.FileName,
			MimeType:        att.MimeType,
			SizeBytes:       att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
		comment.Attachments = append(comment.Attachments, *record)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		Actor:    actorFromSubject(actor, actorID),
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			CommentType: comment.CommentType,
			AuthorType:  comment.AuthorType,
			AuthorID:    comment.AuthorID,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// UpdatePriority changes ticket priority by staff.
func (s *TicketService) UpdatePriority(ctx context.Context, staff *domain.StaffMember, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !s.staffCanAccessTicket(staff, ticket) {
		return nil, apperrors.NewPermissionDenied("access denied", nil)
	}
	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	entry := &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: domain.AuthorTypeStaff,
		ChangedByID:   &staff.ID,
		ChangeType:    domain.ChangeTypePriority,
		OldValue:      map[string]any{"priority": oldPriority},
		NewValue:      map[string]any{"priority": newPriority},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return ticket, nil
}

// ListHistoryForStaff returns history entries for staff.
func (s *TicketService) ListHistoryForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !s.staffCanAccessTicket(staff, ticket) {
		return nil, apperrors.NewPermissionDenied("access denied", nil)
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

// ListHistoryForUser returns user-safe history entries.
func (s *TicketService) ListHistoryForUser(ctx context.Context, userID, ticketID string) ([]domain.TicketHistory, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.RequesterID != userID {
		return nil, apperrors.NewPermissionDenied("access denied", nil)
	}
	history, err := s.history.ListByTicket(ctx, ticketID, 100, 0)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	allowed := []domain.TicketHistory{}
	for _, entry := range history {
		if entry.ChangeType == domain.ChangeTypeStatus || entry.ChangeType == domain.ChangeTypeAssignee || entry.ChangeType == domain.ChangeTypeResolution {
			allowed = append(allowed, entry)
		}
	}
	return allowed, nil
}

func (s *TicketService) applyStaffScope(filter *repository.TicketFilter, staff *domain.StaffMember) {
	if staff == nil || staff.Role == domain.RoleAdmin {
		return
	}
	if staff.CategoryID != nil {
		filter.CategoryID = staff.CategoryID
	}
}

func (s *TicketService) staffCanAccessTicket(staff *domain.StaffMember, ticket *domain.Ticket) bool {
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

func (s *TicketService) visibleCommentsForUser(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	comments, err := s.commentsWithAttachments(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.TicketComment, 0, len(comments))
	for _, comment := range comments {
		if comment.CommentType == domain.CommentTypeInternalNote {
			continue
		}
		filtered = append(filtered, comment)
	}
	return filtered, nil
}

func (s *TicketService) commentsWithAttachments(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		attachments, err := s.attachments.ListByComment(ctx, comments[i].ID)
		if err != nil {
			return nil, err
		}
		comments[i].Attachments = attachments
	}
	return comments, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func historyActor(req TransitionRequest) (domain.CommentAuthorType, *string) {
	actorID := req.ActorID
	switch req.ActorType {
	case domain.SubjectTypeStaff:
		return domain.AuthorTypeStaff, &actorID
	case domain.SubjectTypeUser:
		return domain.AuthorTypeUser, &actorID
	default:
		return domain.AuthorTypeSystem, nil
	}
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.SubjectTypeUser,
		UserID: &userID,
	}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{
		Type:    domain.SubjectTypeStaff,
		StaffID: &staffID,
	}
}

func actorFromSubject(subject domain.SubjectType, id string) events.Actor {
	switch subject {
	case domain.SubjectTypeStaff:
		return staffActor(id)
	default:
		return userActor(id)
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
