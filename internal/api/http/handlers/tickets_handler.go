package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/workflow"
	apperrors "github.com/spec-kit/servicedesk/pkg/util"
)

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CategoryID == "" || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("category_id, title, description required", nil)
	}

	input := service.TicketCreateInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Tags:        req.Tags,
	}
	ticket, err := h.service.CreateTicket(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	filter := parseUserTicketQuery(c)
	tickets, err := h.service.ListUserTickets(c.Context(), principal.User.ID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, comments, err := h.service.GetTicketForUser(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.service.ListHistoryForUser(c.Context(), principal.User.ID, ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments, history)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	attachments := make([]service.CommentAttachmentInput, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, service.CommentAttachmentInput{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	comment, err := h.service.AddComment(c.Context(), domain.SubjectTypeUser, principal.User.ID, nil, c.Params("id"), domain.CommentTypePublicReply, req.Body, attachments)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketCommentResponse(comment)})
}

// ListTransitions GET /tickets/:id/transitions.
func (h *TicketsHandler) ListTransitions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	// Ownership check happens via the user-scoped fetch.
	if _, _, err := h.service.GetTicketForUser(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	transitions, err := h.service.ResolveTransitions(c.Context(), c.Params("id"), domain.RoleEndUser)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionOptions(transitions)})
}

// Transition POST /tickets/:id/transition. End users may only request
// transitions their role is granted in the workflow, typically closing
// their own ticket.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.TransitionRequestBody
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TargetStatus) == "" {
		return apperrors.NewValidationError("target_status required", nil)
	}
	if _, _, err := h.service.GetTicketForUser(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	ticket, err := h.service.RequestTransition(c.Context(), service.TransitionRequest{
		TicketID:     c.Params("id"),
		TargetStatus: req.TargetStatus,
		ActorID:      principal.User.ID,
		ActorType:    domain.SubjectTypeUser,
		ActorRole:    domain.RoleEndUser,
		Comment:      req.Comment,
		Resolution:   req.Resolution,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func parseUserTicketQuery(c *fiber.Ctx) service.TicketUserFilter {
	filter := service.TicketUserFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, strings.TrimSpace(part))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:         ticket.ID,
		Number:     ticket.Number,
		CategoryID: ticket.CategoryID,
		AssigneeID: ticket.AssigneeID,
		Title:      ticket.Title,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		Tags:       ticket.Tags,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, comments []domain.TicketComment, history []domain.TicketHistory) dto.TicketDetailResponse {
	items := make([]dto.TicketCommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, ticketCommentResponse(&comments[i]))
	}
	return dto.TicketDetailResponse{
		ID:              ticket.ID,
		Number:          ticket.Number,
		CategoryID:      ticket.CategoryID,
		AssigneeID:      ticket.AssigneeID,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		Resolution:      ticket.Resolution,
		Tags:            ticket.Tags,
		WorkflowID:      ticket.WorkflowID,
		WorkflowVersion: ticket.WorkflowVersion,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
		ClosedAt:        ticket.ClosedAt,
		Comments:        items,
		History:         historyResponses(history),
	}
}

func ticketCommentResponse(comment *domain.TicketComment) dto.TicketCommentResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(comment.Attachments))
	for _, att := range comment.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		})
	}
	return dto.TicketCommentResponse{
		ID:          comment.ID,
		CommentType: comment.CommentType,
		AuthorType:  comment.AuthorType,
		AuthorID:    comment.AuthorID,
		Body:        comment.Body,
		Attachments: attachments,
		CreatedAt:   comment.CreatedAt,
	}
}

func transitionOptions(transitions []workflow.Transition) []dto.TransitionOption {
	options := make([]dto.TransitionOption, 0, len(transitions))
	for _, t := range transitions {
		options = append(options, dto.TransitionOption{
			To:         t.To,
			Label:      t.Label,
			CanExecute: t.CanExecute,
		})
	}
	return options
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:            entry.ID,
			ChangeType:    string(entry.ChangeType),
			ChangedByType: string(entry.ChangedByType),
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}
