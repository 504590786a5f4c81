package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
	apperrors "github.com/spec-kit/servicedesk/pkg/util"
)

// StaffTicketsHandler handles staff-side ticket endpoints.
type StaffTicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService, assignmentService *service.AssignmentService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService, assignments: assignmentService}
}

// ListStaffTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListStaffTickets(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	filter := parseStaffTicketFilter(c)
	tickets, err := h.tickets.ListStaffTickets(c.Context(), staff, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetStaffTicket GET /staff/tickets/:id.
func (h *StaffTicketsHandler) GetStaffTicket(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, comments, err := h.tickets.GetTicketForStaff(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.tickets.ListHistoryForStaff(c.Context(), staff, ticket.ID, 100, 0)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments, history)})
}

// AddStaffComment POST /staff/tickets/:id/comments.
func (h *StaffTicketsHandler) AddStaffComment(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	commentType := domain.CommentTypePublicReply
	if req.CommentType != nil {
		commentType = *req.CommentType
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
	comment, err := h.tickets.AddComment(c.Context(), domain.SubjectTypeStaff, staff.ID, staff, c.Params("id"), commentType, req.Body, attachments)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketCommentResponse(comment)})
}

// ListStaffTransitions GET /staff/tickets/:id/transitions.
func (h *StaffTicketsHandler) ListStaffTransitions(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	if _, _, err := h.tickets.GetTicketForStaff(c.Context(), staff, c.Params("id")); err != nil {
		return err
	}
	transitions, err := h.tickets.ResolveTransitions(c.Context(), c.Params("id"), staff.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionOptions(transitions)})
}

// Transition POST /staff/tickets/:id/transition.
func (h *StaffTicketsHandler) Transition(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequestBody
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TargetStatus) == "" {
		return apperrors.NewValidationError("target_status required", nil)
	}
	if _, _, err := h.tickets.GetTicketForStaff(c.Context(), staff, c.Params("id")); err != nil {
		return err
	}
	ticket, err := h.tickets.RequestTransition(c.Context(), service.TransitionRequest{
		TicketID:     c.Params("id"),
		TargetStatus: req.TargetStatus,
		ActorID:      staff.ID,
		ActorType:    domain.SubjectTypeStaff,
		ActorRole:    staff.Role,
		Comment:      req.Comment,
		Resolution:   req.Resolution,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// SelfAssign POST /staff/tickets/:id/assign/self.
func (h *StaffTicketsHandler) SelfAssign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.assignments.SelfAssignTicket(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Assign POST /staff/tickets/:id/assign.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StaffID == "" {
		return apperrors.NewValidationError("staff_id required", nil)
	}
	ticket, err := h.assignments.AssignTicketToStaff(c.Context(), staff, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AutoAssign POST /staff/tickets/:id/assign/auto.
func (h *StaffTicketsHandler) AutoAssign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	if _, _, err := h.tickets.GetTicketForStaff(c.Context(), staff, c.Params("id")); err != nil {
		return err
	}
	ticket, err := h.assignments.AutoAssignTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// UpdatePriority PATCH /staff/tickets/:id/priority.
func (h *StaffTicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	switch req.Priority {
	case domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh, domain.TicketPriorityUrgent:
	default:
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": req.Priority})
	}
	ticket, err := h.tickets.UpdatePriority(c.Context(), staff, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListHistory GET /staff/tickets/:id/history.
func (h *StaffTicketsHandler) ListHistory(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	entries, err := h.tickets.ListHistoryForStaff(c.Context(), staff, c.Params("id"), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

func staffPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	return principal.Staff, nil
}

func parseStaffTicketFilter(c *fiber.Ctx) service.TicketStaffFilter {
	filter := service.TicketStaffFilter{}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filter.CategoryID = &categoryID
	}
	if assignee := c.Query("assignee_staff_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if statuses := c.Query("status"); statuses != "" {
		for _, part := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, strings.TrimSpace(part))
		}
	}
	if priorities := c.Query("priority"); priorities != "" {
		for _, part := range strings.Split(priorities, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if createdFrom := parseTime(c.Query("created_from")); createdFrom != nil {
		filter.CreatedFrom = createdFrom
	}
	if createdTo := parseTime(c.Query("created_to")); createdTo != nil {
		filter.CreatedTo = createdTo
	}
	if updatedFrom := parseTime(c.Query("updated_from")); updatedFrom != nil {
		filter.UpdatedFrom = updatedFrom
	}
	if updatedTo := parseTime(c.Query("updated_to")); updatedTo != nil {
		filter.UpdatedTo = updatedTo
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
