package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util"
)

// WorkflowsHandler exposes read-only workflow definition endpoints. The
// definitions themselves are authored in an external editor; this service
// only consumes them.
type WorkflowsHandler struct {
	workflows repository.WorkflowRepository
}

// NewWorkflowsHandler constructs handler.
func NewWorkflowsHandler(workflowRepo repository.WorkflowRepository) *WorkflowsHandler {
	return &WorkflowsHandler{workflows: workflowRepo}
}

// ListWorkflows GET /staff/workflows.
func (h *WorkflowsHandler) ListWorkflows(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	definitions, err := h.workflows.ListActive(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.WorkflowSummary, 0, len(definitions))
	for i := range definitions {
		items = append(items, workflowSummary(&definitions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetWorkflow GET /staff/workflows/:id.
func (h *WorkflowsHandler) GetWorkflow(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	definition, err := h.workflows.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("workflow", map[string]any{"workflow_id": c.Params("id")})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.WorkflowDetailResponse{
		WorkflowSummary: workflowSummary(definition),
		Graph:           definition.Graph,
	}})
}

func workflowSummary(definition *domain.WorkflowDefinition) dto.WorkflowSummary {
	return dto.WorkflowSummary{
		ID:        definition.ID,
		Name:      definition.Name,
		Version:   definition.Version,
		Status:    definition.Status,
		IsDefault: definition.IsDefault,
		CreatedAt: definition.CreatedAt,
		UpdatedAt: definition.UpdatedAt,
	}
}
