package dto

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// WorkflowSummary lists a workflow definition without its graph.
type WorkflowSummary struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Version   int                   `json:"version"`
	Status    domain.WorkflowStatus `json:"status"`
	IsDefault bool                  `json:"is_default"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// WorkflowDetailResponse includes the full graph.
type WorkflowDetailResponse struct {
	WorkflowSummary
	Graph domain.WorkflowGraph `json:"graph"`
}
