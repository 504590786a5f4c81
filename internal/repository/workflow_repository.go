package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// WorkflowRepository reads workflow definitions. Definitions are authored
// by the external editor; this service never writes them, so only fetch
// operations are exposed. FindDefault returns (nil, nil) when no definition
// is marked default.
type WorkflowRepository interface {
	GetByID(ctx context.Context, id string) (*domain.WorkflowDefinition, error)
	FindDefault(ctx context.Context) (*domain.WorkflowDefinition, error)
	ListActive(ctx context.Context) ([]domain.WorkflowDefinition, error)
}

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository constructs the repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

const workflowColumns = `id, name, version, status, is_default, graph, created_at, updated_at`

func (r *workflowRepository) GetByID(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_definitions WHERE id=$1`, workflowColumns)
	return scanWorkflow(r.pool.QueryRow(ctx, query, id))
}

func (r *workflowRepository) FindDefault(ctx context.Context) (*domain.WorkflowDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_definitions WHERE is_default=TRUE AND status=$1 LIMIT 1`, workflowColumns)
	def, err := scanWorkflow(r.pool.QueryRow(ctx, query, domain.WorkflowStatusActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return def, nil
}

func (r *workflowRepository) ListActive(ctx context.Context) ([]domain.WorkflowDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_definitions WHERE status=$1 ORDER BY name ASC`, workflowColumns)
	rows, err := r.pool.Query(ctx, query, domain.WorkflowStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkflowDefinition
	for rows.Next() {
		def, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *def)
	}
	return result, rows.Err()
}

func scanWorkflow(row pgx.Row) (*domain.WorkflowDefinition, error) {
	var def domain.WorkflowDefinition
	var graph []byte
	if err := row.Scan(
		&def.ID,
		&def.Name,
		&def.Version,
		&def.Status,
		&def.IsDefault,
		&graph,
		&def.CreatedAt,
		&def.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(graph, &def.Graph); err != nil {
		return nil, fmt.Errorf("decode workflow graph for %s: %w", def.ID, err)
	}
	return &def, nil
}
