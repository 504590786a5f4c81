package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
)

type stubDefinitionSource struct {
	def *domain.WorkflowDefinition
	err error
}

func (s *stubDefinitionSource) GetByID(_ context.Context, id string) (*domain.WorkflowDefinition, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.def != nil && s.def.ID == id {
		return s.def, nil
	}
	return nil, errors.New("not found")
}

func (s *stubDefinitionSource) FindDefault(_ context.Context) (*domain.WorkflowDefinition, error) {
	return s.def, s.err
}

func (s *stubDefinitionSource) ListActive(_ context.Context) ([]domain.WorkflowDefinition, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.def == nil {
		return nil, nil
	}
	return []domain.WorkflowDefinition{*s.def}, nil
}

func defaultDefinition() *domain.WorkflowDefinition {
	return &domain.WorkflowDefinition{
		ID:        "wf-1",
		Name:      "Standard Support Flow",
		Version:   3,
		Status:    domain.WorkflowStatusActive,
		IsDefault: true,
		Graph:     supportGraph(),
	}
}

func TestCaptureDefault(t *testing.T) {
	source := &stubDefinitionSource{def: defaultDefinition()}
	capturer := NewCapturer(source, "NEW", zap.NewNop())

	capture := capturer.CaptureDefault(context.Background())

	require.NotNil(t, capture.WorkflowID)
	assert.Equal(t, "wf-1", *capture.WorkflowID)
	require.NotNil(t, capture.Version)
	assert.Equal(t, 3, *capture.Version)
	require.NotNil(t, capture.Snapshot)
	assert.Equal(t, "wf-1", capture.Snapshot.WorkflowID)
	assert.Equal(t, 3, capture.Snapshot.Version)
	assert.False(t, capture.Snapshot.CapturedAt.IsZero())
	assert.Equal(t, "NEW", capture.InitialStatus)
	assert.Empty(t, capture.Warnings)
}

func TestCaptureDefaultNoDefaultConfigured(t *testing.T) {
	capturer := NewCapturer(&stubDefinitionSource{}, "NEW", zap.NewNop())

	capture := capturer.CaptureDefault(context.Background())

	assert.Nil(t, capture.WorkflowID)
	assert.Nil(t, capture.Version)
	assert.Nil(t, capture.Snapshot)
	assert.Equal(t, "NEW", capture.InitialStatus)
	assert.NotEmpty(t, capture.Warnings)
}

func TestCaptureDefaultStoreErrorDegrades(t *testing.T) {
	source := &stubDefinitionSource{err: errors.New("connection refused")}
	capturer := NewCapturer(source, "NEW", zap.NewNop())

	capture := capturer.CaptureDefault(context.Background())

	assert.Nil(t, capture.WorkflowID)
	assert.Equal(t, "NEW", capture.InitialStatus)
	require.Len(t, capture.Warnings, 1)
	assert.Contains(t, capture.Warnings[0], "connection refused")
}

func TestCaptureSnapshotIsImmutable(t *testing.T) {
	def := defaultDefinition()
	source := &stubDefinitionSource{def: def}
	capturer := NewCapturer(source, "NEW", zap.NewNop())

	capture := capturer.CaptureDefault(context.Background())
	require.NotNil(t, capture.Snapshot)

	// Editing the live definition after capture must not leak into the
	// snapshot.
	def.Graph.Nodes[0].Label = "Renamed"
	def.Graph.Edges[1].Roles[0] = domain.RoleEndUser

	assert.Equal(t, "New", capture.Snapshot.Graph.Nodes[0].Label)
	assert.Equal(t, domain.RoleSupportStaff, capture.Snapshot.Graph.Edges[1].Roles[0])
}

func TestCaptureDefaultFallbackStatusDefault(t *testing.T) {
	capturer := NewCapturer(&stubDefinitionSource{}, "", zap.NewNop())
	capture := capturer.CaptureDefault(context.Background())
	assert.Equal(t, domain.StatusNew, capture.InitialStatus)
}
