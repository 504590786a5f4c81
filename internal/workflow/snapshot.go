package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// DefinitionSource is the read-only boundary to workflow storage. The
// engine never writes definitions; the external editor owns them.
type DefinitionSource interface {
	GetByID(ctx context.Context, id string) (*domain.WorkflowDefinition, error)
	FindDefault(ctx context.Context) (*domain.WorkflowDefinition, error)
	ListActive(ctx context.Context) ([]domain.WorkflowDefinition, error)
}

// Capture is the result of binding a new ticket to the current default
// workflow. All workflow fields are nil when no definition was available;
// InitialStatus is always set. Warnings record best-effort degradations
// without failing the caller.
type Capture struct {
	WorkflowID    *string
	Version       *int
	Snapshot      *domain.WorkflowSnapshot
	InitialStatus string
	Warnings      []string
}

// Capturer snapshots the default workflow definition onto new tickets.
type Capturer struct {
	defs           DefinitionSource
	logger         *zap.Logger
	fallbackStatus string
	now            func() time.Time
}

// NewCapturer builds a Capturer. fallbackStatus is the entry status used
// when no default workflow exists (normally NEW).
func NewCapturer(defs DefinitionSource, fallbackStatus string, logger *zap.Logger) *Capturer {
	if fallbackStatus == "" {
		fallbackStatus = domain.StatusNew
	}
	return &Capturer{
		defs:           defs,
		logger:         logger,
		fallbackStatus: fallbackStatus,
		now:            time.Now,
	}
}

// CaptureDefault looks up the definition currently marked default and
// returns a structural copy plus the derived initial status. Ticket
// creation must not fail merely because no workflow exists, so a missing
// default (or an unreachable workflow store) degrades to the fallback
// status with a warning instead of an error.
func (c *Capturer) CaptureDefault(ctx context.Context) Capture {
	def, err := c.defs.FindDefault(ctx)
	if err != nil {
		c.logger.Warn("default workflow lookup failed; ticket will start without a workflow", zap.Error(err))
		return Capture{
			InitialStatus: c.fallbackStatus,
			Warnings:      []string{"workflow lookup failed: " + err.Error()},
		}
	}
	if def == nil {
		c.logger.Warn("no default workflow configured; ticket will start without a workflow")
		return Capture{
			InitialStatus: c.fallbackStatus,
			Warnings:      []string{"no default workflow configured"},
		}
	}

	snapshot := def.Snapshot(c.now())
	id := def.ID
	version := def.Version
	return Capture{
		WorkflowID:    &id,
		Version:       &version,
		Snapshot:      snapshot,
		InitialStatus: DeriveInitialStatus(def.Graph, c.fallbackStatus),
	}
}
