package domain

import "time"

// WorkflowStatus tracks the editorial lifecycle of a definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "DRAFT"
	WorkflowStatusActive   WorkflowStatus = "ACTIVE"
	WorkflowStatusInactive WorkflowStatus = "INACTIVE"
)

// CreateSourceNode is the synthetic node id marking the entry edge of a
// workflow graph.
const CreateSourceNode = "create"

// WorkflowNode is a lifecycle state in the graph.
type WorkflowNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// TransitionCondition is an optional precondition attached to an edge.
// Types the executor understands: "require_resolution", "require_comment".
// Unknown types are ignored so the external editor can define richer ones.
type TransitionCondition struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// TransitionAction is a side effect applied when an edge is taken, e.g.
// {Type: "set_field", Field: "resolution", Value: "..."}.
type TransitionAction struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// WorkflowEdge is a permitted transition between two nodes.
type WorkflowEdge struct {
	ID                 string                `json:"id"`
	Source             string                `json:"source"`
	Target             string                `json:"target"`
	Label              string                `json:"label"`
	Roles              []Role                `json:"roles"`
	Conditions         []TransitionCondition `json:"conditions,omitempty"`
	Actions            []TransitionAction    `json:"actions,omitempty"`
	IsCreateTransition bool                  `json:"is_create_transition,omitempty"`
}

// WorkflowGraph is the shared node/edge payload of definitions and snapshots.
type WorkflowGraph struct {
	Nodes []WorkflowNode `json:"nodes"`
	Edges []WorkflowEdge `json:"edges"`
}

// WorkflowDefinition is the externally authored lifecycle graph. It is
// owned and mutated only by the external editor; this service reads it.
type WorkflowDefinition struct {
	ID        string
	Name      string
	Version   int
	Status    WorkflowStatus
	IsDefault bool
	Graph     WorkflowGraph
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkflowSnapshot is the immutable copy of a definition embedded in a
// ticket at creation time.
type WorkflowSnapshot struct {
	WorkflowID string        `json:"workflow_id"`
	Name       string        `json:"name"`
	Version    int           `json:"version"`
	Graph      WorkflowGraph `json:"graph"`
	CapturedAt time.Time     `json:"captured_at"`
}

// Snapshot produces a structural copy of the definition, never sharing
// slice storage with the live graph.
func (d *WorkflowDefinition) Snapshot(now time.Time) *WorkflowSnapshot {
	return &WorkflowSnapshot{
		WorkflowID: d.ID,
		Name:       d.Name,
		Version:    d.Version,
		Graph:      d.Graph.Copy(),
		CapturedAt: now,
	}
}

// Copy deep-copies the graph.
func (g WorkflowGraph) Copy() WorkflowGraph {
	out := WorkflowGraph{
		Nodes: make([]WorkflowNode, len(g.Nodes)),
		Edges: make([]WorkflowEdge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	for i, edge := range g.Edges {
		dup := edge
		dup.Roles = append([]Role(nil), edge.Roles...)
		dup.Conditions = append([]TransitionCondition(nil), edge.Conditions...)
		dup.Actions = append([]TransitionAction(nil), edge.Actions...)
		out.Edges[i] = dup
	}
	return out
}
