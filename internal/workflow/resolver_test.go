package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
)

func supportGraph() domain.WorkflowGraph {
	return domain.WorkflowGraph{
		Nodes: []domain.WorkflowNode{
			{ID: "new", Label: "New"},
			{ID: "in_progress", Label: "In Progress"},
			{ID: "resolved", Label: "Resolved"},
			{ID: "closed", Label: "Closed"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e-create", Source: "create", Target: "new", Label: "Create", IsCreateTransition: true},
			{ID: "e1", Source: "new", Target: "in_progress", Label: "Start Work",
				Roles: []domain.Role{domain.RoleSupportStaff, domain.RoleTeamLead, domain.RoleAdmin}},
			{ID: "e2", Source: "in_progress", Target: "resolved", Label: "Resolve",
				Roles:      []domain.Role{domain.RoleSupportStaff, domain.RoleAdmin},
				Conditions: []domain.TransitionCondition{{Type: "require_resolution"}}},
			{ID: "e3", Source: "resolved", Target: "closed", Label: "Close",
				Roles: []domain.Role{domain.RoleEndUser, domain.RoleSupportStaff, domain.RoleAdmin}},
			{ID: "e4", Source: "resolved", Target: "in_progress", Label: "Reopen",
				Roles:   []domain.Role{domain.RoleTeamLead, domain.RoleAdmin},
				Actions: []domain.TransitionAction{{Type: "clear_resolution"}}},
		},
	}
}

func TestResolveReturnsOutgoingEdges(t *testing.T) {
	graph := supportGraph()

	transitions := Resolve(graph, "RESOLVED", domain.RoleSupportStaff)
	require.Len(t, transitions, 2)

	assert.Equal(t, "CLOSED", transitions[0].To)
	assert.True(t, transitions[0].CanExecute)

	// Reopen is listed but not executable for support staff.
	assert.Equal(t, "IN_PROGRESS", transitions[1].To)
	assert.False(t, transitions[1].CanExecute)
}

func TestResolveNormalizesCurrentStatus(t *testing.T) {
	graph := supportGraph()

	for _, status := range []string{"in_progress", "IN_PROGRESS", "In Progress", "in-progress"} {
		transitions := Resolve(graph, status, domain.RoleAdmin)
		require.Len(t, transitions, 1, "status %q", status)
		assert.Equal(t, "RESOLVED", transitions[0].To)
	}
}

func TestResolveSkipsCreateEdges(t *testing.T) {
	graph := supportGraph()
	transitions := Resolve(graph, "create", domain.RoleAdmin)
	assert.Empty(t, transitions)
}

func TestResolveUnknownStatus(t *testing.T) {
	graph := supportGraph()
	assert.Empty(t, Resolve(graph, "ARCHIVED", domain.RoleAdmin))
}

func TestResolveMatchesDanglingEdgeRefs(t *testing.T) {
	// Edge referencing a node id that the node list does not contain still
	// resolves via the reference itself.
	graph := domain.WorkflowGraph{
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "limbo", Target: "done", Label: "Finish", Roles: []domain.Role{domain.RoleAdmin}},
		},
	}
	transitions := Resolve(graph, "LIMBO", domain.RoleAdmin)
	require.Len(t, transitions, 1)
	assert.Equal(t, "DONE", transitions[0].To)
}

func TestAvailableStatuses(t *testing.T) {
	graph := supportGraph()

	statuses := AvailableStatuses(graph, "RESOLVED", domain.RoleEndUser)
	assert.Equal(t, []string{"CLOSED"}, statuses)

	statuses = AvailableStatuses(graph, "RESOLVED", domain.RoleAdmin)
	assert.Equal(t, []string{"CLOSED", "IN_PROGRESS"}, statuses)
}

func TestMatchTarget(t *testing.T) {
	graph := supportGraph()

	match, found := MatchTarget(graph, "IN_PROGRESS", "RESOLVED", domain.RoleSupportStaff)
	require.True(t, found)
	assert.True(t, match.Transition.CanExecute)
	assert.Equal(t, "e2", match.Edge.ID)
	require.Len(t, match.Edge.Conditions, 1)
	assert.Equal(t, "require_resolution", match.Edge.Conditions[0].Type)
}

func TestMatchTargetRoleDenied(t *testing.T) {
	graph := supportGraph()

	// The edge exists but the end-user role is not on it; found must still be
	// true so the caller can distinguish permission from reachability.
	match, found := MatchTarget(graph, "RESOLVED", "IN_PROGRESS", domain.RoleEndUser)
	require.True(t, found)
	assert.False(t, match.Transition.CanExecute)
}

func TestMatchTargetPrefersEdgePermittingRole(t *testing.T) {
	// Two edges connect resolved to closed, gated on different roles. The
	// edge permitting the actor must win regardless of declaration order, so
	// a target reported executable by Resolve is also executable here.
	graph := domain.WorkflowGraph{
		Nodes: []domain.WorkflowNode{
			{ID: "resolved", Label: "Resolved"},
			{ID: "closed", Label: "Closed"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "close-staff", Source: "resolved", Target: "closed", Label: "Close",
				Roles:      []domain.Role{domain.RoleSupportStaff},
				Conditions: []domain.TransitionCondition{{Type: "require_comment"}}},
			{ID: "close-user", Source: "resolved", Target: "closed", Label: "Confirm Close",
				Roles: []domain.Role{domain.RoleEndUser}},
		},
	}

	assert.Equal(t, []string{"CLOSED"}, AvailableStatuses(graph, "RESOLVED", domain.RoleEndUser))

	match, found := MatchTarget(graph, "RESOLVED", "CLOSED", domain.RoleEndUser)
	require.True(t, found)
	assert.True(t, match.Transition.CanExecute)
	assert.Equal(t, "close-user", match.Edge.ID)
	assert.Empty(t, match.Edge.Conditions)

	// The staff actor gets the staff edge together with its conditions.
	match, found = MatchTarget(graph, "RESOLVED", "CLOSED", domain.RoleSupportStaff)
	require.True(t, found)
	assert.True(t, match.Transition.CanExecute)
	assert.Equal(t, "close-staff", match.Edge.ID)

	// A role on neither edge still sees the target as reachable.
	match, found = MatchTarget(graph, "RESOLVED", "CLOSED", domain.RoleTeamLead)
	require.True(t, found)
	assert.False(t, match.Transition.CanExecute)
}

func TestMatchTargetUnreachable(t *testing.T) {
	graph := supportGraph()

	_, found := MatchTarget(graph, "NEW", "CLOSED", domain.RoleAdmin)
	assert.False(t, found)
}

func TestMatchTargetNormalizesTarget(t *testing.T) {
	graph := supportGraph()

	match, found := MatchTarget(graph, "New", "in progress", domain.RoleAdmin)
	require.True(t, found)
	assert.Equal(t, "IN_PROGRESS", match.Transition.To)
}

func TestDeriveInitialStatus(t *testing.T) {
	graph := supportGraph()
	assert.Equal(t, "NEW", DeriveInitialStatus(graph, "FALLBACK"))
}

func TestDeriveInitialStatusFromLabel(t *testing.T) {
	graph := domain.WorkflowGraph{
		Nodes: []domain.WorkflowNode{{ID: "n1", Label: "Open Ticket"}},
		Edges: []domain.WorkflowEdge{{Source: "create", Target: "n1", Label: "Create"}},
	}
	assert.Equal(t, "OPEN_TICKET", DeriveInitialStatus(graph, "NEW"))
}

func TestDeriveInitialStatusFallback(t *testing.T) {
	graph := domain.WorkflowGraph{
		Nodes: []domain.WorkflowNode{{ID: "a", Label: "A"}},
		Edges: []domain.WorkflowEdge{{Source: "a", Target: "a", Label: "Loop"}},
	}
	assert.Equal(t, "NEW", DeriveInitialStatus(graph, "NEW"))
}

func TestGraphCopyIsDeep(t *testing.T) {
	graph := supportGraph()
	dup := graph.Copy()

	dup.Nodes[0].Label = "Mutated"
	dup.Edges[1].Roles[0] = domain.RoleEndUser
	dup.Edges[2].Conditions[0].Type = "mutated"

	assert.Equal(t, "New", graph.Nodes[0].Label)
	assert.Equal(t, domain.RoleSupportStaff, graph.Edges[1].Roles[0])
	assert.Equal(t, "require_resolution", graph.Edges[2].Conditions[0].Type)
}
