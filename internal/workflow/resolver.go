package workflow

import (
	"strings"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// Transition is one edge reachable from a ticket's current status. To and
// From are status tokens; CanExecute reports whether the acting role is
// permitted on the edge. Non-executable transitions are still returned so
// callers can render disabled affordances.
type Transition struct {
	From       string
	To         string
	Label      string
	CanExecute bool
}

// Resolve computes, for a ticket in currentStatus and an actor holding
// role, every transition the graph permits out of that status. It is pure:
// no I/O, no mutation, safe to call speculatively.
func Resolve(graph domain.WorkflowGraph, currentStatus string, role domain.Role) []Transition {
	nodes := nodeIndex(graph)
	current := NormalizeKey(currentStatus)

	var out []Transition
	for _, edge := range graph.Edges {
		if isCreateEdge(edge) {
			continue
		}
		if !matchesStatus(nodes, edge.Source, current) {
			continue
		}
		out = append(out, Transition{
			From:       statusForRef(nodes, edge.Source),
			To:         statusForRef(nodes, edge.Target),
			Label:      edge.Label,
			CanExecute: roleAllowed(edge.Roles, role),
		})
	}
	return out
}

// AvailableStatuses is the executable-only view of Resolve: target status
// tokens the actor may move the ticket to.
func AvailableStatuses(graph domain.WorkflowGraph, currentStatus string, role domain.Role) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, tr := range Resolve(graph, currentStatus, role) {
		if !tr.CanExecute {
			continue
		}
		if _, dup := seen[tr.To]; dup {
			continue
		}
		seen[tr.To] = struct{}{}
		out = append(out, tr.To)
	}
	return out
}

// TargetMatch pairs a resolved transition with its underlying edge so the
// executor can apply the edge's conditions and actions.
type TargetMatch struct {
	Edge       domain.WorkflowEdge
	Transition Transition
}

// MatchTarget finds the edge leading from currentStatus to targetStatus.
// The boolean is false when no edge out of the current status reaches the
// target at all, regardless of role; permission is reported separately via
// the transition's CanExecute flag. Multiple edges may connect the same
// pair of statuses with different role gates; an edge permitting the actor
// wins over one that does not, so the result agrees with Resolve.
func MatchTarget(graph domain.WorkflowGraph, currentStatus, targetStatus string, role domain.Role) (TargetMatch, bool) {
	nodes := nodeIndex(graph)
	current := NormalizeKey(currentStatus)
	target := NormalizeKey(targetStatus)

	var fallback TargetMatch
	var found bool
	for _, edge := range graph.Edges {
		if isCreateEdge(edge) {
			continue
		}
		if !matchesStatus(nodes, edge.Source, current) {
			continue
		}
		to := statusForRef(nodes, edge.Target)
		if NormalizeKey(to) != target {
			continue
		}
		match := TargetMatch{
			Edge: edge,
			Transition: Transition{
				From:       statusForRef(nodes, edge.Source),
				To:         to,
				Label:      edge.Label,
				CanExecute: roleAllowed(edge.Roles, role),
			},
		}
		if match.Transition.CanExecute {
			return match, true
		}
		if !found {
			fallback = match
			found = true
		}
	}
	return fallback, found
}

// DeriveInitialStatus resolves the entry transition of a graph (the edge
// whose source is the synthetic "create" node or which is flagged as the
// create transition) to the status token a fresh ticket starts in. Returns
// fallback when nothing resolves.
func DeriveInitialStatus(graph domain.WorkflowGraph, fallback string) string {
	nodes := nodeIndex(graph)
	for _, edge := range graph.Edges {
		if !isCreateEdge(edge) {
			continue
		}
		if node, ok := nodes[edge.Target]; ok && node.Label != "" {
			return StatusToken(node.Label)
		}
		if edge.Target != "" {
			return strings.ToUpper(edge.Target)
		}
	}
	return fallback
}

func isCreateEdge(edge domain.WorkflowEdge) bool {
	return edge.IsCreateTransition || NormalizeKey(edge.Source) == domain.CreateSourceNode
}

// nodeIndex maps raw node ids to nodes.
func nodeIndex(graph domain.WorkflowGraph) map[string]domain.WorkflowNode {
	idx := make(map[string]domain.WorkflowNode, len(graph.Nodes))
	for _, node := range graph.Nodes {
		idx[node.ID] = node
	}
	return idx
}

// matchesStatus reports whether any alias (raw id or label) of the node the
// edge references equals the normalized current status. When the graph has
// no node for the reference, the reference itself is matched so dangling
// edges still resolve.
func matchesStatus(nodes map[string]domain.WorkflowNode, ref, current string) bool {
	if NormalizeKey(ref) == current {
		return true
	}
	node, ok := nodes[ref]
	return ok && NormalizeKey(node.Label) == current
}

// statusForRef derives the status token for a node reference, preferring an
// already-canonical underscored node id over the label.
func statusForRef(nodes map[string]domain.WorkflowNode, ref string) string {
	node, ok := nodes[ref]
	if !ok {
		return StatusToken(ref)
	}
	if isCanonicalID(node.ID) {
		return strings.ToUpper(node.ID)
	}
	if node.Label != "" {
		return StatusToken(node.Label)
	}
	return StatusToken(node.ID)
}

func roleAllowed(roles []domain.Role, role domain.Role) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}
