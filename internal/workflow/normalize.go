package workflow

import (
	"strings"
	"unicode"
)

// NormalizeKey converts a node id, label or status into the canonical
// comparable form: lower-case with runs of whitespace, hyphens and
// underscores collapsed to a single underscore. The same logical state may
// be referenced by differing ids, labels and casings across a user-edited
// graph, so all matching goes through this.
func NormalizeKey(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || r == '-' || r == '_' {
			if b.Len() > 0 {
				pendingSep = true
			}
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StatusToken converts a label or id into the external status form used on
// tickets: upper-case, underscore-separated (e.g. "In Progress" ->
// "IN_PROGRESS"). Consumers deriving a status from a workflow label must
// apply this same normalization to stay interoperable.
func StatusToken(s string) string {
	return strings.ToUpper(NormalizeKey(s))
}

// isCanonicalID reports whether a raw node id is already in underscored
// form, in which case it is preferred over the node label when deriving the
// status token.
func isCanonicalID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
