package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"In Progress", "in_progress"},
		{"in-progress", "in_progress"},
		{"IN_PROGRESS", "in_progress"},
		{"  Pending   Customer ", "pending_customer"},
		{"closed", "closed"},
		{"Waiting--On_User", "waiting_on_user"},
		{"", ""},
		{"   ", ""},
		{"-leading", "leading"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeKey(tc.in), "input %q", tc.in)
	}
}

func TestStatusToken(t *testing.T) {
	assert.Equal(t, "IN_PROGRESS", StatusToken("In Progress"))
	assert.Equal(t, "IN_PROGRESS", StatusToken("in-progress"))
	assert.Equal(t, "PENDING_CUSTOMER", StatusToken("  pending customer "))
	assert.Equal(t, "CLOSED", StatusToken("Closed"))
}

func TestIsCanonicalID(t *testing.T) {
	assert.True(t, isCanonicalID("in_progress"))
	assert.True(t, isCanonicalID("node2"))
	assert.False(t, isCanonicalID("In Progress"))
	assert.False(t, isCanonicalID("node-1"))
	assert.False(t, isCanonicalID(""))
}
