package domain

import "time"

// SubjectType differentiates user vs staff tokens.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeStaff SubjectType = "STAFF"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}
