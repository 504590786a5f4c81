package domain

import "time"

// StaffMember models a support agent or administrator.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CategoryID   *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
