package domain

import "time"

// Category classifies tickets for routing and reporting.
type Category struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
