package domain

import "time"

// Sector represents an organizational unit a case is filed against.
type Sector struct {
	ID        string
	Name      string
	Code      string
	Active    bool
	ChiefID   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
