package domain

import "time"

// Staff models an employee who may be named in a complaint.
type Staff struct {
	ID        string
	Email     string
	Name      string
	Role      string
	SectorIDs []string
	IsChief   bool
	ChiefID   *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
