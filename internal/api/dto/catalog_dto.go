package dto

import "time"

// SectorRequest payload.
type SectorRequest struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Code    string  `json:"code"`
	Active  *bool   `json:"active"`
	ChiefID *string `json:"chief_id"`
}

// SectorResponse describes a sector.
type SectorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	ChiefID   *string   `json:"chief_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StaffRequest payload.
type StaffRequest struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	SectorIDs []string `json:"sector_ids"`
	IsChief   bool     `json:"is_chief"`
	ChiefID   *string  `json:"chief_id"`
	Active    *bool    `json:"active"`
}

// StaffResponse describes a staff member.
type StaffResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	SectorIDs []string  `json:"sector_ids"`
	IsChief   bool      `json:"is_chief"`
	ChiefID   *string   `json:"chief_id"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HolidaysRequest replaces a curated list.
type HolidaysRequest struct {
	Days []string `json:"days"`
}

// HolidaysResponse lists the holidays of one key.
type HolidaysResponse struct {
	Key    string   `json:"key"`
	Days   []string `json:"days"`
	Source string   `json:"source,omitempty"`
}
