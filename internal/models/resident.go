package models

import "time"

// Resident represents the binding between a chat account and a household.
// A chat account can be bound to at most one household at a time; rebinding
// moves it.
type Resident struct {
	ChatID      int64     `json:"chat_id" db:"chat_id"`
	HouseholdID string    `json:"household_id" db:"household_id"`
	Name        string    `json:"name" db:"name"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`
}

// DisplayName returns the resident's name, or the household ID when the
// resident never provided one.
func (r *Resident) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.HouseholdID
}
