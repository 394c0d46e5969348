package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PackageStatus represents the lifecycle state of a logged parcel
type PackageStatus string

const (
	PackageStatusPending  PackageStatus = "pending"
	PackageStatusPickedUp PackageStatus = "picked_up"
	PackageStatusExpired  PackageStatus = "expired"
)

// Package represents a parcel logged at the front desk. PickupCode holds the
// outstanding one-time code and its expiry as a single delimited value
// ("<code>|<unix seconds>") so it fits in one spreadsheet cell; it is empty
// when no code is outstanding and is never exposed over the API.
type Package struct {
	ID          string        `json:"id" db:"id"`
	Barcode     string        `json:"barcode" db:"barcode"`
	HouseholdID string        `json:"household_id" db:"household_id"`
	Recipient   string        `json:"recipient" db:"recipient"`
	Status      PackageStatus `json:"status" db:"status"`
	ReceivedAt  time.Time     `json:"received_at" db:"received_at"`
	PickedUpAt  *time.Time    `json:"picked_up_at" db:"picked_up_at"`
	PickupCode  string        `json:"-" db:"pickup_code"`
	Signature   string        `json:"signature,omitempty" db:"signature"`
	Overdue     bool          `json:"overdue" db:"overdue"`
}

// IsPending returns true if the package is still waiting at the desk
func (p *Package) IsPending() bool {
	return p.Status == PackageStatusPending
}

// IsPickedUp returns true if the package has been handed over
func (p *Package) IsPickedUp() bool {
	return p.Status == PackageStatusPickedUp
}

// SetPickupCode stores a one-time code with its expiry in the delimited
// single-cell format, replacing any previous code.
func (p *Package) SetPickupCode(code string, expiresAt time.Time) {
	p.PickupCode = fmt.Sprintf("%s|%d", code, expiresAt.UTC().Unix())
}

// PickupCodeParts splits the stored cell back into code and expiry. ok is
// false when no code is outstanding or the cell does not parse; callers must
// treat that as "no code issued".
func (p *Package) PickupCodeParts() (code string, expiresAt time.Time, ok bool) {
	if p.PickupCode == "" {
		return "", time.Time{}, false
	}
	parts := strings.SplitN(p.PickupCode, "|", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", time.Time{}, false
	}
	secs, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return parts[0], time.Unix(secs, 0).UTC(), true
}

// ClearPickupCode removes the outstanding code
func (p *Package) ClearPickupCode() {
	p.PickupCode = ""
}
