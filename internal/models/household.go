package models

import "regexp"

// householdIDRegex matches the floor-wing-door unit scheme used by the
// community: floors 1-24, wings A-F, doors 1-12 (e.g. "12-B-3").
var householdIDRegex = regexp.MustCompile(`^([1-9]|1[0-9]|2[0-4])-[A-F]-([1-9]|1[0-2])$`)

// ValidHouseholdID reports whether s is a well-formed household identifier.
// Both the desk API and the chat bot validate through this single check.
func ValidHouseholdID(s string) bool {
	return householdIDRegex.MatchString(s)
}
