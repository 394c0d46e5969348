package models

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Admin represents a front-desk staff credential stored in the admins tab.
// The stored password is a bcrypt hash for rows created by the application,
// but hand-edited sheet rows may carry plaintext, so comparison supports both.
type Admin struct {
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
}

// CheckPassword verifies a login attempt against the stored credential.
// Values with a bcrypt prefix are compared as hashes, anything else in
// constant time as plaintext.
func (a *Admin) CheckPassword(password string) bool {
	if strings.HasPrefix(a.Password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) == 1
}
