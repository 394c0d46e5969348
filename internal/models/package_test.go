package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPickupCodeRoundTrip(t *testing.T) {
	p := &Package{}

	_, _, ok := p.PickupCodeParts()
	assert.False(t, ok, "empty cell should report no code")

	expires := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	p.SetPickupCode("483920", expires)
	assert.Equal(t, "483920|1748781000", p.PickupCode)

	code, got, ok := p.PickupCodeParts()
	assert.True(t, ok)
	assert.Equal(t, "483920", code)
	assert.True(t, got.Equal(expires))

	p.ClearPickupCode()
	_, _, ok = p.PickupCodeParts()
	assert.False(t, ok)
}

func TestPickupCodeMalformedCells(t *testing.T) {
	cells := []string{
		"483920",          // no delimiter
		"|1748781000",     // missing code
		"483920|",         // missing expiry
		"483920|notanint", // junk expiry
	}
	for _, cell := range cells {
		p := &Package{PickupCode: cell}
		_, _, ok := p.PickupCodeParts()
		assert.False(t, ok, "cell %q should not parse", cell)
	}
}

func TestSetPickupCodeReplacesPrevious(t *testing.T) {
	p := &Package{}
	p.SetPickupCode("111111", time.Now().Add(time.Minute))
	first := p.PickupCode
	p.SetPickupCode("222222", time.Now().Add(10*time.Minute))
	assert.NotEqual(t, first, p.PickupCode)

	code, _, ok := p.PickupCodeParts()
	assert.True(t, ok)
	assert.Equal(t, "222222", code)
}

func TestPackageStatusHelpers(t *testing.T) {
	p := &Package{Status: PackageStatusPending}
	assert.True(t, p.IsPending())
	assert.False(t, p.IsPickedUp())

	p.Status = PackageStatusPickedUp
	assert.False(t, p.IsPending())
	assert.True(t, p.IsPickedUp())

	p.Status = PackageStatusExpired
	assert.False(t, p.IsPending())
	assert.False(t, p.IsPickedUp())
}

func TestValidHouseholdID(t *testing.T) {
	valid := []string{"1-A-1", "12-B-3", "24-F-12", "9-C-10"}
	for _, id := range valid {
		assert.True(t, ValidHouseholdID(id), "expected %q to be valid", id)
	}

	invalid := []string{
		"",
		"0-A-1",     // floor starts at 1
		"25-A-1",    // floor above 24
		"12-G-3",    // wing out of range
		"12-b-3",    // lowercase wing
		"12-B-0",    // door starts at 1
		"12-B-13",   // door above 12
		"12-B",      // missing door
		"12-B-3-4",  // extra segment
		" 12-B-3",   // stray whitespace
		"12B3",      // no separators
		"112-B-3",   // floor too long
		"apartment", // free text
	}
	for _, id := range invalid {
		assert.False(t, ValidHouseholdID(id), "expected %q to be invalid", id)
	}
}

func TestAdminCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("OpenSesame1!"), bcrypt.MinCost)
	require.NoError(t, err)

	hashed := &Admin{Username: "frontdesk", Password: string(hash)}
	assert.True(t, hashed.CheckPassword("OpenSesame1!"))
	assert.False(t, hashed.CheckPassword("wrong"))

	plain := &Admin{Username: "legacy", Password: "letmein"}
	assert.True(t, plain.CheckPassword("letmein"))
	assert.False(t, plain.CheckPassword("letmeout"))
	assert.False(t, plain.CheckPassword(""))
}
