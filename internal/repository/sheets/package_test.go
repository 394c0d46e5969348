package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

func TestPackageRepositoryRoundTrip(t *testing.T) {
	c, _ := newTestClient(t, "")
	repo := NewPackageRepository(c)
	ctx := context.Background()

	received := time.Date(2025, 5, 20, 9, 15, 0, 0, time.UTC)
	pkg := &models.Package{
		ID:          "pkg-1",
		Barcode:     "1Z999AA10123456784",
		HouseholdID: "12-B-3",
		Recipient:   "A. Nguyen",
		Status:      models.PackageStatusPending,
		ReceivedAt:  received,
	}
	pkg.SetPickupCode("483920", received.Add(10*time.Minute))

	_, err := repo.Create(ctx, pkg)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, pkg.Barcode, got.Barcode)
	assert.Equal(t, pkg.HouseholdID, got.HouseholdID)
	assert.Equal(t, pkg.Recipient, got.Recipient)
	assert.Equal(t, models.PackageStatusPending, got.Status)
	assert.True(t, got.ReceivedAt.Equal(received))
	assert.Nil(t, got.PickedUpAt)
	assert.False(t, got.Overdue)

	code, expires, ok := got.PickupCodeParts()
	require.True(t, ok, "pickup code should survive the sheet round trip")
	assert.Equal(t, "483920", code)
	assert.True(t, expires.Equal(received.Add(10*time.Minute)))

	pickedUp := received.Add(2 * time.Hour)
	got.Status = models.PackageStatusPickedUp
	got.PickedUpAt = &pickedUp
	got.Signature = "data:image/png;base64,iVBORw0KGgo="
	got.ClearPickupCode()

	_, err = repo.Update(ctx, got)
	require.NoError(t, err)

	final, err := repo.GetByID(ctx, "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, models.PackageStatusPickedUp, final.Status)
	require.NotNil(t, final.PickedUpAt)
	assert.True(t, final.PickedUpAt.Equal(pickedUp))
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", final.Signature)
	_, _, ok = final.PickupCodeParts()
	assert.False(t, ok)

	require.NoError(t, repo.Delete(ctx, "pkg-1"))
	_, err = repo.GetByID(ctx, "pkg-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPackageRepositoryMissingRows(t *testing.T) {
	c, _ := newTestClient(t, "")
	repo := NewPackageRepository(c)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Update(ctx, &models.Package{ID: "nope", Status: models.PackageStatusExpired})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "nope"), repository.ErrNotFound)
}

func TestPackageRepositoryListFilters(t *testing.T) {
	c, _ := newTestClient(t, "")
	repo := NewPackageRepository(c)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	seed := []*models.Package{
		{ID: "a", Barcode: "b-a", HouseholdID: "12-B-3", Status: models.PackageStatusPending, ReceivedAt: base},
		{ID: "b", Barcode: "b-b", HouseholdID: "12-B-3", Status: models.PackageStatusPickedUp, ReceivedAt: base.Add(time.Hour)},
		{ID: "c", Barcode: "b-c", HouseholdID: "3-A-7", Status: models.PackageStatusPending, ReceivedAt: base.Add(2 * time.Hour), Overdue: true},
	}
	for _, p := range seed {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, repository.PackageFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	byHousehold, err := repo.List(ctx, repository.PackageFilters{HouseholdID: "12-B-3"})
	require.NoError(t, err)
	assert.Len(t, byHousehold, 2)

	pending := models.PackageStatusPending
	byStatus, err := repo.List(ctx, repository.PackageFilters{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	overdue, err := repo.List(ctx, repository.PackageFilters{OverdueOnly: true})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "c", overdue[0].ID)

	none, err := repo.List(ctx, repository.PackageFilters{HouseholdID: "24-F-12"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
