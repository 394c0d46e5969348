package repository

import (
	"context"
	"errors"

	"parceldesk/internal/models"
)

// Sentinel errors returned by every backend so callers can map them to HTTP
// status codes without knowing which store is in use.
var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
)

// PackageRepository defines the interface for package data operations
type PackageRepository interface {
	Create(ctx context.Context, pkg *models.Package) (*models.Package, error)
	GetByID(ctx context.Context, id string) (*models.Package, error)
	List(ctx context.Context, filters PackageFilters) ([]*models.Package, error)
	Update(ctx context.Context, pkg *models.Package) (*models.Package, error)
	Delete(ctx context.Context, id string) error
}

// ResidentRepository defines the interface for chat-account bindings.
// Upsert is keyed by chat ID: binding an already-bound account moves it to
// the new household.
type ResidentRepository interface {
	Upsert(ctx context.Context, resident *models.Resident) (*models.Resident, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.Resident, error)
	ListByHousehold(ctx context.Context, householdID string) ([]*models.Resident, error)
	List(ctx context.Context) ([]*models.Resident, error)
	Delete(ctx context.Context, chatID int64) error
}

// AdminRepository defines the interface for staff credential lookups
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// PackageFilters represents filters for querying packages
type PackageFilters struct {
	HouseholdID string
	Status      *models.PackageStatus
	OverdueOnly bool
}
