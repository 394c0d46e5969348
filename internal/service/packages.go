package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"parceldesk/internal/metrics"
	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

// LogPackage records a parcel handed in at the front desk and notifies the
// household's residents that it is waiting.
func (s *Service) LogPackage(ctx context.Context, barcode, householdID, recipient string) (*models.Package, error) {
	barcode = strings.TrimSpace(barcode)
	householdID = strings.TrimSpace(householdID)
	recipient = strings.TrimSpace(recipient)

	if !models.ValidHouseholdID(householdID) {
		return nil, ErrInvalidHousehold
	}
	if barcode == "" {
		return nil, ErrBarcodeRequired
	}

	// A barcode may repeat across history, but never among packages still
	// waiting at the desk.
	pending := models.PackageStatusPending
	waiting, err := s.Packages.List(ctx, repository.PackageFilters{Status: &pending})
	if err != nil {
		return nil, fmt.Errorf("failed to check pending packages: %w", err)
	}
	for _, p := range waiting {
		if p.Barcode == barcode {
			return nil, ErrDuplicateBarcode
		}
	}

	pkg := &models.Package{
		ID:          uuid.NewString(),
		Barcode:     barcode,
		HouseholdID: householdID,
		Recipient:   recipient,
		Status:      models.PackageStatusPending,
		ReceivedAt:  time.Now().UTC(),
	}
	pkg, err = s.Packages.Create(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}

	metrics.PackagesReceived.Inc()
	s.logger.Infof("Logged package %s for household %s", pkg.Barcode, pkg.HouseholdID)

	s.notifyHousehold(ctx, pkg.HouseholdID, arrivalMessage(pkg))
	s.broadcast(EventPackageLogged, pkg)
	return pkg, nil
}

// ListPackages returns packages matching the filters, newest first.
func (s *Service) ListPackages(ctx context.Context, filters repository.PackageFilters) ([]*models.Package, error) {
	return s.Packages.List(ctx, filters)
}

// GetPackage returns a single package by ID.
func (s *Service) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	return s.Packages.GetByID(ctx, id)
}

// DeletePackage removes a mislogged entry. Picked-up rows are the pickup
// record and stay.
func (s *Service) DeletePackage(ctx context.Context, id string) error {
	pkg, err := s.Packages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !pkg.IsPending() {
		return ErrNotDeletable
	}

	if err := s.Packages.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete package %s: %w", id, err)
	}

	s.logger.Infof("Deleted package %s (barcode %s)", pkg.ID, pkg.Barcode)
	s.broadcast(EventPackageDeleted, map[string]string{"id": pkg.ID})
	return nil
}

func arrivalMessage(pkg *models.Package) string {
	text := fmt.Sprintf("📦 *Parcel at the front desk*\n\nBarcode `%s` arrived for household *%s*", pkg.Barcode, pkg.HouseholdID)
	if pkg.Recipient != "" {
		text += fmt.Sprintf(" (for %s)", pkg.Recipient)
	}
	text += ".\nDrop by the desk to collect it."
	return text
}
