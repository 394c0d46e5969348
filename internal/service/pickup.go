package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"parceldesk/internal/metrics"
	"parceldesk/internal/models"
)

// maxSignatureBytes caps the pickup signature payload (base64 PNG data URL).
const maxSignatureBytes = 256 << 10

// IssuePickupCode generates a one-time pickup code for a pending package and
// sends it to every resident of the household. The code is never returned to
// the caller; only its expiry is. Reissuing replaces any outstanding code.
func (s *Service) IssuePickupCode(ctx context.Context, id string) (time.Time, error) {
	pkg, err := s.Packages.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	if !pkg.IsPending() {
		return time.Time{}, ErrNotPending
	}

	residents, err := s.Residents.ListByHousehold(ctx, pkg.HouseholdID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to list residents for household %s: %w", pkg.HouseholdID, err)
	}
	if len(residents) == 0 {
		return time.Time{}, ErrNoLinkedResident
	}

	code, err := generatePickupCode()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to generate pickup code: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.codeTTL).Truncate(time.Second)
	pkg.SetPickupCode(code, expiresAt)
	if _, err := s.Packages.Update(ctx, pkg); err != nil {
		return time.Time{}, fmt.Errorf("failed to store pickup code for package %s: %w", id, err)
	}

	// The desk must know when nobody received the code, so zero deliveries
	// fails the operation even though individual failures are only logged.
	if s.notifyHousehold(ctx, pkg.HouseholdID, codeMessage(pkg, code, expiresAt)) == 0 {
		return time.Time{}, ErrCodeUndelivered
	}

	metrics.PickupCodesIssued.Inc()
	s.logger.Infof("Issued pickup code for package %s (expires %s)", pkg.ID, expiresAt.Format(time.RFC3339))
	return expiresAt, nil
}

// ConfirmPickup verifies the code the collector read back and, with a valid
// signature, hands the package over.
func (s *Service) ConfirmPickup(ctx context.Context, id, code, signature string) (*models.Package, error) {
	pkg, err := s.Packages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pkg.IsPending() {
		return nil, ErrNotPending
	}

	stored, expiresAt, ok := pkg.PickupCodeParts()
	if !ok {
		return nil, ErrNoCodeIssued
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		metrics.PickupVerifications.WithLabelValues("mismatch").Inc()
		return nil, ErrCodeMismatch
	}
	if time.Now().After(expiresAt) {
		metrics.PickupVerifications.WithLabelValues("expired").Inc()
		return nil, ErrCodeExpired
	}

	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, ErrSignatureRequired
	}
	if len(signature) > maxSignatureBytes {
		return nil, ErrSignatureTooLarge
	}

	now := time.Now().UTC()
	pkg.Status = models.PackageStatusPickedUp
	pkg.PickedUpAt = &now
	pkg.Signature = signature
	pkg.Overdue = false
	pkg.ClearPickupCode()

	pkg, err = s.Packages.Update(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to record pickup for package %s: %w", id, err)
	}

	metrics.PickupVerifications.WithLabelValues("ok").Inc()
	metrics.PickupsCompleted.Inc()
	s.logger.Infof("Package %s picked up (barcode %s)", pkg.ID, pkg.Barcode)

	s.notifyHousehold(ctx, pkg.HouseholdID, receiptMessage(pkg, now))
	s.broadcast(EventPackagePickedUp, pkg)
	return pkg, nil
}

// generatePickupCode returns a 6-digit numeric one-time code.
func generatePickupCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func codeMessage(pkg *models.Package, code string, expiresAt time.Time) string {
	return fmt.Sprintf("🔑 *Pickup code*\n\nCode for parcel `%s`: *%s*\nShow it at the front desk before %s.",
		pkg.Barcode, code, expiresAt.Format("15:04 MST"))
}

func receiptMessage(pkg *models.Package, at time.Time) string {
	return fmt.Sprintf("✅ *Parcel collected*\n\nParcel `%s` was picked up at %s.",
		pkg.Barcode, at.Format("2006-01-02 15:04 MST"))
}
