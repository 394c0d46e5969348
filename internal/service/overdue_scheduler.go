package service

import (
	"context"
	"fmt"
	"time"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

// StartOverdueSweeper runs a background loop that re-checks pending packages
// on every tick. It blocks until the context is cancelled, so it should be
// launched in a separate goroutine.
func (s *Service) StartOverdueSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Overdue sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Overdue sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx, time.Now().UTC())
		}
	}
}

// Sweep flags pending packages older than the overdue window and expires
// those older than the retention window. Residents get one reminder when the
// flag flips and one notice when the package expires; failures are logged and
// the sweep moves on.
func (s *Service) Sweep(ctx context.Context, now time.Time) {
	pending := models.PackageStatusPending
	packages, err := s.Packages.List(ctx, repository.PackageFilters{Status: &pending})
	if err != nil {
		s.logger.Errorf("Sweep failed to list pending packages: %v", err)
		return
	}

	for _, pkg := range packages {
		age := now.Sub(pkg.ReceivedAt)

		switch {
		case age > s.expireAfter:
			pkg.Status = models.PackageStatusExpired
			pkg.ClearPickupCode()
			if _, err := s.Packages.Update(ctx, pkg); err != nil {
				s.logger.Errorf("Failed to expire package %s: %v", pkg.ID, err)
				continue
			}
			s.logger.Infof("Expired package %s (received %s)", pkg.ID, pkg.ReceivedAt.Format("2006-01-02"))
			s.notifyHousehold(ctx, pkg.HouseholdID, expiredMessage(pkg))
			s.broadcast(EventPackageExpired, pkg)

		case age > s.overdueAfter && !pkg.Overdue:
			pkg.Overdue = true
			if _, err := s.Packages.Update(ctx, pkg); err != nil {
				s.logger.Errorf("Failed to flag package %s overdue: %v", pkg.ID, err)
				continue
			}
			s.logger.Infof("Package %s is overdue (received %s)", pkg.ID, pkg.ReceivedAt.Format(time.RFC3339))
			s.notifyHousehold(ctx, pkg.HouseholdID, overdueMessage(pkg))
			s.broadcast(EventPackageOverdue, pkg)
		}
	}
}

func overdueMessage(pkg *models.Package) string {
	return fmt.Sprintf("⏰ *Reminder*\n\nParcel `%s` has been waiting at the front desk since %s. Please collect it soon.",
		pkg.Barcode, pkg.ReceivedAt.Format("2006-01-02"))
}

func expiredMessage(pkg *models.Package) string {
	return fmt.Sprintf("🗄 *Parcel expired*\n\nParcel `%s` was never collected and has been moved to storage. Ask at the front desk about retrieving it.",
		pkg.Barcode)
}
