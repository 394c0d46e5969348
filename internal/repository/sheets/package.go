package sheets

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

const packagesTab = "packages"

type packageRepository struct {
	c *Client
}

// NewPackageRepository creates a package repository backed by the packages tab
func NewPackageRepository(c *Client) repository.PackageRepository {
	return &packageRepository{c: c}
}

func (r *packageRepository) Create(ctx context.Context, pkg *models.Package) (*models.Package, error) {
	if err := r.c.Insert(ctx, packagesTab, packageRow(pkg)); err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}
	return pkg, nil
}

func (r *packageRepository) GetByID(ctx context.Context, id string) (*models.Package, error) {
	rows, err := r.c.Search(ctx, packagesTab, url.Values{"id": {id}})
	if err != nil {
		return nil, fmt.Errorf("failed to get package %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return scanPackage(rows[0]), nil
}

func (r *packageRepository) List(ctx context.Context, filters repository.PackageFilters) ([]*models.Package, error) {
	query := url.Values{}
	if filters.HouseholdID != "" {
		query.Set("household_id", filters.HouseholdID)
	}
	if filters.Status != nil {
		query.Set("status", string(*filters.Status))
	}

	var rows []row
	var err error
	if len(query) > 0 {
		rows, err = r.c.Search(ctx, packagesTab, query)
	} else {
		rows, err = r.c.Rows(ctx, packagesTab)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	out := make([]*models.Package, 0, len(rows))
	for _, rw := range rows {
		p := scanPackage(rw)
		if filters.OverdueOnly && !p.Overdue {
			continue
		}
		out = append(out, p)
	}

	// Newest first, the order the desk works in.
	sort.Slice(out, func(i, j int) bool {
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	return out, nil
}

func (r *packageRepository) Update(ctx context.Context, pkg *models.Package) (*models.Package, error) {
	updated, err := r.c.Update(ctx, packagesTab, "id", pkg.ID, packageRow(pkg))
	if err != nil {
		return nil, fmt.Errorf("failed to update package %s: %w", pkg.ID, err)
	}
	if updated == 0 {
		return nil, repository.ErrNotFound
	}
	return pkg, nil
}

func (r *packageRepository) Delete(ctx context.Context, id string) error {
	deleted, err := r.c.Delete(ctx, packagesTab, "id", id)
	if err != nil {
		return fmt.Errorf("failed to delete package %s: %w", id, err)
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func packageRow(p *models.Package) row {
	pickedUp := ""
	if p.PickedUpAt != nil {
		pickedUp = formatCellTime(*p.PickedUpAt)
	}
	return row{
		"id":           p.ID,
		"barcode":      p.Barcode,
		"household_id": p.HouseholdID,
		"recipient":    p.Recipient,
		"status":       string(p.Status),
		"received_at":  formatCellTime(p.ReceivedAt),
		"picked_up_at": pickedUp,
		"pickup_code":  p.PickupCode,
		"signature":    p.Signature,
		"overdue":      formatCellBool(p.Overdue),
	}
}

func scanPackage(r row) *models.Package {
	p := &models.Package{
		ID:          r["id"],
		Barcode:     r["barcode"],
		HouseholdID: r["household_id"],
		Recipient:   r["recipient"],
		Status:      models.PackageStatus(r["status"]),
		PickupCode:  r["pickup_code"],
		Signature:   r["signature"],
		Overdue:     parseCellBool(r["overdue"]),
	}
	if t, ok := parseCellTime(r["received_at"]); ok {
		p.ReceivedAt = t
	}
	if t, ok := parseCellTime(r["picked_up_at"]); ok {
		p.PickedUpAt = &t
	}
	return p
}
