package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

type packageRepository struct {
	db *sql.DB
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db *sql.DB) repository.PackageRepository {
	return &packageRepository{db: db}
}

func (r *packageRepository) Create(ctx context.Context, pkg *models.Package) (*models.Package, error) {
	query := `
		INSERT INTO packages (id, barcode, household_id, recipient, status, received_at, picked_up_at, pickup_code, signature, overdue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		pkg.ID,
		pkg.Barcode,
		pkg.HouseholdID,
		pkg.Recipient,
		pkg.Status,
		pkg.ReceivedAt,
		pkg.PickedUpAt,
		pkg.PickupCode,
		pkg.Signature,
		pkg.Overdue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}

	return pkg, nil
}

func (r *packageRepository) GetByID(ctx context.Context, id string) (*models.Package, error) {
	query := `
		SELECT id, barcode, household_id, recipient, status, received_at, picked_up_at, pickup_code, signature, overdue
		FROM packages
		WHERE id = $1`

	pkg := &models.Package{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&pkg.ID,
		&pkg.Barcode,
		&pkg.HouseholdID,
		&pkg.Recipient,
		&pkg.Status,
		&pkg.ReceivedAt,
		&pkg.PickedUpAt,
		&pkg.PickupCode,
		&pkg.Signature,
		&pkg.Overdue,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get package by ID: %w", err)
	}

	return pkg, nil
}

func (r *packageRepository) List(ctx context.Context, filters repository.PackageFilters) ([]*models.Package, error) {
	query := `
		SELECT id, barcode, household_id, recipient, status, received_at, picked_up_at, pickup_code, signature, overdue
		FROM packages`

	var conditions []string
	var args []any

	if filters.HouseholdID != "" {
		args = append(args, filters.HouseholdID)
		conditions = append(conditions, fmt.Sprintf("household_id = $%d", len(args)))
	}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.OverdueOnly {
		conditions = append(conditions, "overdue = TRUE")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY received_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []*models.Package
	for rows.Next() {
		pkg := &models.Package{}
		err := rows.Scan(
			&pkg.ID,
			&pkg.Barcode,
			&pkg.HouseholdID,
			&pkg.Recipient,
			&pkg.Status,
			&pkg.ReceivedAt,
			&pkg.PickedUpAt,
			&pkg.PickupCode,
			&pkg.Signature,
			&pkg.Overdue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, pkg)
	}

	return packages, rows.Err()
}

func (r *packageRepository) Update(ctx context.Context, pkg *models.Package) (*models.Package, error) {
	query := `
		UPDATE packages
		SET barcode = $2, household_id = $3, recipient = $4, status = $5, received_at = $6,
		    picked_up_at = $7, pickup_code = $8, signature = $9, overdue = $10
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		pkg.ID,
		pkg.Barcode,
		pkg.HouseholdID,
		pkg.Recipient,
		pkg.Status,
		pkg.ReceivedAt,
		pkg.PickedUpAt,
		pkg.PickupCode,
		pkg.Signature,
		pkg.Overdue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update package: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	return pkg, nil
}

func (r *packageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM packages WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
