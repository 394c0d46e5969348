package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

type residentRepository struct {
	db *sql.DB
}

// NewResidentRepository creates a new resident repository
func NewResidentRepository(db *sql.DB) repository.ResidentRepository {
	return &residentRepository{db: db}
}

func (r *residentRepository) Upsert(ctx context.Context, resident *models.Resident) (*models.Resident, error) {
	query := `
		INSERT INTO residents (chat_id, household_id, name, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE
		SET household_id = EXCLUDED.household_id, name = EXCLUDED.name`

	_, err := r.db.ExecContext(ctx, query,
		resident.ChatID,
		resident.HouseholdID,
		resident.Name,
		resident.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert resident: %w", err)
	}

	return resident, nil
}

func (r *residentRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Resident, error) {
	query := `
		SELECT chat_id, household_id, name, joined_at
		FROM residents
		WHERE chat_id = $1`

	resident := &models.Resident{}
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(
		&resident.ChatID,
		&resident.HouseholdID,
		&resident.Name,
		&resident.JoinedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resident by chat ID: %w", err)
	}

	return resident, nil
}

func (r *residentRepository) ListByHousehold(ctx context.Context, householdID string) ([]*models.Resident, error) {
	query := `
		SELECT chat_id, household_id, name, joined_at
		FROM residents
		WHERE household_id = $1
		ORDER BY joined_at`

	return r.queryResidents(ctx, query, householdID)
}

func (r *residentRepository) List(ctx context.Context) ([]*models.Resident, error) {
	query := `
		SELECT chat_id, household_id, name, joined_at
		FROM residents
		ORDER BY joined_at`

	return r.queryResidents(ctx, query)
}

func (r *residentRepository) Delete(ctx context.Context, chatID int64) error {
	query := `DELETE FROM residents WHERE chat_id = $1`

	result, err := r.db.ExecContext(ctx, query, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete resident: %w", err)
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

func (r *residentRepository) queryResidents(ctx context.Context, query string, args ...any) ([]*models.Resident, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	defer rows.Close()

	var residents []*models.Resident
	for rows.Next() {
		resident := &models.Resident{}
		err := rows.Scan(
			&resident.ChatID,
			&resident.HouseholdID,
			&resident.Name,
			&resident.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resident: %w", err)
		}
		residents = append(residents, resident)
	}

	return residents, rows.Err()
}
