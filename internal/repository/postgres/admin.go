package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

type adminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new admin credential repository
func NewAdminRepository(db *sql.DB) repository.AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `
		SELECT username, password
		FROM admins
		WHERE username = $1`

	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&admin.Username,
		&admin.Password,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin by username: %w", err)
	}

	return admin, nil
}
