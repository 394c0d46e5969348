package sheets

import (
	"context"
	"fmt"
	"net/url"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

const adminsTab = "admins"

type adminRepository struct {
	c *Client
}

// NewAdminRepository creates a credential repository backed by the admins tab
func NewAdminRepository(c *Client) repository.AdminRepository {
	return &adminRepository{c: c}
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	rows, err := r.c.Search(ctx, adminsTab, url.Values{"username": {username}})
	if err != nil {
		return nil, fmt.Errorf("failed to get admin %s: %w", username, err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &models.Admin{
		Username: rows[0]["username"],
		Password: rows[0]["password"],
	}, nil
}
