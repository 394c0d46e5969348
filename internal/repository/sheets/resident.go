package sheets

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

const residentsTab = "residents"

type residentRepository struct {
	c *Client
}

// NewResidentRepository creates a resident repository backed by the residents tab
func NewResidentRepository(c *Client) repository.ResidentRepository {
	return &residentRepository{c: c}
}

func (r *residentRepository) Upsert(ctx context.Context, resident *models.Resident) (*models.Resident, error) {
	key := strconv.FormatInt(resident.ChatID, 10)
	updated, err := r.c.Update(ctx, residentsTab, "chat_id", key, residentRow(resident))
	if err != nil {
		return nil, fmt.Errorf("failed to update resident %d: %w", resident.ChatID, err)
	}
	if updated == 0 {
		if err := r.c.Insert(ctx, residentsTab, residentRow(resident)); err != nil {
			return nil, fmt.Errorf("failed to create resident %d: %w", resident.ChatID, err)
		}
	}
	return resident, nil
}

func (r *residentRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Resident, error) {
	rows, err := r.c.Search(ctx, residentsTab, url.Values{"chat_id": {strconv.FormatInt(chatID, 10)}})
	if err != nil {
		return nil, fmt.Errorf("failed to get resident %d: %w", chatID, err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return scanResident(rows[0]), nil
}

func (r *residentRepository) ListByHousehold(ctx context.Context, householdID string) ([]*models.Resident, error) {
	rows, err := r.c.Search(ctx, residentsTab, url.Values{"household_id": {householdID}})
	if err != nil {
		return nil, fmt.Errorf("failed to list residents of %s: %w", householdID, err)
	}
	return scanResidents(rows), nil
}

func (r *residentRepository) List(ctx context.Context) ([]*models.Resident, error) {
	rows, err := r.c.Rows(ctx, residentsTab)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	return scanResidents(rows), nil
}

func (r *residentRepository) Delete(ctx context.Context, chatID int64) error {
	deleted, err := r.c.Delete(ctx, residentsTab, "chat_id", strconv.FormatInt(chatID, 10))
	if err != nil {
		return fmt.Errorf("failed to delete resident %d: %w", chatID, err)
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func residentRow(r *models.Resident) row {
	return row{
		"chat_id":      strconv.FormatInt(r.ChatID, 10),
		"household_id": r.HouseholdID,
		"name":         r.Name,
		"joined_at":    formatCellTime(r.JoinedAt),
	}
}

func scanResident(r row) *models.Resident {
	res := &models.Resident{
		HouseholdID: r["household_id"],
		Name:        r["name"],
	}
	res.ChatID, _ = strconv.ParseInt(r["chat_id"], 10, 64)
	if t, ok := parseCellTime(r["joined_at"]); ok {
		res.JoinedAt = t
	}
	return res
}

func scanResidents(rows []row) []*models.Resident {
	out := make([]*models.Resident, 0, len(rows))
	for _, rw := range rows {
		out = append(out, scanResident(rw))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}
