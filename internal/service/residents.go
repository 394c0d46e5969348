package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

// BindResident links a Telegram chat to a household. Rebinding an already
// linked chat moves it to the new household instead of duplicating it.
func (s *Service) BindResident(ctx context.Context, chatID int64, householdID, name string) (*models.Resident, error) {
	householdID = strings.TrimSpace(householdID)
	name = strings.TrimSpace(name)

	if !models.ValidHouseholdID(householdID) {
		return nil, ErrInvalidHousehold
	}

	resident, err := s.Residents.GetByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to lookup resident (chat_id=%d): %w", chatID, err)
	}
	if resident == nil {
		resident = &models.Resident{ChatID: chatID, JoinedAt: time.Now().UTC()}
	}

	resident.HouseholdID = householdID
	if name != "" {
		resident.Name = name
	}

	resident, err = s.Residents.Upsert(ctx, resident)
	if err != nil {
		return nil, fmt.Errorf("failed to bind chat %d to household %s: %w", chatID, householdID, err)
	}

	s.logger.Infof("Bound chat %d to household %s", chatID, householdID)
	return resident, nil
}

// UnbindResident removes a chat's household link.
func (s *Service) UnbindResident(ctx context.Context, chatID int64) error {
	if err := s.Residents.Delete(ctx, chatID); err != nil {
		return err
	}
	s.logger.Infof("Unbound chat %d", chatID)
	return nil
}

// ResidentFor returns the binding for a chat, if any.
func (s *Service) ResidentFor(ctx context.Context, chatID int64) (*models.Resident, error) {
	return s.Residents.GetByChatID(ctx, chatID)
}

// ListResidents returns bindings, optionally narrowed to one household.
func (s *Service) ListResidents(ctx context.Context, householdID string) ([]*models.Resident, error) {
	if householdID != "" {
		return s.Residents.ListByHousehold(ctx, householdID)
	}
	return s.Residents.List(ctx)
}

// HouseholdStats is one row of the household overview.
type HouseholdStats struct {
	HouseholdID string `json:"household_id"`
	Residents   int    `json:"residents"`
	Pending     int    `json:"pending"`
	Overdue     int    `json:"overdue"`
}

// HouseholdDetail is the desk view of a single household.
type HouseholdDetail struct {
	HouseholdID string             `json:"household_id"`
	Residents   []*models.Resident `json:"residents"`
	Packages    []*models.Package  `json:"packages"`
}

// ListHouseholds returns every household that has a resident binding or a
// pending package, with counts.
func (s *Service) ListHouseholds(ctx context.Context) ([]*HouseholdStats, error) {
	residents, err := s.Residents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}

	pending := models.PackageStatusPending
	packages, err := s.Packages.List(ctx, repository.PackageFilters{Status: &pending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending packages: %w", err)
	}

	byID := make(map[string]*HouseholdStats)
	stats := func(id string) *HouseholdStats {
		if st, ok := byID[id]; ok {
			return st
		}
		st := &HouseholdStats{HouseholdID: id}
		byID[id] = st
		return st
	}

	for _, r := range residents {
		stats(r.HouseholdID).Residents++
	}
	for _, p := range packages {
		st := stats(p.HouseholdID)
		st.Pending++
		if p.Overdue {
			st.Overdue++
		}
	}

	out := make([]*HouseholdStats, 0, len(byID))
	for _, st := range byID {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].HouseholdID < out[j].HouseholdID
	})
	return out, nil
}

// HouseholdSummary returns a household's residents and waiting packages.
func (s *Service) HouseholdSummary(ctx context.Context, householdID string) (*HouseholdDetail, error) {
	if !models.ValidHouseholdID(householdID) {
		return nil, ErrInvalidHousehold
	}

	residents, err := s.Residents.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents for household %s: %w", householdID, err)
	}

	pending := models.PackageStatusPending
	packages, err := s.Packages.List(ctx, repository.PackageFilters{HouseholdID: householdID, Status: &pending})
	if err != nil {
		return nil, fmt.Errorf("failed to list packages for household %s: %w", householdID, err)
	}

	return &HouseholdDetail{
		HouseholdID: householdID,
		Residents:   residents,
		Packages:    packages,
	}, nil
}
