package memory

import (
	"context"
	"sort"
	"sync"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

// Store is a mutex-guarded in-memory backend. The Packages, Residents, and
// Admins views share its maps, so the three repositories stay consistent the
// way tabs of one spreadsheet do. It backs the test suites and makes the
// server runnable without either external store.
type Store struct {
	mu sync.Mutex

	packages  map[string]models.Package
	residents map[int64]models.Resident
	admins    map[string]models.Admin
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		packages:  make(map[string]models.Package),
		residents: make(map[int64]models.Resident),
		admins:    make(map[string]models.Admin),
	}
}

// Packages returns the package repository view of the store
func (s *Store) Packages() repository.PackageRepository {
	return &packageStore{s}
}

// Residents returns the resident repository view of the store
func (s *Store) Residents() repository.ResidentRepository {
	return &residentStore{s}
}

// Admins returns the credential repository view of the store
func (s *Store) Admins() repository.AdminRepository {
	return &adminStore{s}
}

// SeedAdmin inserts a credential row, mirroring a hand-edited admins tab.
func (s *Store) SeedAdmin(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[username] = models.Admin{Username: username, Password: password}
}

// ---------------------------------------------------------------------------
// Packages
// ---------------------------------------------------------------------------

type packageStore struct {
	*Store
}

func (s *packageStore) Create(_ context.Context, pkg *models.Package) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.packages[pkg.ID]; exists {
		return nil, repository.ErrConflict
	}
	s.packages[pkg.ID] = *pkg
	return pkg, nil
}

func (s *packageStore) GetByID(_ context.Context, id string) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg, ok := s.packages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pkg, nil
}

func (s *packageStore) List(_ context.Context, filters repository.PackageFilters) ([]*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Package, 0, len(s.packages))
	for _, pkg := range s.packages {
		if filters.HouseholdID != "" && pkg.HouseholdID != filters.HouseholdID {
			continue
		}
		if filters.Status != nil && pkg.Status != *filters.Status {
			continue
		}
		if filters.OverdueOnly && !pkg.Overdue {
			continue
		}
		p := pkg
		out = append(out, &p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	return out, nil
}

func (s *packageStore) Update(_ context.Context, pkg *models.Package) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.packages[pkg.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	s.packages[pkg.ID] = *pkg
	return pkg, nil
}

func (s *packageStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.packages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.packages, id)
	return nil
}

// ---------------------------------------------------------------------------
// Residents
// ---------------------------------------------------------------------------

type residentStore struct {
	*Store
}

func (s *residentStore) Upsert(_ context.Context, resident *models.Resident) (*models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.residents[resident.ChatID] = *resident
	return resident, nil
}

func (s *residentStore) GetByChatID(_ context.Context, chatID int64) (*models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resident, ok := s.residents[chatID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &resident, nil
}

func (s *residentStore) ListByHousehold(_ context.Context, householdID string) ([]*models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Resident
	for _, resident := range s.residents {
		if resident.HouseholdID != householdID {
			continue
		}
		r := resident
		out = append(out, &r)
	}
	sortResidents(out)
	return out, nil
}

func (s *residentStore) List(_ context.Context) ([]*models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Resident, 0, len(s.residents))
	for _, resident := range s.residents {
		r := resident
		out = append(out, &r)
	}
	sortResidents(out)
	return out, nil
}

func (s *residentStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.residents[chatID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.residents, chatID)
	return nil
}

func sortResidents(residents []*models.Resident) {
	sort.Slice(residents, func(i, j int) bool {
		if residents[i].JoinedAt.Equal(residents[j].JoinedAt) {
			return residents[i].ChatID < residents[j].ChatID
		}
		return residents[i].JoinedAt.Before(residents[j].JoinedAt)
	})
}

// ---------------------------------------------------------------------------
// Admins
// ---------------------------------------------------------------------------

type adminStore struct {
	*Store
}

func (s *adminStore) GetByUsername(_ context.Context, username string) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.admins[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &admin, nil
}
