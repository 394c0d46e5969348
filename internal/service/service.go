package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

// Domain errors returned by the service layer. The HTTP layer maps these to
// status codes; everything else surfaces as a 500.
var (
	ErrInvalidHousehold  = errors.New("invalid household id")
	ErrBarcodeRequired   = errors.New("barcode is required")
	ErrDuplicateBarcode  = errors.New("a pending package with this barcode already exists")
	ErrNotDeletable      = errors.New("only pending packages can be deleted")
	ErrNotPending        = errors.New("package is not pending")
	ErrNoLinkedResident  = errors.New("household has no linked resident")
	ErrCodeUndelivered   = errors.New("pickup code could not be delivered")
	ErrNoCodeIssued      = errors.New("no pickup code has been issued")
	ErrCodeMismatch      = errors.New("pickup code does not match")
	ErrCodeExpired       = errors.New("pickup code has expired")
	ErrSignatureRequired = errors.New("signature is required")
	ErrSignatureTooLarge = errors.New("signature exceeds the size limit")
	ErrBadCredentials    = errors.New("invalid username or password")
)

// Live-update event types pushed to desk dashboards.
const (
	EventPackageLogged   = "package_logged"
	EventPackagePickedUp = "package_picked_up"
	EventPackageDeleted  = "package_deleted"
	EventPackageOverdue  = "package_overdue"
	EventPackageExpired  = "package_expired"
)

// Notifier delivers a text message to a Telegram chat. The bot satisfies it.
type Notifier interface {
	SendMessage(chatID int64, text string) error
}

// Broadcaster pushes an event to every connected desk dashboard. The
// WebSocket hub satisfies it.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// Options tunes the pickup-code and retention windows. Zero values fall back
// to the defaults.
type Options struct {
	CodeTTL      time.Duration // pickup code lifetime (default 10m)
	OverdueAfter time.Duration // pending age before the overdue flag (default 72h)
	ExpireAfter  time.Duration // pending age before expiry (default 30 days)
}

// Service is the central business logic layer that holds the repositories
// and provides high-level methods for the desk API and the bot.
type Service struct {
	logger    *logrus.Logger
	Packages  repository.PackageRepository
	Residents repository.ResidentRepository
	Admins    repository.AdminRepository

	notifier    Notifier
	broadcaster Broadcaster

	codeTTL      time.Duration
	overdueAfter time.Duration
	expireAfter  time.Duration
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger,
	packages repository.PackageRepository,
	residents repository.ResidentRepository,
	admins repository.AdminRepository,
	opts Options,
) *Service {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 10 * time.Minute
	}
	if opts.OverdueAfter <= 0 {
		opts.OverdueAfter = 72 * time.Hour
	}
	if opts.ExpireAfter <= 0 {
		opts.ExpireAfter = 30 * 24 * time.Hour
	}
	return &Service{
		logger:       logger,
		Packages:     packages,
		Residents:    residents,
		Admins:       admins,
		codeTTL:      opts.CodeTTL,
		overdueAfter: opts.OverdueAfter,
		expireAfter:  opts.ExpireAfter,
	}
}

// SetNotifier attaches the Telegram bot. Without one, resident messages are
// skipped (pickup codes then fail to issue, since nobody can receive them).
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetBroadcaster attaches the live-update hub.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Authenticate verifies desk credentials and returns the matching admin.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.Admin, error) {
	admin, err := s.Admins.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup admin %q: %w", username, err)
	}
	if !admin.CheckPassword(password) {
		return nil, ErrBadCredentials
	}
	return admin, nil
}

// notifyHousehold sends text to every resident bound to the household and
// returns how many messages went out. Delivery failures are logged and
// swallowed; callers that need a guarantee check the count.
func (s *Service) notifyHousehold(ctx context.Context, householdID, text string) int {
	if s.notifier == nil {
		return 0
	}

	residents, err := s.Residents.ListByHousehold(ctx, householdID)
	if err != nil {
		s.logger.Errorf("Failed to list residents for household %s: %v", householdID, err)
		return 0
	}

	sent := 0
	for _, resident := range residents {
		if err := s.notifier.SendMessage(resident.ChatID, text); err != nil {
			s.logger.Errorf("Failed to message chat %d: %v", resident.ChatID, err)
			continue
		}
		sent++
	}
	return sent
}

// broadcast pushes a desk event when a hub is attached.
func (s *Service) broadcast(event string, data any) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(event, data)
}
