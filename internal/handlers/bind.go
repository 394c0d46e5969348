package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"parceldesk/internal/repository"
	"parceldesk/internal/service"
)

// ---------------------------------------------------------------------------
// BindHandler – /bind <household-id> [name]
// ---------------------------------------------------------------------------

// BindHandler handles the /bind command that links a chat to a household.
type BindHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewBindHandler creates a new BindHandler.
func NewBindHandler(svc *service.Service, logger *logrus.Logger) *BindHandler {
	return &BindHandler{svc: svc, logger: logger}
}

// Handle processes the /bind command.
func (h *BindHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"❌ Please provide your household ID.\nUsage: `/bind 12-B-3` (floor-wing-door)")
		msg.ParseMode = tgbotapi.ModeMarkdown
		bot.Send(msg)
		return nil
	}

	householdID := strings.ToUpper(args[0])

	// Everything after the ID is an optional display name; without one the
	// Telegram profile name is used.
	name := strings.Join(args[1:], " ")
	if name == "" {
		name = strings.TrimSpace(message.From.FirstName + " " + message.From.LastName)
	}

	ctx := context.Background()
	resident, err := h.svc.BindResident(ctx, message.Chat.ID, householdID, name)
	if err != nil {
		if errors.Is(err, service.ErrInvalidHousehold) {
			msg := tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf(
				"❌ `%s` is not a valid household ID.\nExpected floor-wing-door, e.g. `12-B-3` (floor 1-24, wing A-F, door 1-12).", householdID))
			msg.ParseMode = tgbotapi.ModeMarkdown
			bot.Send(msg)
			return nil
		}
		return fmt.Errorf("bind resident: %w", err)
	}

	text := fmt.Sprintf("✅ *Linked!*\n\nThis chat now receives parcel notices for household *%s*.", resident.HouseholdID)
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send bind confirmation: %w", err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// UnbindHandler – /unbind
// ---------------------------------------------------------------------------

// UnbindHandler handles the /unbind command.
type UnbindHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewUnbindHandler creates a new UnbindHandler.
func NewUnbindHandler(svc *service.Service, logger *logrus.Logger) *UnbindHandler {
	return &UnbindHandler{svc: svc, logger: logger}
}

// Handle processes the /unbind command.
func (h *UnbindHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	err := h.svc.UnbindResident(ctx, message.Chat.ID)
	if errors.Is(err, repository.ErrNotFound) {
		msg := tgbotapi.NewMessage(message.Chat.ID, "ℹ️ This chat is not linked to any household.")
		bot.Send(msg)
		return nil
	}
	if err != nil {
		return fmt.Errorf("unbind resident: %w", err)
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "✅ Unlinked. You will no longer receive parcel notices.")
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send unbind confirmation: %w", err)
	}

	return nil
}
