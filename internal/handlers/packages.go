package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
	"parceldesk/internal/service"
)

// ---------------------------------------------------------------------------
// PackagesHandler – /packages
// ---------------------------------------------------------------------------

// PackagesHandler handles the /packages command listing a household's
// waiting parcels.
type PackagesHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewPackagesHandler creates a new PackagesHandler.
func NewPackagesHandler(svc *service.Service, logger *logrus.Logger) *PackagesHandler {
	return &PackagesHandler{svc: svc, logger: logger}
}

// Handle processes the /packages command.
func (h *PackagesHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	resident, err := h.svc.ResidentFor(ctx, message.Chat.ID)
	if errors.Is(err, repository.ErrNotFound) {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"ℹ️ This chat is not linked to a household yet.\nUse `/bind 12-B-3` first.")
		msg.ParseMode = tgbotapi.ModeMarkdown
		bot.Send(msg)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup resident: %w", err)
	}

	pending := models.PackageStatusPending
	packages, err := h.svc.ListPackages(ctx, repository.PackageFilters{
		HouseholdID: resident.HouseholdID,
		Status:      &pending,
	})
	if err != nil {
		return fmt.Errorf("list packages: %w", err)
	}

	if len(packages) == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf(
			"📭 No parcels waiting for household *%s*.", resident.HouseholdID))
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send empty list: %w", err)
		}
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📦 *Parcels waiting for %s:*\n\n", resident.HouseholdID))
	for i, pkg := range packages {
		sb.WriteString(fmt.Sprintf("%d. `%s` (received %s)", i+1, barcodeTail(pkg.Barcode), pkg.ReceivedAt.Format("2006-01-02")))
		if pkg.Overdue {
			sb.WriteString(" ⏰")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n_Collect them at the front desk._")

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send package list: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":   message.Chat.ID,
		"household": resident.HouseholdID,
		"count":     len(packages),
	}).Info("Sent package list")

	return nil
}

// barcodeTail shortens long carrier barcodes for chat; the desk staff match
// parcels by the last digits anyway.
func barcodeTail(barcode string) string {
	const tail = 6
	if len(barcode) <= tail {
		return barcode
	}
	return "…" + barcode[len(barcode)-tail:]
}
