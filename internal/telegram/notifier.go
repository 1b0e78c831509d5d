package telegram

import (
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminNotifier отправляет оповещения супер-админу. Используется
// reconciler'ом для громких отчетов о рассинхронизации.
type AdminNotifier struct {
	bot          *tgbotapi.BotAPI
	superAdminID string
}

func NewAdminNotifier(bot *tgbotapi.BotAPI, superAdminID string) *AdminNotifier {
	return &AdminNotifier{bot: bot, superAdminID: superAdminID}
}

func (n *AdminNotifier) NotifyAdmin(message string) {
	slog.Warn("Admin alert", "message", message)

	if n.superAdminID == "" {
		return
	}

	adminID, err := strconv.ParseInt(n.superAdminID, 10, 64)
	if err != nil {
		return
	}

	msg := tgbotapi.NewMessage(adminID, message)
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Failed to deliver admin alert", "error", err)
	}
}
