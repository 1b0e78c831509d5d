package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (s *Service) handleBalance(msg *tgbotapi.Message) {
	user, err := s.repo.Users().Get(msg.From.ID)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrDatabasef("профиль пользователя %d: %v", msg.From.ID, err))
		return
	}

	text := fmt.Sprintf(`💰 Ваш баланс: %s руб.
🌐 Активных прокси: %d
📅 Регистрация: %s`,
		user.Balance.String(),
		user.ProxyCount,
		user.CreatedAt.Format("02.01.2006"),
	)

	entries, err := s.repo.Bank().ListByUser(msg.From.ID)
	if err == nil && len(entries) > 0 {
		text += "\n\n📜 Последние операции:\n"
		limit := len(entries)
		if limit > 5 {
			limit = 5
		}
		for _, entry := range entries[:limit] {
			sign := ""
			if entry.Amount.IsPositive() {
				sign = "+"
			}
			text += fmt.Sprintf("%s%s %s - %s\n",
				sign, entry.Amount.String(), entry.Currency,
				entry.CreatedAt.Format("02.01.2006 15:04"))
		}
	}

	s.reply(msg.Chat.ID, text)
}
