package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"aeza-bot/internal/gates/aeza"
)

func (s *Service) handleCredit(msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		s.reply(msg.Chat.ID, "Использование: /credit <id> <сумма>\nПример: /credit 123456789 500")
		return
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		s.reply(msg.Chat.ID, "Неверный ID пользователя")
		return
	}

	amount, err := decimal.NewFromString(args[1])
	if err != nil || !amount.IsPositive() {
		s.reply(msg.Chat.ID, "Неверная сумма")
		return
	}

	if _, err := s.repo.Users().Get(userID); err != nil {
		s.handleError(msg.Chat.ID, ErrUserNotFoundf("пользователь %d: %v", userID, err))
		return
	}

	description := fmt.Sprintf("пополнение администратором %d", msg.From.ID)
	if err := s.rec.Credit(userID, amount, description); err != nil {
		s.handleError(msg.Chat.ID, ErrDatabasef("пополнение %d на %s: %v", userID, amount, err))
		return
	}

	s.reply(msg.Chat.ID, fmt.Sprintf("✅ Баланс пользователя %d пополнен на %s руб.", userID, amount.String()))

	// Сообщаем пользователю о пополнении
	userMsg := tgbotapi.NewMessage(userID, fmt.Sprintf("💰 Ваш баланс пополнен на %s руб.", amount.String()))
	s.bot.Send(userMsg)
}

func (s *Service) handleFreeze(msg *tgbotapi.Message) {
	shortID := strings.TrimSpace(msg.CommandArguments())
	if shortID == "" {
		s.reply(msg.Chat.ID, "Использование: /freeze <short_id>")
		return
	}

	if err := s.rec.Freeze(shortID); err != nil {
		s.handleError(msg.Chat.ID, ErrProxyNotFoundf("заморозка %s: %v", shortID, err))
		return
	}

	s.reply(msg.Chat.ID, fmt.Sprintf("🧊 Прокси %s заморожен", shortID))
}

func (s *Service) handleUnfreeze(msg *tgbotapi.Message) {
	shortID := strings.TrimSpace(msg.CommandArguments())
	if shortID == "" {
		s.reply(msg.Chat.ID, "Использование: /unfreeze <short_id>")
		return
	}

	if err := s.rec.Unfreeze(shortID); err != nil {
		s.handleError(msg.Chat.ID, ErrProxyNotFoundf("разморозка %s: %v", shortID, err))
		return
	}

	s.reply(msg.Chat.ID, fmt.Sprintf("✅ Прокси %s разморожен", shortID))
}

func (s *Service) handleInfo(msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		s.reply(msg.Chat.ID, "Использование: /info <id>")
		return
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		s.reply(msg.Chat.ID, "Неверный ID пользователя")
		return
	}

	user, err := s.repo.Users().Get(userID)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrUserNotFoundf("пользователь %d: %v", userID, err))
		return
	}

	ledgerSum, err := s.repo.Bank().SumForUser(userID)
	ledgerNote := ""
	if err == nil && !ledgerSum.Equal(user.Balance) {
		// Сумма движений должна сходиться с балансом; расхождение -
		// признак рассинхронизации
		ledgerNote = fmt.Sprintf("\n⚠️ Сумма движений (%s) не сходится с балансом!", ledgerSum.String())
	}

	text := fmt.Sprintf(`👤 Пользователь %d (%s)
💰 Баланс: %s руб.%s
🌐 Прокси: %d
📅 Регистрация: %s`,
		user.ID, user.Name,
		user.Balance.String(), ledgerNote,
		user.ProxyCount,
		user.CreatedAt.Format("02.01.2006"),
	)

	proxies, err := s.repo.Proxies().ListByUser(userID)
	if err == nil && len(proxies) > 0 {
		text += "\n\n🌐 Прокси:\n"
		for _, proxy := range proxies {
			status := "🟢"
			if proxy.IsFrozen {
				status = "🧊"
			}
			text += fmt.Sprintf("%s %s - %s (услуга %d)\n",
				status, proxy.ShortID, proxy.ServerIP, proxy.ServiceID)
		}
	}

	s.reply(msg.Chat.ID, text)
}

func (s *Service) handleServices(ctx context.Context, msg *tgbotapi.Message) {
	services, err := s.provider.ListMyServices(ctx)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrProviderf("список услуг: %v", err))
		return
	}

	if len(services) == 0 {
		s.reply(msg.Chat.ID, "На стороне провайдера нет активных услуг")
		return
	}

	text := "📡 Услуги на стороне провайдера:\n\n"
	for _, service := range services {
		text += fmt.Sprintf("🆔 %d - %s\n🌐 %s\n📊 %s\n\n",
			service.ID, service.Name, service.IP, service.Status)
	}
	s.reply(msg.Chat.ID, text)
}

func (s *Service) handleOS(ctx context.Context, msg *tgbotapi.Message) {
	osList, err := s.provider.ListOS(ctx)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrProviderf("список ОС: %v", err))
		return
	}

	text := "💿 Доступные ОС:\n\n"
	for _, os := range osList {
		text += fmt.Sprintf("🆔 %d - %s (%s)\n", os.ID, os.Name, os.Group)
	}
	s.reply(msg.Chat.ID, text)
}

func (s *Service) handleRecipes(ctx context.Context, msg *tgbotapi.Message) {
	recipes, err := s.provider.ListRecipes(ctx)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrProviderf("список ПО: %v", err))
		return
	}

	text := "📦 Доступное ПО:\n\n"
	for _, recipe := range recipes {
		text += fmt.Sprintf("🆔 %d - %s\n", recipe.ID, recipe.Name)
	}
	s.reply(msg.Chat.ID, text)
}

func (s *Service) handleCtl(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		s.reply(msg.Chat.ID, "Использование: /ctl <short_id> <resume|suspend|reboot>")
		return
	}

	shortID, action := args[0], args[1]

	proxy, err := s.repo.Proxies().GetByShortID(shortID)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrProxyNotFoundf("прокси %s: %v", shortID, err))
		return
	}

	if err := s.provider.ControlService(ctx, proxy.ServiceID, action); err != nil {
		var validationErr *aeza.ValidationError
		if errors.As(err, &validationErr) {
			s.reply(msg.Chat.ID, "Неверное действие. Допустимы: resume, suspend, reboot")
			return
		}
		s.handleError(msg.Chat.ID, ErrProviderf("управление услугой %d: %v", proxy.ServiceID, err))
		return
	}

	s.reply(msg.Chat.ID, fmt.Sprintf("✅ Действие %s для %s выполнено", action, shortID))
}

func (s *Service) handlePasswd(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		s.reply(msg.Chat.ID, "Использование: /passwd <short_id> <новый_пароль>")
		return
	}

	shortID, password := args[0], args[1]

	proxy, err := s.repo.Proxies().GetByShortID(shortID)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrProxyNotFoundf("прокси %s: %v", shortID, err))
		return
	}

	if err := s.provider.ChangePassword(ctx, proxy.ServiceID, password); err != nil {
		s.handleError(msg.Chat.ID, ErrProviderf("смена пароля услуги %d: %v", proxy.ServiceID, err))
		return
	}

	s.reply(msg.Chat.ID, fmt.Sprintf("🔑 Пароль сервера %s изменен", shortID))
}

func (s *Service) handleJournal(msg *tgbotapi.Message) {
	entries, err := s.repo.Journal().Recent(15)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrDatabasef("журнал: %v", err))
		return
	}

	if len(entries) == 0 {
		s.reply(msg.Chat.ID, "Журнал пуст")
		return
	}

	text := "📜 Последние записи журнала:\n\n"
	for _, entry := range entries {
		proxyRef := ""
		if entry.ProxyID != nil {
			proxyRef = " " + *entry.ProxyID
		}
		text += fmt.Sprintf("%s | %d | %s%s\n%s\n\n",
			entry.CreatedAt.Format("02.01 15:04"),
			entry.UserID,
			entry.Action,
			proxyRef,
			entry.Description,
		)
	}
	s.reply(msg.Chat.ID, text)
}
