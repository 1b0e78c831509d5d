package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aeza-bot/internal/reconciler"
)

func (s *Service) handleMyProxies(msg *tgbotapi.Message) {
	proxies, err := s.repo.Proxies().ListByUser(msg.From.ID)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrDatabasef("список прокси пользователя %d: %v", msg.From.ID, err))
		return
	}

	if len(proxies) == 0 {
		s.reply(msg.Chat.ID, "У вас пока нет прокси. Используйте /buy для покупки.")
		return
	}

	text := "🌐 Ваши прокси:\n\n"
	var keyboard [][]tgbotapi.InlineKeyboardButton

	for i, proxy := range proxies {
		status := "🟢 Активен"
		if proxy.IsFrozen {
			status = "🧊 Заморожен"
		}

		text += fmt.Sprintf("%d. ID: %s\n🌐 Сервер: %s\n🔗 %s\n📅 Создан: %s\n%s\n\n",
			i+1, proxy.ShortID, proxy.ServerIP, proxy.Link,
			proxy.CreatedAt.Format("02.01.2006"), status)

		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 Удалить %s", proxy.ShortID),
				CallbackProxyDel.WithID(proxy.ShortID),
			),
		})
	}

	msgConfig := tgbotapi.NewMessage(msg.Chat.ID, text)
	msgConfig.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	s.bot.Send(msgConfig)
}

func (s *Service) handleProxyDeleteCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	shortID := strings.TrimPrefix(callback.Data, CallbackProxyDel.String())

	proxy, err := s.repo.Proxies().GetByShortID(shortID)
	if err != nil {
		s.answerCallback(callback.ID, "Прокси не найден")
		return
	}

	// Удалять можно только свои прокси
	if proxy.UserID != callback.From.ID && !s.isAdmin(callback.From.ID) {
		s.answerCallback(callback.ID, "Это не ваш прокси")
		return
	}

	if err := s.rec.DeleteProxy(ctx, shortID); err != nil {
		s.answerCallback(callback.ID, "")

		var recErr *reconciler.ReconciliationError
		if errors.As(err, &recErr) {
			s.handleError(callback.Message.Chat.ID, ErrReconciliationf("удаление %s: %v", shortID, err))
			return
		}

		// Удаление у провайдера не прошло: локальная запись сохранена,
		// услуга продолжает действовать
		s.handleError(callback.Message.Chat.ID, ErrProviderf("удаление %s: %v", shortID, err))
		return
	}

	s.answerCallback(callback.ID, "Прокси удален")
	s.editMessage(callback, fmt.Sprintf("✅ Прокси %s удален", shortID))
}
