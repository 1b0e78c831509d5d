package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"aeza-bot/internal/reconciler"
)

// ОС по умолчанию для заказываемых серверов (Debian 12)
const defaultOSID = 4320

type BuyState struct {
	UserID      int64
	ProductID   int64
	ProductName string
	PriceHour   decimal.Decimal
	PriceMonth  decimal.Decimal
	Term        Term
	Price       decimal.Decimal
	Step        BuyStep
}

// accepts сообщает, соответствует ли callback текущему шагу покупки.
// Telegram не мешает прислать callback от старой клавиатуры или собрать
// его вручную, поэтому шаг проверяется явно.
func (st *BuyState) accepts(prefix CallbackPrefix) bool {
	switch prefix {
	case CallbackBuyProduct:
		return st.Step == BuyStepProduct
	case CallbackBuyTerm:
		return st.Step == BuyStepTerm
	case CallbackBuyConfirm:
		return st.Step == BuyStepConfirm
	}
	return false
}

// priceFor возвращает цену периода из каталога, зафиксированного при
// выборе тарифа. Цена никогда не берется из callback данных.
func (st *BuyState) priceFor(term Term) (decimal.Decimal, bool) {
	switch term {
	case TermHour:
		return st.PriceHour, true
	case TermMonth:
		return st.PriceMonth, true
	}
	return decimal.Zero, false
}

var buyStates = make(map[int64]*BuyState)

func (s *Service) handleBuy(ctx context.Context, msg *tgbotapi.Message) {
	products, err := s.provider.ListProducts(ctx)
	if err != nil {
		s.handleError(msg.Chat.ID, ErrProviderf("список тарифов: %v", err))
		return
	}

	if len(products) == 0 {
		s.reply(msg.Chat.ID, "Тарифы провайдера временно недоступны")
		return
	}

	// Создаем клавиатуру с тарифами
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, product := range products {
		btn := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s - %s руб./мес", product.Name, product.Prices.Month.String()),
			CallbackBuyProduct.WithID(product.ID),
		)
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{btn})
	}

	buyStates[msg.From.ID] = &BuyState{
		UserID: msg.From.ID,
		Step:   BuyStepProduct,
	}

	msgConfig := tgbotapi.NewMessage(msg.Chat.ID, "Выберите тариф:")
	msgConfig.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	s.bot.Send(msgConfig)
}

func (s *Service) handleBuyCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	data := callback.Data
	userID := callback.From.ID

	if strings.HasPrefix(data, CallbackBuyCancel.String()) {
		delete(buyStates, userID)
		s.answerCallback(callback.ID, "Покупка отменена")
		s.editMessage(callback, "❌ Покупка отменена")
		return
	}

	state, exists := buyStates[userID]
	if !exists {
		s.answerCallback(callback.ID, "Состояние покупки не найдено, начните заново: /buy")
		return
	}

	switch {
	case strings.HasPrefix(data, CallbackBuyProduct.String()):
		if !state.accepts(CallbackBuyProduct) {
			s.answerCallback(callback.ID, "Этот шаг уже пройден, начните заново: /buy")
			return
		}
		s.handleProductSelection(ctx, callback, state)
	case strings.HasPrefix(data, CallbackBuyTerm.String()):
		if !state.accepts(CallbackBuyTerm) {
			s.answerCallback(callback.ID, "Сначала выберите тариф: /buy")
			return
		}
		s.handleTermSelection(callback, state)
	case strings.HasPrefix(data, CallbackBuyConfirm.String()):
		if !state.accepts(CallbackBuyConfirm) {
			s.answerCallback(callback.ID, "Заказ еще не собран, начните заново: /buy")
			return
		}
		s.handlePurchaseConfirm(ctx, callback, state)
	}
}

func (s *Service) handleProductSelection(ctx context.Context, callback *tgbotapi.CallbackQuery, state *BuyState) {
	productIDStr := strings.TrimPrefix(callback.Data, CallbackBuyProduct.String())
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil {
		s.answerCallback(callback.ID, "Неверный ID тарифа")
		return
	}

	products, err := s.provider.ListProducts(ctx)
	if err != nil {
		s.answerCallback(callback.ID, "Провайдер временно недоступен")
		return
	}

	for _, product := range products {
		if product.ID == productID {
			state.ProductID = product.ID
			state.ProductName = product.Name
			state.PriceHour = product.Prices.Hour
			state.PriceMonth = product.Prices.Month
			state.Step = BuyStepTerm

			// Выбор периода. Цены показываются в подписях кнопок,
			// но списание всегда идет по каталогу из состояния
			keyboard := [][]tgbotapi.InlineKeyboardButton{
				{tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("⏱ Час - %s руб.", product.Prices.Hour.String()),
					CallbackBuyTerm.WithID(TermHour))},
				{tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("📅 Месяц - %s руб.", product.Prices.Month.String()),
					CallbackBuyTerm.WithID(TermMonth))},
				{tgbotapi.NewInlineKeyboardButtonData("Отмена", CallbackBuyCancel.String())},
			}

			s.editMessageWithKeyboard(callback, "Выберите период оплаты:", keyboard)
			s.answerCallback(callback.ID, "")
			return
		}
	}

	s.answerCallback(callback.ID, "Тариф не найден")
}

func (s *Service) handleTermSelection(callback *tgbotapi.CallbackQuery, state *BuyState) {
	term := Term(strings.TrimPrefix(callback.Data, CallbackBuyTerm.String()))

	price, ok := state.priceFor(term)
	if !ok {
		s.answerCallback(callback.ID, "Неверный период")
		return
	}

	state.Term = term
	state.Price = price
	state.Step = BuyStepConfirm

	user, err := s.repo.Users().Get(state.UserID)
	if err != nil {
		s.answerCallback(callback.ID, "Ошибка получения профиля")
		return
	}

	text := fmt.Sprintf(`🛒 Подтверждение заказа:

📦 Тариф: %s
⏱ Период: %s
💰 Цена: %s руб.
💳 Ваш баланс: %s руб.`,
		state.ProductName,
		state.Term.DisplayName(),
		state.Price.String(),
		user.Balance.String(),
	)

	keyboard := [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", CallbackBuyConfirm.String())},
		{tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", CallbackBuyCancel.String())},
	}

	s.editMessageWithKeyboard(callback, text, keyboard)
	s.answerCallback(callback.ID, "")
}

func (s *Service) handlePurchaseConfirm(ctx context.Context, callback *tgbotapi.CallbackQuery, state *BuyState) {
	delete(buyStates, state.UserID)

	if !state.Term.IsValid() || !state.Price.IsPositive() {
		s.answerCallback(callback.ID, "Состояние покупки повреждено, начните заново: /buy")
		return
	}

	result, err := s.rec.PlaceOrder(ctx, reconciler.OrderRequest{
		UserID:    state.UserID,
		ProductID: state.ProductID,
		Term:      state.Term.String(),
		Name:      fmt.Sprintf("proxy-%d", state.UserID),
		Price:     state.Price,
		Parameters: map[string]any{
			"os": defaultOSID,
		},
	})
	if err != nil {
		s.answerCallback(callback.ID, "")

		var recErr *reconciler.ReconciliationError
		switch {
		case errors.Is(err, reconciler.ErrInsufficientBalance):
			s.editMessage(callback, "❌ Недостаточно средств на балансе. Пополните баланс и попробуйте снова.")
		case errors.As(err, &recErr):
			// Услуга могла быть создана: пользователю нельзя говорить
			// об однозначном провале, иначе он купит еще раз
			s.handleError(callback.Message.Chat.ID, ErrReconciliationf("услуга %d: %v", recErr.ServiceID, err))
			s.editMessage(callback, "⚠️ Заказ в неопределенном состоянии, с вами свяжется поддержка.")
		default:
			s.handleError(callback.Message.Chat.ID, ErrOrderf("заказ тарифа %d: %v", state.ProductID, err))
			s.editMessage(callback, "❌ Заказ отклонен. Средства не списаны.")
		}
		return
	}

	s.answerCallback(callback.ID, "Заказ выполнен!")
	text := fmt.Sprintf(`✅ Прокси готов!

📋 ID: %s
🌐 Сервер: %s
🔗 Подключение: %s

Управление: /myproxies`,
		result.Proxy.ShortID,
		result.Proxy.ServerIP,
		result.Proxy.Link,
	)
	s.editMessage(callback, text)
}

func (s *Service) editMessage(callback *tgbotapi.CallbackQuery, text string) {
	editMsg := tgbotapi.NewEditMessageText(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		text,
	)
	s.bot.Send(editMsg)
}

func (s *Service) editMessageWithKeyboard(callback *tgbotapi.CallbackQuery, text string, keyboard [][]tgbotapi.InlineKeyboardButton) {
	editMsg := tgbotapi.NewEditMessageText(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		text,
	)
	editMsg.ReplyMarkup = &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}
	s.bot.Send(editMsg)
}
