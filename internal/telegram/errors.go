package telegram

import (
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Error коды для различных типов ошибок
const (
	ErrInvalidInput     = "INVALID_INPUT"
	ErrDatabaseError    = "DATABASE_ERROR"
	ErrProviderError    = "PROVIDER_ERROR"
	ErrPermissionDenied = "PERMISSION_DENIED"
	ErrUserNotFound     = "USER_NOT_FOUND"
	ErrProxyNotFound    = "PROXY_NOT_FOUND"
	ErrOrderError       = "ORDER_ERROR"
	ErrReconciliation   = "RECONCILIATION_CONFLICT"
)

// BotError представляет ошибку бота с кодом и сообщением для пользователя
type BotError struct {
	Code        string
	Message     string
	UserMessage string
	Details     string
}

func (e *BotError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
}

// NewBotError создает новую ошибку бота
func NewBotError(code, message, userMessage, details string) *BotError {
	return &BotError{
		Code:        code,
		Message:     message,
		UserMessage: userMessage,
		Details:     details,
	}
}

// handleError обрабатывает ошибки и отправляет соответствующие сообщения пользователю
func (s *Service) handleError(chatID int64, err error) {
	slog.Error("Bot error occurred", "error", err)

	var userMessage string

	// Проверяем, является ли ошибка нашей BotError
	if botErr, ok := err.(*BotError); ok {
		userMessage = botErr.UserMessage

		// Отправляем детали ошибки супер-админу
		s.sendErrorReport(botErr)
	} else {
		// Общая ошибка
		userMessage = "Произошла внутренняя ошибка. Попробуйте позже."

		s.sendErrorReport(&BotError{
			Code:        "UNKNOWN_ERROR",
			Message:     "Unknown error occurred",
			UserMessage: userMessage,
			Details:     err.Error(),
		})
	}

	s.reply(chatID, "❌ "+userMessage)
}

// sendErrorReport отправляет отчет об ошибке супер-админу
func (s *Service) sendErrorReport(botErr *BotError) {
	if s.cfg.SuperAdminID == "" {
		return
	}

	adminID, err := strconv.ParseInt(s.cfg.SuperAdminID, 10, 64)
	if err != nil {
		return
	}

	report := fmt.Sprintf(`🚨 Ошибка в боте:

Код: %s
Сообщение: %s
Детали: %s

Пользователю показано: %s`,
		botErr.Code,
		botErr.Message,
		botErr.Details,
		botErr.UserMessage,
	)

	msg := tgbotapi.NewMessage(adminID, report)
	s.bot.Send(msg)
}

// Вспомогательные функции для создания типичных ошибок

func ErrInvalidInputf(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrInvalidInput,
		"Invalid input provided",
		"Неверный формат данных. Проверьте правильность ввода.",
		fmt.Sprintf(details, args...),
	)
}

func ErrDatabasef(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrDatabaseError,
		"Database operation failed",
		"Ошибка базы данных. Попробуйте позже.",
		fmt.Sprintf(details, args...),
	)
}

func ErrProviderf(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrProviderError,
		"Provider API call failed",
		"Провайдер временно недоступен. Попробуйте позже, средства не списаны.",
		fmt.Sprintf(details, args...),
	)
}

func ErrPermission(details string) *BotError {
	return NewBotError(
		ErrPermissionDenied,
		"Permission denied",
		"У вас нет прав для выполнения этой операции.",
		details,
	)
}

func ErrUserNotFoundf(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrUserNotFound,
		"User not found",
		"Пользователь не найден.",
		fmt.Sprintf(details, args...),
	)
}

func ErrProxyNotFoundf(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrProxyNotFound,
		"Proxy not found",
		"Прокси не найден.",
		fmt.Sprintf(details, args...),
	)
}

func ErrOrderf(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrOrderError,
		"Order processing failed",
		"Ошибка обработки заказа. Средства не списаны.",
		fmt.Sprintf(details, args...),
	)
}

// ErrReconciliationf - покупка могла пройти на стороне провайдера, хотя
// локальная запись не удалась. Пользователь не должен повторять заказ.
func ErrReconciliationf(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrReconciliation,
		"Remote succeeded but local recording failed",
		"⚠️ Заказ мог быть выполнен, но не был записан. НЕ повторяйте покупку - обратитесь в поддержку, мы всё сверим вручную.",
		fmt.Sprintf(details, args...),
	)
}
