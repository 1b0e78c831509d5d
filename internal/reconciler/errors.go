package reconciler

import (
	"fmt"

	"aeza-bot/internal/db"
)

// ErrInsufficientBalance - на балансе пользователя не хватает средств.
// Заказ отклоняется до обращения к провайдеру.
var ErrInsufficientBalance = db.ErrInsufficientBalance

// ReconciliationError - самая тяжелая категория ошибок: услуга на стороне
// провайдера создана (или удалена), а локальная запись не прошла. Деньги
// и ресурс провайдера в рассогласованном состоянии, нужно ручное
// вмешательство оператора. Заказ нельзя молча повторять: это создаст
// вторую услугу.
type ReconciliationError struct {
	ServiceID int64
	UserID    int64
	Err       error
}

func (e *ReconciliationError) Error() string {
	// ServiceID == 0: провайдер не вернул идентификатор услуги
	if e.ServiceID == 0 {
		return fmt.Sprintf("рассинхронизация: заказ пользователя %d не отражен локально: %v",
			e.UserID, e.Err)
	}
	return fmt.Sprintf("рассинхронизация: услуга %d (пользователь %d) не отражена локально: %v",
		e.ServiceID, e.UserID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
