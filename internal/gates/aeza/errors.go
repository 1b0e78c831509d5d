package aeza

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// RemoteError - любая неудача при обращении к API Aeza: сетевая ошибка,
// не-2xx статус или некорректный JSON в ответе. Статус и тело ответа
// сохраняются для диагностики.
type RemoteError struct {
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("ошибка сети: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("ошибка запроса (статус %d): %v. Ответ сервера: %s", e.Status, e.Err, e.Body)
	default:
		return fmt.Sprintf("ошибка %d: %s", e.Status, e.Body)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Timeout сообщает, истек ли дедлайн запроса. По таймауту нельзя делать
// вывод, что услуга на стороне провайдера не создана.
func (e *RemoteError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// ValidationError - некорректный ввод, отловленный до сетевого вызова.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
