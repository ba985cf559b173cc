package domain

import "errors"

// Классификация ошибок для HTTP-слоя: каждая группа отображается
// в свой класс статуса (400 / 401 / 500 / 502).
var (
	ErrInvalidOrder        = errors.New("некорректный заказ")
	ErrAmountRequired      = errors.New("некорректная сумма")
	ErrUnauthorized        = errors.New("некорректные данные WebApp")
	ErrNotConfigured       = errors.New("сервис не настроен")
	ErrUpstreamUnavailable = errors.New("внешний сервис недоступен")
	ErrOrderNotFound       = errors.New("заказ не найден")
)

// BusinessError ошибка бизнес-логики, которая уже залогирована в UseCase
type BusinessError struct {
	Err error
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}
