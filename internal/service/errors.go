// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound — заявка не найдена.
	ErrNotFound = errors.New("заявка не найдена")
	// ErrInvalidStatus — статус вне допустимого набора.
	ErrInvalidStatus = errors.New("некорректный статус: допустимые значения — new, in-progress, completed")
	// ErrInvalidInput — ошибка валидации входных данных.
	ErrInvalidInput = errors.New("ошибка валидации")
)

// InvalidIDsError — идентификаторы, которые не удалось разобрать как число.
// Всегда оборачивается в ErrInvalidInput.
type InvalidIDsError struct {
	IDs []string
}

func (e *InvalidIDsError) Error() string {
	quoted := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return "некорректные идентификаторы: " + strings.Join(quoted, ", ")
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrInvalidInput).
func (e *InvalidIDsError) Unwrap() error {
	return ErrInvalidInput
}
