package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status — статус обработки заявки (triage state).
type Status string

// Допустимые статусы заявки. Переходы между ними не ограничены,
// автоматический переход только один: new → in-progress при прочтении уведомления.
const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// ErrUnknownStatus — строка не является допустимым статусом заявки.
var ErrUnknownStatus = errors.New("недопустимый статус: допустимые значения — new, in-progress, completed")

// Statuses возвращает все допустимые статусы в порядке жизненного цикла.
func Statuses() []Status {
	return []Status{StatusNew, StatusInProgress, StatusCompleted}
}

// ParseStatus проверяет строку и возвращает Status.
// Регистр и пробелы не нормализуются: "New" не является статусом.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusInProgress, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Submission — заявка с контактной формы сайта.
// Хранится в таблице submissions.
type Submission struct {
	// ID — идентификатор, назначается при создании
	ID int64
	// Name — имя клиента
	Name string
	// Address — адрес объекта
	Address string
	// Service — запрошенная услуга
	Service string
	// Area — площадь помещения (опционально, NULL если не задана)
	Area *string
	// Budget — бюджет (опционально)
	Budget *string
	// Details — свободное описание (опционально)
	Details *string
	// Images — URL изображений, приложенных к заявке
	Images []string
	// ImagePublicIDs — идентификаторы изображений во внешнем хранилище,
	// позиционно соответствуют Images
	ImagePublicIDs []string
	// Status — статус обработки
	Status Status
	// Notes — заметки администратора, не зависят от статуса
	Notes *string
	// CreatedAt — время создания
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения
	UpdatedAt time.Time
}

// Validate проверяет обязательные поля и соответствие изображений их public id.
// Пустые опциональные строки приводятся к nil, чтобы в БД хранился NULL.
func (s *Submission) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Address = strings.TrimSpace(s.Address)
	s.Service = strings.TrimSpace(s.Service)

	var missing []string
	if s.Name == "" {
		missing = append(missing, "name")
	}
	if s.Address == "" {
		missing = append(missing, "address")
	}
	if s.Service == "" {
		missing = append(missing, "service")
	}
	if len(missing) > 0 {
		return fmt.Errorf("не заполнены обязательные поля: %s", strings.Join(missing, ", "))
	}

	if len(s.Images) > 0 && len(s.ImagePublicIDs) > 0 && len(s.Images) != len(s.ImagePublicIDs) {
		return fmt.Errorf("количество images (%d) не совпадает с imagePublicIds (%d)",
			len(s.Images), len(s.ImagePublicIDs))
	}

	s.Area = nilIfBlank(s.Area)
	s.Budget = nilIfBlank(s.Budget)
	s.Details = nilIfBlank(s.Details)
	s.Notes = nilIfBlank(s.Notes)

	if s.Images == nil {
		s.Images = []string{}
	}
	if s.ImagePublicIDs == nil {
		s.ImagePublicIDs = []string{}
	}
	return nil
}

// IsRead — производный признак прочтения: заявка прочитана, если ушла из new.
func (s *Submission) IsRead() bool {
	return s.Status != StatusNew
}

func nilIfBlank(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
