package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
)

// SubmissionRepository — интерфейс доступа к таблице submissions.
type SubmissionRepository interface {
	// Create сохраняет новую заявку со статусом new.
	Create(ctx context.Context, s *model.Submission) error
	// GetByID возвращает заявку по ID.
	GetByID(ctx context.Context, id int64) (*model.Submission, error)
	// List возвращает заявки, новые первыми. status == nil — все статусы.
	List(ctx context.Context, status *model.Status) ([]*model.Submission, error)
	// ListRecent возвращает limit последних заявок.
	ListRecent(ctx context.Context, limit int) ([]*model.Submission, error)
	// GetManyByIDs возвращает существующие заявки из набора ids.
	GetManyByIDs(ctx context.Context, ids []int64) ([]*model.Submission, error)
	// UpdateStatus меняет статус одной заявки.
	UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.Submission, error)
	// UpdateManyStatus меняет статус всех заявок, подходящих под фильтр.
	UpdateManyStatus(ctx context.Context, filter SubmissionFilter, status model.Status) (int, error)
	// UpdateNotes меняет заметки администратора.
	UpdateNotes(ctx context.Context, id int64, notes *string) (*model.Submission, error)
	// DeleteByID удаляет заявку и возвращает её содержимое до удаления.
	DeleteByID(ctx context.Context, id int64) (*model.Submission, error)
	// DeleteByIDs удаляет заявки по одной и возвращает удалённые.
	DeleteByIDs(ctx context.Context, ids []int64) ([]*model.Submission, error)
	// CountByStatus возвращает количество заявок в каждом статусе.
	CountByStatus(ctx context.Context) (map[model.Status]int, error)
}

// SubmissionFilter — условие для массового обновления статуса.
// Пустой фильтр запрещён, чтобы случайно не обновить всю таблицу.
type SubmissionFilter struct {
	// IDs — ограничение по идентификаторам (nil — без ограничения)
	IDs []int64
	// FromStatus — обновлять только заявки в этом статусе
	FromStatus *model.Status
}

// ErrEmptyFilter — фильтр не задаёт ни одного условия.
var ErrEmptyFilter = errors.New("пустой фильтр массового обновления")

const submissionColumns = `id, name, address, service, area, budget, details,
	images, image_public_ids, status, notes, created_at, updated_at`

type submissionRepo struct {
	db DBTX
}

// NewSubmissionRepository создаёт репозиторий заявок.
func NewSubmissionRepository(db DBTX) SubmissionRepository {
	return &submissionRepo{db: db}
}

func scanSubmission(row pgx.Row) (*model.Submission, error) {
	s := &model.Submission{}
	var status string
	err := row.Scan(
		&s.ID, &s.Name, &s.Address, &s.Service, &s.Area, &s.Budget, &s.Details,
		&s.Images, &s.ImagePublicIDs, &status, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = model.Status(status)
	return s, nil
}

func collectSubmissions(rows pgx.Rows) ([]*model.Submission, error) {
	defer rows.Close()

	result := make([]*model.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *submissionRepo) Create(ctx context.Context, s *model.Submission) error {
	query := `
		INSERT INTO submissions (name, address, service, area, budget, details,
			images, image_public_ids, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	s.Status = model.StatusNew
	images := s.Images
	if images == nil {
		images = []string{}
	}
	publicIDs := s.ImagePublicIDs
	if publicIDs == nil {
		publicIDs = []string{}
	}

	err := r.db.QueryRow(ctx, query,
		s.Name, s.Address, s.Service, s.Area, s.Budget, s.Details,
		images, publicIDs, string(s.Status), s.Notes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return fmt.Errorf("ошибка создания заявки: %w", err)
	}
	s.Images, s.ImagePublicIDs = images, publicIDs
	return nil
}

func (r *submissionRepo) GetByID(ctx context.Context, id int64) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	s, err := scanSubmission(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения заявки: %w", err)
	}
	return s, nil
}

func (r *submissionRepo) List(ctx context.Context, status *model.Status) ([]*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	return collectSubmissions(rows)
}

func (r *submissionRepo) ListRecent(ctx context.Context, limit int) ([]*model.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения последних заявок: %w", err)
	}
	return collectSubmissions(rows)
}

func (r *submissionRepo) GetManyByIDs(ctx context.Context, ids []int64) ([]*model.Submission, error) {
	if len(ids) == 0 {
		return []*model.Submission{}, nil
	}

	query := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE id = ANY($1)
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок по списку id: %w", err)
	}
	return collectSubmissions(rows)
}

// UpdateStatus — атомарный UPDATE ... RETURNING: отсутствие строки даёт ErrNotFound,
// без отдельного SELECT перед записью.
func (r *submissionRepo) UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.Submission, error) {
	query := `
		UPDATE submissions
		SET status = $2, updated_at = clock_timestamp()
		WHERE id = $1
		RETURNING ` + submissionColumns

	s, err := scanSubmission(r.db.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления статуса заявки: %w", err)
	}
	return s, nil
}

// buildSubmissionWhere строит WHERE-условие для массового обновления.
func buildSubmissionWhere(filter SubmissionFilter, startArg int) (string, []any) {
	var conditions []string
	var args []any
	argNum := startArg

	if filter.IDs != nil {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", argNum))
		args = append(args, filter.IDs)
		argNum++
	}
	if filter.FromStatus != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, string(*filter.FromStatus))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *submissionRepo) UpdateManyStatus(ctx context.Context, filter SubmissionFilter, status model.Status) (int, error) {
	if filter.IDs == nil && filter.FromStatus == nil {
		return 0, ErrEmptyFilter
	}
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return 0, nil
	}

	where, args := buildSubmissionWhere(filter, 2)
	query := `UPDATE submissions SET status = $1, updated_at = clock_timestamp() ` + where

	tag, err := r.db.Exec(ctx, query, append([]any{string(status)}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("ошибка массового обновления статуса: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *submissionRepo) UpdateNotes(ctx context.Context, id int64, notes *string) (*model.Submission, error) {
	query := `
		UPDATE submissions
		SET notes = $2, updated_at = clock_timestamp()
		WHERE id = $1
		RETURNING ` + submissionColumns

	s, err := scanSubmission(r.db.QueryRow(ctx, query, id, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления заметок заявки: %w", err)
	}
	return s, nil
}

func (r *submissionRepo) DeleteByID(ctx context.Context, id int64) (*model.Submission, error) {
	query := `DELETE FROM submissions WHERE id = $1 RETURNING ` + submissionColumns

	s, err := scanSubmission(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка удаления заявки: %w", err)
	}
	return s, nil
}

// DeleteByIDs удаляет заявки независимыми операциями, без общей транзакции.
// Заявки, исчезнувшие к моменту удаления, пропускаются. При ошибке БД
// возвращаются уже удалённые заявки вместе с ошибкой.
func (r *submissionRepo) DeleteByIDs(ctx context.Context, ids []int64) ([]*model.Submission, error) {
	deleted := make([]*model.Submission, 0, len(ids))
	for _, id := range ids {
		s, err := r.DeleteByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return deleted, fmt.Errorf("заявка %d: %w", id, err)
		}
		deleted = append(deleted, s)
	}
	return deleted, nil
}

func (r *submissionRepo) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM submissions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта заявок: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Status]int, 3)
	for _, st := range model.Statuses() {
		counts[st] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("ошибка сканирования счётчика: %w", err)
		}
		counts[model.Status(status)] = n
	}
	return counts, rows.Err()
}
