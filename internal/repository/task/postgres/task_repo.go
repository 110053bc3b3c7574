package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmTracker/internal/logger"
	"farmTracker/internal/models/task"
	repo "farmTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const taskColumns = `
	uuid,
	farm_id,
	owner_id,
	title,
	description,
	task_type,
	priority,
	status,
	category,
	due_date,
	due_time,
	due_at,
	related_cow_id,
	auto_generated,
	recurrence,
	notes,
	completion_notes,
	completed_at,
	created_at,
	updated_at,
	version,
	is_active`

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	query := `INSERT INTO tasks (` + taskColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NULL, 1, TRUE)
				RETURNING version, is_active`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.FarmID,
		taskToCreate.OwnerID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Type,
		taskToCreate.Priority,
		taskToCreate.Status,
		taskToCreate.Category,
		taskToCreate.DueDate,
		taskToCreate.DueTime,
		taskToCreate.DueAt,
		taskToCreate.RelatedCowID,
		taskToCreate.AutoGenerated,
		taskToCreate.Recurrence,
		taskToCreate.Notes,
		taskToCreate.CompletionNotes,
		taskToCreate.CompletedAt,
		taskToCreate.CreatedAt,
	).Scan(&taskToCreate.Version, &taskToCreate.IsActive)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				task_type = $3,
				priority = $4,
				status = $5,
				category = $6,
				due_date = $7,
				due_time = $8,
				due_at = $9,
				related_cow_id = $10,
				recurrence = $11,
				notes = $12,
				completion_notes = $13,
				completed_at = $14,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $15 AND version = $16 AND is_active
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Type,
		taskToUpdate.Priority,
		taskToUpdate.Status,
		taskToUpdate.Category,
		taskToUpdate.DueDate,
		taskToUpdate.DueTime,
		taskToUpdate.DueAt,
		taskToUpdate.RelatedCowID,
		taskToUpdate.Recurrence,
		taskToUpdate.Notes,
		taskToUpdate.CompletionNotes,
		taskToUpdate.CompletedAt,
		taskToUpdate.UUID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.classifyMiss(ctx, taskToUpdate)
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// мягкое удаление задачи
func (s *Storage) DeleteSoft(ctx context.Context, taskToDelete *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
				SET is_active = FALSE,
				updated_at = NOW(),
				version = version + 1
			WHERE uuid = $1 AND version = $2 AND is_active
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query, taskToDelete.UUID, taskToDelete.Version).
		Scan(&taskToDelete.UpdatedAt, &taskToDelete.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.classifyMiss(ctx, taskToDelete)
		}
		logger.Error("Repository: Мягкое удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("мягкое удаление: %w", err)
	}

	taskToDelete.IsActive = false

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// classifyMiss различает отсутствующую задачу и конфликт версий
func (s *Storage) classifyMiss(ctx context.Context, t *task.Task) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE uuid = $1 AND is_active)`, t.UUID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("проверка существования задачи: %w", err)
	}
	if !exists {
		return repo.ErrNotFound
	}

	logger.Warn("Конфликт версий при обновлении задачи",
		zap.String("task_id", t.UUID.String()),
		zap.Int("expected_version", t.Version))
	return repo.ErrVersionConflict
}

func (s *Storage) GetByID(ctx context.Context, farmID string, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE uuid = $1 AND farm_id = $2 AND is_active`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id, farmID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

func (s *Storage) Find(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	start := time.Now()

	where, args := buildWhere(filter)
	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE ` + where + `
				ORDER BY ` + orderBy(filter.Order)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	tasks, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*time.Duration(len(tasks)) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}

func (s *Storage) GetTasksDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE is_active
				AND status IN ('pending', 'in_progress')
				AND due_at < $1
				ORDER BY due_at
				LIMIT $2`

	return s.queryTasks(ctx, query, deadline, limit)
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

func buildWhere(filter task.Filter) (string, []any) {
	conds := []string{"is_active"}
	args := []any{}

	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.FarmID != "" {
		add("farm_id = $%d", filter.FarmID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", statuses)
	}
	if filter.Priority != nil {
		add("priority = $%d", string(*filter.Priority))
	}
	if filter.Category != nil {
		add("category = $%d", string(*filter.Category))
	}
	if filter.CowID != nil {
		add("related_cow_id = $%d", *filter.CowID)
	}
	if filter.DueDate != nil {
		add("due_date = $%d", *filter.DueDate)
	}
	if filter.DueDateFrom != nil {
		add("due_date >= $%d", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		add("due_date <= $%d", *filter.DueDateTo)
	}
	if filter.DueBefore != nil {
		add("due_at < $%d", *filter.DueBefore)
	}

	return strings.Join(conds, " AND "), args
}

func orderBy(order task.Order) string {
	switch order {
	case task.OrderDueTimeAsc:
		return "COALESCE(due_time, '00:00') ASC, created_at ASC"
	case task.OrderDueAtAsc:
		return "due_at ASC NULLS LAST, created_at ASC"
	case task.OrderDueDateAsc:
		return "due_date ASC, COALESCE(due_time, '00:00') ASC"
	default:
		return "created_at DESC"
	}
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.FarmID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Type,
		&t.Priority,
		&t.Status,
		&t.Category,
		&t.DueDate,
		&t.DueTime,
		&t.DueAt,
		&t.RelatedCowID,
		&t.AutoGenerated,
		&t.Recurrence,
		&t.Notes,
		&t.CompletionNotes,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
		&t.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
