package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"farmTracker/internal/auth"
	"farmTracker/internal/logger"
	"farmTracker/internal/models/task"
	repo "farmTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

const (
	resourceTask = "Задача"
	resourceCow  = "Корова"

	// календарь отдаёт не больше трёх месяцев за раз
	calendarMaxMonths = 3
)

type TaskService struct {
	repo TaskRepository
	cows CowRegistry
	settings
}

func NewTaskService(repo TaskRepository, cows CowRegistry, opts ...Option) *TaskService {
	return &TaskService{
		repo:     repo,
		cows:     cows,
		settings: newSettings(opts),
	}
}

type CreateTaskInput struct {
	Title        string
	Description  string
	Type         task.Type
	Priority     task.Priority
	Category     task.Category
	DueDate      *string
	DueTime      *string
	RelatedCowID *string
	Recurrence   task.Recurrence
	Notes        string
}

type ListTasksInput struct {
	Status   *task.Status
	Priority *task.Priority
	Category *task.Category
	CowID    *string
	Limit    int
}

type CompletionResult struct {
	Task *task.Task `json:"task"`
	Next *task.Task `json:"next_task,omitempty"`
}

type Statistics struct {
	Total          int                   `json:"total"`
	Pending        int                   `json:"pending"`
	InProgress     int                   `json:"in_progress"`
	Completed      int                   `json:"completed"`
	Cancelled      int                   `json:"cancelled"`
	Overdue        int                   `json:"overdue"`
	DueToday       int                   `json:"due_today"`
	HighPriority   int                   `json:"high_priority"`
	CompletionRate float64               `json:"completion_rate"`
	ByCategory     map[task.Category]int `json:"by_category"`
	ByPriority     map[task.Priority]int `json:"by_priority"`
}

type CalendarEntry struct {
	ID       uuid.UUID     `json:"id"`
	Title    string        `json:"title"`
	Status   task.Status   `json:"status"`
	Category task.Category `json:"category"`
	Priority task.Priority `json:"priority"`
	DueTime  *string       `json:"due_time,omitempty"`
}

type CalendarDay struct {
	Date  string          `json:"date"`
	Tasks []CalendarEntry `json:"tasks"`
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, actor auth.Actor, in CreateTaskInput) (*task.Task, error) {
	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, NewValidationError("task_type", "допустимо: personal, cow_specific, farm_wide")
	}

	priority := in.Priority
	if priority == "" {
		priority = task.PriorityMedium
	}
	if !priority.Valid() {
		return nil, NewValidationError("priority", "допустимо: low, medium, high, urgent")
	}

	category := in.Category
	if category == "" {
		category = task.CategoryGeneral
	}
	if !category.Valid() {
		return nil, NewValidationError("category", "неизвестная категория")
	}

	recurrence := in.Recurrence
	if recurrence == "" {
		recurrence = task.RecurrenceNone
	}
	if !recurrence.Valid() {
		return nil, NewValidationError("recurrence", "допустимо: none, daily, weekly, monthly, yearly")
	}

	if err := validateSchedule(in.DueDate, in.DueTime); err != nil {
		return nil, err
	}

	relatedCowID := trimOptional(in.RelatedCowID)
	if in.Type == task.TypeCowSpecific && relatedCowID == nil {
		return nil, NewValidationError("related_cow_id", "обязателен для задач типа cow_specific")
	}

	var cowRef *task.CowRef
	if relatedCowID != nil {
		ref, err := s.resolveCow(ctx, actor.FarmID, *relatedCowID)
		if err != nil {
			return nil, err
		}
		cowRef = ref
	}

	dueAt, err := task.ComputeDueAt(in.DueDate, in.DueTime, s.loc)
	if err != nil {
		return nil, NewValidationError("due_date", err.Error())
	}

	now := s.now()
	status := task.StatusPending
	if dueAt != nil && dueAt.Before(now) {
		status = task.StatusOverdue
	}

	newTask := &task.Task{
		UUID:      uuid.New(),
		FarmID:    actor.FarmID,
		OwnerID:   actor.UserID,
		CreatedAt: now,
	}
	task.Apply(newTask,
		task.WithTitle(title),
		task.WithDescription(in.Description),
		task.WithType(in.Type),
		task.WithPriority(priority),
		task.WithCategory(category),
		task.WithStatus(status),
		task.WithRecurrence(recurrence),
		task.WithNotes(in.Notes),
		task.WithRelatedCow(relatedCowID),
		task.WithSchedule(in.DueDate, in.DueTime, dueAt),
	)

	if err := s.repo.Create(ctx, newTask); err != nil {
		logger.Error("Service: Не удалось создать задачу", err, zap.String("farm_id", actor.FarmID))
		return nil, NewInternal("не удалось создать задачу", err)
	}

	newTask.RelatedCow = cowRef
	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.UUID.String()),
		zap.String("farm_id", newTask.FarmID),
		zap.String("status", string(newTask.Status)))
	return newTask, nil
}

func (s *TaskService) GetTask(ctx context.Context, actor auth.Actor, id uuid.UUID) (*task.Task, error) {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s.promoteStale(ctx, []*task.Task{t})
	s.attachCows(ctx, actor.FarmID, []*task.Task{t})
	return t, nil
}

// ListTasks читает задачи фермы и попутно переводит просроченные в overdue
func (s *TaskService) ListTasks(ctx context.Context, actor auth.Actor, in ListTasksInput) ([]*task.Task, error) {
	limit, err := normalizeLimit(in.Limit)
	if err != nil {
		return nil, err
	}

	filter := task.Filter{
		FarmID:   actor.FarmID,
		Priority: in.Priority,
		Category: in.Category,
		CowID:    trimOptional(in.CowID),
		Order:    task.OrderCreatedDesc,
		Limit:    limit,
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, NewValidationError("status", "неизвестный статус")
		}
		filter.Statuses = []task.Status{*in.Status}
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, NewValidationError("priority", "неизвестный приоритет")
	}
	if in.Category != nil && !in.Category.Valid() {
		return nil, NewValidationError("category", "неизвестная категория")
	}

	tasks, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, NewInternal("не удалось получить задачи", err)
	}

	s.promoteStale(ctx, tasks)
	s.attachCows(ctx, actor.FarmID, tasks)
	return tasks, nil
}

// TodayTasks - открытые задачи на сегодня по времени; без времени идут первыми
func (s *TaskService) TodayTasks(ctx context.Context, actor auth.Actor) ([]*task.Task, error) {
	today := s.today()
	tasks, err := s.repo.Find(ctx, task.Filter{
		FarmID:   actor.FarmID,
		DueDate:  &today,
		Statuses: []task.Status{task.StatusPending, task.StatusInProgress},
		Order:    task.OrderDueTimeAsc,
	})
	if err != nil {
		return nil, NewInternal("не удалось получить задачи на сегодня", err)
	}

	s.attachCows(ctx, actor.FarmID, tasks)
	return tasks, nil
}

// OverdueTasks - задачи со сроком раньше текущего момента, старые первыми
func (s *TaskService) OverdueTasks(ctx context.Context, actor auth.Actor) ([]*task.Task, error) {
	now := s.now()
	tasks, err := s.repo.Find(ctx, task.Filter{
		FarmID:    actor.FarmID,
		DueBefore: &now,
		Statuses:  []task.Status{task.StatusPending, task.StatusInProgress, task.StatusOverdue},
		Order:     task.OrderDueAtAsc,
	})
	if err != nil {
		return nil, NewInternal("не удалось получить просроченные задачи", err)
	}

	s.promoteStale(ctx, tasks)
	s.attachCows(ctx, actor.FarmID, tasks)
	return tasks, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, actor auth.Actor, id uuid.UUID, patch task.Patch) (*task.Task, error) {
	if patch.IsEmpty() {
		return nil, NewValidationError("body", "нет полей для обновления")
	}

	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	options, err := s.patchOptions(ctx, actor, t, patch)
	if err != nil {
		return nil, err
	}
	task.Apply(t, options...)

	if t.Type == task.TypeCowSpecific && t.RelatedCowID == nil {
		return nil, NewValidationError("related_cow_id", "обязателен для задач типа cow_specific")
	}

	s.rederiveOverdue(t)

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, s.writeError(err, id)
	}

	logger.Info("Service: Задача обновлена", zap.String("task_id", id.String()), zap.Int("version", t.Version))
	s.attachCows(ctx, actor.FarmID, []*task.Task{t})
	return t, nil
}

func (s *TaskService) patchOptions(ctx context.Context, actor auth.Actor, t *task.Task, patch task.Patch) ([]task.TaskOption, error) {
	var options []task.TaskOption
	base := t.Status

	if patch.Title.Set {
		title := strings.TrimSpace(patch.Title.Value)
		if patch.Title.Null {
			title = ""
		}
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		options = append(options, task.WithTitle(title))
	}
	if patch.Description.Set {
		options = append(options, task.WithDescription(patch.Description.Value))
	}
	if patch.Notes.Set {
		options = append(options, task.WithNotes(patch.Notes.Value))
	}
	if patch.Type.Set {
		if patch.Type.Null || !patch.Type.Value.Valid() {
			return nil, NewValidationError("task_type", "допустимо: personal, cow_specific, farm_wide")
		}
		options = append(options, task.WithType(patch.Type.Value))
	}
	if patch.Priority.Set {
		if patch.Priority.Null || !patch.Priority.Value.Valid() {
			return nil, NewValidationError("priority", "допустимо: low, medium, high, urgent")
		}
		options = append(options, task.WithPriority(patch.Priority.Value))
	}
	if patch.Category.Set {
		if patch.Category.Null || !patch.Category.Value.Valid() {
			return nil, NewValidationError("category", "неизвестная категория")
		}
		options = append(options, task.WithCategory(patch.Category.Value))
	}
	if patch.Recurrence.Set {
		if patch.Recurrence.Null || !patch.Recurrence.Value.Valid() {
			return nil, NewValidationError("recurrence", "допустимо: none, daily, weekly, monthly, yearly")
		}
		options = append(options, task.WithRecurrence(patch.Recurrence.Value))
	}

	if patch.RelatedCowID.Set {
		var cowID *string
		if patch.RelatedCowID.Present() {
			cowID = trimOptional(&patch.RelatedCowID.Value)
		}
		if cowID != nil {
			if _, err := s.resolveCow(ctx, actor.FarmID, *cowID); err != nil {
				return nil, err
			}
		}
		options = append(options, task.WithRelatedCow(cowID))
	}

	if patch.TouchesSchedule() {
		dueDate, dueTime := t.DueDate, t.DueTime
		if patch.DueDate.Set {
			dueDate = presentOrNil(patch.DueDate)
		}
		if patch.DueTime.Set {
			dueTime = presentOrNil(patch.DueTime)
		}
		if err := validateSchedule(dueDate, dueTime); err != nil {
			return nil, err
		}
		dueAt, err := task.ComputeDueAt(dueDate, dueTime, s.loc)
		if err != nil {
			return nil, NewValidationError("due_date", err.Error())
		}
		options = append(options, task.WithSchedule(dueDate, dueTime, dueAt))

		// перенос срока в будущее снимает overdue ещё до проверки перехода
		if base == task.StatusOverdue && (dueAt == nil || !dueAt.Before(s.now())) {
			base = task.StatusPending
		}
	}

	if patch.Status.Set {
		to := patch.Status.Value
		if patch.Status.Null || !to.Valid() {
			return nil, NewValidationError("status", "неизвестный статус")
		}
		if to == task.StatusCompleted && base != task.StatusCompleted {
			return nil, NewBusinessError(CodeInvalidTransition, "Задача завершается только через complete",
				ToDetail("from", base), ToDetail("to", to))
		}
		if !base.CanTransition(to) {
			return nil, NewBusinessError(CodeInvalidTransition,
				fmt.Sprintf("Нельзя перевести задачу из %s в %s", base, to),
				ToDetail("from", base), ToDetail("to", to))
		}
		options = append(options, task.WithStatus(to))
	}

	return options, nil
}

// rederiveOverdue держит overdue производным от срока: просроченная открытая задача
// становится overdue, а overdue со сроком в будущем возвращается в pending
func (s *TaskService) rederiveOverdue(t *task.Task) {
	now := s.now()
	switch {
	case t.IsStale(now):
		t.Status = task.StatusOverdue
	case t.Status == task.StatusOverdue && (t.DueAt == nil || !t.DueAt.Before(now)):
		t.Status = task.StatusPending
	}
}

// CompleteTask завершает задачу и для повторяющейся создаёт следующую.
// Повторное завершение - ошибка ALREADY_COMPLETED, а не тихий успех.
func (s *TaskService) CompleteTask(ctx context.Context, actor auth.Actor, id uuid.UUID, completionNotes *string) (*CompletionResult, error) {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := checkCompletable(t); err != nil {
		return nil, err
	}

	now := s.now()
	t.Status = task.StatusCompleted
	t.CompletedAt = &now
	if completionNotes != nil {
		t.CompletionNotes = *completionNotes
	}

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			// проигравший в гонке видит уже завершённую задачу
			if current, loadErr := s.load(ctx, actor, id); loadErr == nil {
				if checkErr := checkCompletable(current); checkErr != nil {
					return nil, checkErr
				}
			}
		}
		return nil, s.writeError(err, id)
	}

	logger.Info("Service: Задача завершена", zap.String("task_id", id.String()), zap.String("farm_id", t.FarmID))

	result := &CompletionResult{Task: t}
	next, err := s.spawnSuccessor(ctx, t)
	if err != nil {
		logger.Error("Service: Не удалось создать следующую задачу", err, zap.String("task_id", id.String()))
		return nil, NewInternal("задача завершена, но следующая не создана", err)
	}
	result.Next = next

	s.attachCows(ctx, actor.FarmID, []*task.Task{t, next})
	return result, nil
}

func checkCompletable(t *task.Task) error {
	switch t.Status {
	case task.StatusCompleted:
		return NewConflict(CodeAlreadyCompleted, "Задача уже завершена", ToDetail("id", t.UUID.String()))
	case task.StatusCancelled:
		return NewBusinessError(CodeInvalidTransition, "Отменённую задачу нельзя завершить",
			ToDetail("from", t.Status), ToDetail("to", task.StatusCompleted))
	}
	return nil
}

// spawnSuccessor шагает от due_date текущей задачи, а не от сегодняшнего дня.
// Задача без даты не порождает следующую.
func (s *TaskService) spawnSuccessor(ctx context.Context, completed *task.Task) (*task.Task, error) {
	if !completed.Recurrence.IsRecurring() {
		return nil, nil
	}
	if completed.DueDate == nil {
		logger.Info("Service: Повторяющаяся задача без даты не порождает следующую",
			zap.String("task_id", completed.UUID.String()))
		return nil, nil
	}

	nextDate, ok, err := task.NextDueDate(*completed.DueDate, completed.Recurrence)
	if err != nil || !ok {
		return nil, err
	}

	dueAt, err := task.ComputeDueAt(&nextDate, completed.DueTime, s.loc)
	if err != nil {
		return nil, err
	}

	now := s.now()
	status := task.StatusPending
	if dueAt != nil && dueAt.Before(now) {
		status = task.StatusOverdue
	}

	next := &task.Task{
		UUID:          uuid.New(),
		FarmID:        completed.FarmID,
		OwnerID:       completed.OwnerID,
		AutoGenerated: true,
		CreatedAt:     now,
	}
	task.Apply(next,
		task.WithTitle(completed.Title),
		task.WithDescription(completed.Description),
		task.WithType(completed.Type),
		task.WithPriority(completed.Priority),
		task.WithCategory(completed.Category),
		task.WithStatus(status),
		task.WithRecurrence(completed.Recurrence),
		task.WithNotes(completed.Notes),
		task.WithRelatedCow(completed.RelatedCowID),
		task.WithSchedule(&nextDate, completed.DueTime, dueAt),
	)

	if err := s.repo.Create(ctx, next); err != nil {
		return nil, err
	}

	logger.Info("Service: Создана следующая повторяющаяся задача",
		zap.String("task_id", next.UUID.String()),
		zap.String("previous_id", completed.UUID.String()),
		zap.String("due_date", nextDate))
	return next, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	t, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteSoft(ctx, t); err != nil {
		return s.writeError(err, id)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

func (s *TaskService) Statistics(ctx context.Context, actor auth.Actor) (*Statistics, error) {
	tasks, err := s.repo.Find(ctx, task.Filter{FarmID: actor.FarmID})
	if err != nil {
		return nil, NewInternal("не удалось получить задачи", err)
	}
	s.promoteStale(ctx, tasks)

	today := s.today()
	stats := &Statistics{
		Total:      len(tasks),
		ByCategory: make(map[task.Category]int),
		ByPriority: make(map[task.Priority]int),
	}

	for _, t := range tasks {
		switch t.Status {
		case task.StatusPending:
			stats.Pending++
		case task.StatusInProgress:
			stats.InProgress++
		case task.StatusCompleted:
			stats.Completed++
		case task.StatusCancelled:
			stats.Cancelled++
		case task.StatusOverdue:
			stats.Overdue++
		}
		if t.DueDate != nil && *t.DueDate == today {
			stats.DueToday++
		}
		if t.Priority.IsHigh() {
			stats.HighPriority++
		}
		stats.ByCategory[t.Category]++
		stats.ByPriority[t.Priority]++
	}

	if stats.Total > 0 {
		rate := float64(stats.Completed) / float64(stats.Total) * 100
		stats.CompletionRate = math.Round(rate*10) / 10
	}
	return stats, nil
}

// Calendar группирует задачи по дате; диапазон включительный и не длиннее трёх месяцев
func (s *TaskService) Calendar(ctx context.Context, actor auth.Actor, startDate, endDate string) ([]CalendarDay, error) {
	start, err := time.Parse(task.DateLayout, startDate)
	if err != nil {
		return nil, NewValidationError("start_date", "ожидается YYYY-MM-DD")
	}
	end, err := time.Parse(task.DateLayout, endDate)
	if err != nil {
		return nil, NewValidationError("end_date", "ожидается YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, NewValidationError("end_date", "раньше start_date")
	}
	if end.After(task.AddMonthsClamped(start, calendarMaxMonths)) {
		return nil, NewValidationError("end_date", "диапазон не больше трёх месяцев")
	}

	tasks, err := s.repo.Find(ctx, task.Filter{
		FarmID:      actor.FarmID,
		DueDateFrom: &startDate,
		DueDateTo:   &endDate,
		Order:       task.OrderDueDateAsc,
	})
	if err != nil {
		return nil, NewInternal("не удалось получить задачи календаря", err)
	}
	s.promoteStale(ctx, tasks)

	days := []CalendarDay{}
	for _, t := range tasks {
		date := *t.DueDate
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, CalendarDay{Date: date, Tasks: []CalendarEntry{}})
		}
		day := &days[len(days)-1]
		day.Tasks = append(day.Tasks, CalendarEntry{
			ID:       t.UUID,
			Title:    t.Title,
			Status:   t.Status,
			Category: t.Category,
			Priority: t.Priority,
			DueTime:  t.DueTime,
		})
	}
	return days, nil
}

// PromoteOverdue - пакетная пометка просроченных задач всех ферм для фонового обхода
func (s *TaskService) PromoteOverdue(ctx context.Context, limit int) (int, error) {
	tasks, err := s.repo.GetTasksDueBefore(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("получение просроченных задач: %w", err)
	}
	return s.promoteStale(ctx, tasks), nil
}

// promoteStale сохраняет статус overdue; ошибки записи только логируются,
// вызывающий всё равно видит задачу просроченной
func (s *TaskService) promoteStale(ctx context.Context, tasks []*task.Task) int {
	now := s.now()
	promoted := 0

	for _, t := range tasks {
		if t == nil || !t.IsStale(now) {
			continue
		}

		t.Status = task.StatusOverdue
		if err := s.repo.Update(ctx, t); err != nil {
			logger.Warn("Service: Не удалось пометить задачу просроченной",
				zap.String("task_id", t.UUID.String()), zap.Error(err))
			continue
		}
		promoted++
	}

	if promoted > 0 {
		logger.Info("Service: Задачи помечены просроченными", zap.Int("count", promoted))
	}
	return promoted
}

func (s *TaskService) load(ctx context.Context, actor auth.Actor, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, actor.FarmID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(resourceTask, id.String())
		}
		return nil, NewInternal("не удалось получить задачу", err)
	}
	return t, nil
}

func (s *TaskService) writeError(err error, id uuid.UUID) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return NewNotFound(resourceTask, id.String())
	case errors.Is(err, repo.ErrVersionConflict):
		return NewConflict(CodeVersionConflict, "Задача изменена параллельно, повторите запрос",
			ToDetail("id", id.String()))
	default:
		logger.Error("Service: Ошибка записи задачи", err, zap.String("task_id", id.String()))
		return NewInternal("не удалось сохранить задачу", err)
	}
}

func (s *TaskService) resolveCow(ctx context.Context, farmID, cowID string) (*task.CowRef, error) {
	c, err := s.cows.GetActiveByID(ctx, farmID, cowID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewBusinessError(CodeCowNotFound, fmt.Sprintf("%s %s не найдена", resourceCow, cowID),
				ToDetail("cow_id", cowID))
		}
		return nil, NewInternal("не удалось получить корову", err)
	}
	return &task.CowRef{ID: c.ID, Name: c.Name, EarTagNumber: c.EarTagNumber}, nil
}

// attachCows заполняет отображаемые поля коровы; пропавшая корова просто не показывается
func (s *TaskService) attachCows(ctx context.Context, farmID string, tasks []*task.Task) {
	seen := make(map[string]*task.CowRef)
	for _, t := range tasks {
		if t == nil || t.RelatedCowID == nil {
			continue
		}
		cowID := *t.RelatedCowID
		ref, ok := seen[cowID]
		if !ok {
			resolved, err := s.resolveCow(ctx, farmID, cowID)
			if err != nil {
				logger.Debug("Service: Корова задачи не найдена", zap.String("cow_id", cowID))
			}
			ref = resolved
			seen[cowID] = ref
		}
		if ref != nil {
			cp := *ref
			t.RelatedCow = &cp
		}
	}
}

func (s *TaskService) today() string {
	return s.now().In(s.loc).Format(task.DateLayout)
}

func validateTitle(title string) error {
	if title == "" {
		return NewValidationError("title", "не может быть пустым")
	}
	if utf8.RuneCountInString(title) > task.MaxTitleLength {
		return NewValidationError("title", fmt.Sprintf("не длиннее %d символов", task.MaxTitleLength))
	}
	return nil
}

func validateSchedule(dueDate, dueTime *string) error {
	if dueDate != nil && !task.ValidDate(*dueDate) {
		return NewValidationError("due_date", "ожидается YYYY-MM-DD")
	}
	if dueTime != nil && !task.ValidTime(*dueTime) {
		return NewValidationError("due_time", "ожидается HH:MM")
	}
	return nil
}

func normalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultListLimit, nil
	}
	if limit < 1 || limit > MaxListLimit {
		return 0, NewValidationError("limit", fmt.Sprintf("от 1 до %d", MaxListLimit))
	}
	return limit, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func presentOrNil(field task.Field[string]) *string {
	if !field.Present() {
		return nil
	}
	v := field.Value
	return &v
}
