package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"farmTracker/internal/logger"
	"farmTracker/internal/models/task"
	repo "farmTracker/internal/repository"

	"github.com/google/uuid"
)

type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.UUID]; ok {
		return repo.ErrDuplicate
	}

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	taskToCreate.IsActive = true
	taskToCreate.Version = 1

	s.storage[taskToCreate.UUID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

// Update пишет задачу только если версия совпадает с сохранённой
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != taskToUpdate.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	s.storage[taskToUpdate.UUID] = taskToUpdate.Clone()

	return nil
}

// GetByID видит только активные задачи своей фермы
func (s *TaskStorage) GetByID(ctx context.Context, farmID string, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok || !taskToGet.IsActive || taskToGet.FarmID != farmID {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

// мягкое удаление с изменением флага
func (s *TaskStorage) DeleteSoft(ctx context.Context, taskToDelete *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToDelete.UUID]
	if !ok || !existed.IsActive {
		return repo.ErrNotFound
	}
	if existed.Version != taskToDelete.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now()
	existed.IsActive = false
	existed.UpdatedAt = &now
	existed.Version++

	taskToDelete.IsActive = false
	taskToDelete.UpdatedAt = &now
	taskToDelete.Version = existed.Version
	return nil
}

func (s *TaskStorage) Find(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	position := make(map[uuid.UUID]int, len(s.ids))

	for i, id := range s.ids {
		t := s.storage[id]
		if !filter.Match(t) {
			continue
		}
		position[id] = i
		res = append(res, t.Clone())
	}

	sortTasks(res, filter.Order, position)

	if filter.Limit > 0 && len(res) > filter.Limit {
		res = res[:filter.Limit]
	}
	return res, nil
}

// задачи всех ферм, которые пора пометить просроченными
func (s *TaskStorage) GetTasksDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var tasks []*task.Task
	for _, id := range s.ids {
		if limit > 0 && len(tasks) >= limit {
			break
		}

		t := s.storage[id]
		if t.IsActive && t.IsStale(deadline) {
			tasks = append(tasks, t.Clone())
		}
	}

	return tasks, nil
}

func sortTasks(tasks []*task.Task, order task.Order, position map[uuid.UUID]int) {
	switch order {
	case task.OrderDueTimeAsc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return clockOf(tasks[i]) < clockOf(tasks[j])
		})
	case task.OrderDueAtAsc:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].DueAt, tasks[j].DueAt
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			return a.Before(*b)
		})
	case task.OrderDueDateAsc:
		sort.SliceStable(tasks, func(i, j int) bool {
			di, dj := dateOf(tasks[i]), dateOf(tasks[j])
			if di != dj {
				return di < dj
			}
			return clockOf(tasks[i]) < clockOf(tasks[j])
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
				return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
			}
			return position[tasks[i].UUID] > position[tasks[j].UUID]
		})
	}
}

// задача без времени считается назначенной на полночь
func clockOf(t *task.Task) string {
	if t.DueTime == nil {
		return "00:00"
	}
	return *t.DueTime
}

func dateOf(t *task.Task) string {
	if t.DueDate == nil {
		return ""
	}
	return *t.DueDate
}
