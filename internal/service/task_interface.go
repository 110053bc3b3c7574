package service

import (
	"context"
	"time"

	"farmTracker/internal/models/cow"
	"farmTracker/internal/models/task"
	"farmTracker/internal/models/verification"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, farmID string, id uuid.UUID) (*task.Task, error)
	DeleteSoft(ctx context.Context, t *task.Task) error
	Find(ctx context.Context, filter task.Filter) ([]*task.Task, error)
	GetTasksDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error)
}

// CowRegistry - реестр коров; уникальность активной бирки гарантирует хранилище
type CowRegistry interface {
	Create(ctx context.Context, c *cow.Cow) error
	GetActiveByID(ctx context.Context, farmID, id string) (*cow.Cow, error)
	FindActiveByEarTag(ctx context.Context, earTag string) (*cow.Cow, error)
}

// HoldStore хранит временные заявки на регистрацию.
// Take обязан быть атомарным: из конкурирующих вызовов запись получает только один.
type HoldStore interface {
	Put(ctx context.Context, hold *verification.Pending) error
	Get(ctx context.Context, id string) (*verification.Pending, error)
	Take(ctx context.Context, id string) (*verification.Pending, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, userID string) ([]*verification.Pending, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type TraceLookuper interface {
	Lookup(ctx context.Context, earTag, option string) ([]cow.Record, error)
}
