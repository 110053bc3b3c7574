package handlers

import (
	"context"

	"farmTracker/internal/auth"
	"farmTracker/internal/models/task"
	"farmTracker/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, actor auth.Actor, in service.CreateTaskInput) (*task.Task, error)
	GetTask(ctx context.Context, actor auth.Actor, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, actor auth.Actor, in service.ListTasksInput) ([]*task.Task, error)
	TodayTasks(ctx context.Context, actor auth.Actor) ([]*task.Task, error)
	OverdueTasks(ctx context.Context, actor auth.Actor) ([]*task.Task, error)
	UpdateTask(ctx context.Context, actor auth.Actor, id uuid.UUID, patch task.Patch) (*task.Task, error)
	CompleteTask(ctx context.Context, actor auth.Actor, id uuid.UUID, completionNotes *string) (*service.CompletionResult, error)
	DeleteTask(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	Statistics(ctx context.Context, actor auth.Actor) (*service.Statistics, error)
	Calendar(ctx context.Context, actor auth.Actor, startDate, endDate string) ([]service.CalendarDay, error)
}

type RegistrationService interface {
	Verify(ctx context.Context, actor auth.Actor, earTag, option string) (*service.VerifyResult, error)
	Confirm(ctx context.Context, actor auth.Actor, in service.ConfirmInput) (*service.ConfirmResult, error)
	Cancel(ctx context.Context, actor auth.Actor, verificationID string) error
	ListPending(ctx context.Context, actor auth.Actor) ([]service.PendingView, error)
	Status(ctx context.Context, actor auth.Actor, verificationID string) (*service.PendingView, error)
}

var (
	_ TaskService         = (*service.TaskService)(nil)
	_ RegistrationService = (*service.RegistrationService)(nil)
)
