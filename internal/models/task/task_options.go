package task

import (
	"time"
)

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithType(taskType Type) TaskOption {
	return func(task *Task) {
		task.Type = taskType
	}
}

func WithPriority(priority Priority) TaskOption {
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithStatus(status Status) TaskOption {
	return func(task *Task) {
		task.Status = status
	}
}

func WithCategory(category Category) TaskOption {
	return func(task *Task) {
		task.Category = category
	}
}

func WithRecurrence(recurrence Recurrence) TaskOption {
	return func(task *Task) {
		task.Recurrence = recurrence
	}
}

func WithNotes(notes string) TaskOption {
	return func(task *Task) {
		task.Notes = notes
	}
}

// nil снимает привязку к корове
func WithRelatedCow(cowID *string) TaskOption {
	return func(task *Task) {
		task.RelatedCowID = cloneString(cowID)
	}
}

// WithSchedule выставляет дату, время и уже вычисленный due_datetime одной операцией
func WithSchedule(dueDate, dueTime *string, dueAt *time.Time) TaskOption {
	return func(task *Task) {
		task.DueDate = cloneString(dueDate)
		task.DueTime = cloneString(dueTime)
		task.DueAt = cloneTime(dueAt)
	}
}

func Apply(t *Task, options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}
