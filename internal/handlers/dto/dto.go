package dto

import (
	"farmTracker/internal/models/task"
	"farmTracker/internal/service"
)

type CreateTaskRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TaskType     task.Type       `json:"task_type"`
	Priority     task.Priority   `json:"priority"`
	Category     task.Category   `json:"category"`
	DueDate      *string         `json:"due_date"`
	DueTime      *string         `json:"due_time"`
	RelatedCowID *string         `json:"related_cow_id"`
	Recurrence   task.Recurrence `json:"recurrence"`
	Notes        string          `json:"notes"`
}

func (r CreateTaskRequest) ToInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:        r.Title,
		Description:  r.Description,
		Type:         r.TaskType,
		Priority:     r.Priority,
		Category:     r.Category,
		DueDate:      r.DueDate,
		DueTime:      r.DueTime,
		RelatedCowID: r.RelatedCowID,
		Recurrence:   r.Recurrence,
		Notes:        r.Notes,
	}
}

type CompleteTaskRequest struct {
	CompletionNotes *string `json:"completion_notes"`
}

type VerifyRequest struct {
	EarTagNumber string `json:"ear_tag_number"`
	OptionNumber string `json:"option_number"`
}

type ConfirmRequest struct {
	VerificationID string  `json:"verification_id"`
	CustomName     *string `json:"custom_name"`
	UserNotes      *string `json:"user_notes"`
}

func (r ConfirmRequest) ToInput() service.ConfirmInput {
	return service.ConfirmInput{
		VerificationID: r.VerificationID,
		CustomName:     r.CustomName,
		Notes:          r.UserNotes,
	}
}

type CancelRequest struct {
	VerificationID string `json:"verification_id"`
}
