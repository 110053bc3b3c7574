package task

import (
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	MaxTitleLength = 200
)

type Task struct {
	UUID            uuid.UUID  `json:"id" db:"uuid"`
	FarmID          string     `json:"farm_id" db:"farm_id"`
	OwnerID         string     `json:"owner_id" db:"owner_id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	Type            Type       `json:"task_type" db:"task_type"`
	Priority        Priority   `json:"priority" db:"priority"`
	Status          Status     `json:"status" db:"status"`
	Category        Category   `json:"category" db:"category"`
	DueDate         *string    `json:"due_date,omitempty" db:"due_date"`
	DueTime         *string    `json:"due_time,omitempty" db:"due_time"`
	DueAt           *time.Time `json:"due_datetime,omitempty" db:"due_at"`
	RelatedCowID    *string    `json:"related_cow_id,omitempty" db:"related_cow_id"`
	AutoGenerated   bool       `json:"auto_generated" db:"auto_generated"`
	Recurrence      Recurrence `json:"recurrence" db:"recurrence"`
	Notes           string     `json:"notes" db:"notes"`
	CompletionNotes string     `json:"completion_notes,omitempty" db:"completion_notes"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
	Version         int        `json:"version" db:"version"`
	IsActive        bool       `json:"is_active" db:"is_active"`

	// не хранится, заполняется сервисом по related_cow_id
	RelatedCow *CowRef `json:"related_cow,omitempty" db:"-"`
}

type CowRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EarTagNumber string `json:"ear_tag_number"`
}

// Clone возвращает глубокую копию, чтобы хранилища не делили указатели с вызывающим кодом
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.DueDate = cloneString(t.DueDate)
	c.DueTime = cloneString(t.DueTime)
	c.RelatedCowID = cloneString(t.RelatedCowID)
	c.DueAt = cloneTime(t.DueAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.UpdatedAt = cloneTime(t.UpdatedAt)
	if t.RelatedCow != nil {
		ref := *t.RelatedCow
		c.RelatedCow = &ref
	}
	return &c
}

// IsStale сообщает, что задача просрочена, но ещё не помечена как overdue
func (t *Task) IsStale(now time.Time) bool {
	if t.DueAt == nil {
		return false
	}
	return t.Status.IsOpen() && t.DueAt.Before(now)
}

// ComputeDueAt собирает due_datetime из даты и времени; без времени берётся полночь.
func ComputeDueAt(dueDate, dueTime *string, loc *time.Location) (*time.Time, error) {
	if dueDate == nil {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	day, err := time.ParseInLocation(DateLayout, *dueDate, loc)
	if err != nil {
		return nil, err
	}

	if dueTime != nil {
		clock, err := time.Parse(TimeLayout, *dueTime)
		if err != nil {
			return nil, err
		}
		day = time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	}

	return &day, nil
}

func ValidDate(value string) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

func ValidTime(value string) bool {
	if len(value) != len(TimeLayout) {
		return false
	}
	_, err := time.Parse(TimeLayout, value)
	return err == nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
