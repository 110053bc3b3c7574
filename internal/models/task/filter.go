package task

import "time"

type Order int

const (
	OrderCreatedDesc Order = iota
	OrderDueTimeAsc
	OrderDueAtAsc
	OrderDueDateAsc
)

// Filter - условия выборки, все заданные поля объединяются через AND.
// Мягко удалённые задачи не попадают ни в одну выборку.
type Filter struct {
	FarmID      string
	Statuses    []Status
	Priority    *Priority
	Category    *Category
	CowID       *string
	DueDate     *string
	DueDateFrom *string
	DueDateTo   *string
	DueBefore   *time.Time
	Order       Order
	Limit       int
}

func (f Filter) Match(t *Task) bool {
	if !t.IsActive {
		return false
	}
	if f.FarmID != "" && t.FarmID != f.FarmID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.CowID != nil && (t.RelatedCowID == nil || *t.RelatedCowID != *f.CowID) {
		return false
	}
	if f.DueDate != nil && (t.DueDate == nil || *t.DueDate != *f.DueDate) {
		return false
	}
	if f.DueDateFrom != nil && (t.DueDate == nil || *t.DueDate < *f.DueDateFrom) {
		return false
	}
	if f.DueDateTo != nil && (t.DueDate == nil || *t.DueDate > *f.DueDateTo) {
		return false
	}
	if f.DueBefore != nil && (t.DueAt == nil || !t.DueAt.Before(*f.DueBefore)) {
		return false
	}
	return true
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
