package task

import (
	"bytes"
	"encoding/json"
)

// Field отличает "поле не передано" от "поле передано как null".
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Present - значение передано и не null
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

type Patch struct {
	Title        Field[string]     `json:"title"`
	Description  Field[string]     `json:"description"`
	Type         Field[Type]       `json:"task_type"`
	Priority     Field[Priority]   `json:"priority"`
	Status       Field[Status]     `json:"status"`
	Category     Field[Category]   `json:"category"`
	DueDate      Field[string]     `json:"due_date"`
	DueTime      Field[string]     `json:"due_time"`
	RelatedCowID Field[string]     `json:"related_cow_id"`
	Recurrence   Field[Recurrence] `json:"recurrence"`
	Notes        Field[string]     `json:"notes"`
}

func (p Patch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Type.Set && !p.Priority.Set &&
		!p.Status.Set && !p.Category.Set && !p.DueDate.Set && !p.DueTime.Set &&
		!p.RelatedCowID.Set && !p.Recurrence.Set && !p.Notes.Set
}

// TouchesSchedule - меняется дата или время, due_datetime надо пересчитать
func (p Patch) TouchesSchedule() bool {
	return p.DueDate.Set || p.DueTime.Set
}
