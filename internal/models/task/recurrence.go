package task

import (
	"fmt"
	"time"
)

// NextDueDate сдвигает дату на один шаг повторения.
// Для monthly и yearly день месяца прижимается к последнему дню короткого месяца
// (31.01 -> 28/29.02, 29.02 -> 28.02 следующего года).
// ok == false, если повторения нет.
func NextDueDate(dueDate string, recurrence Recurrence) (string, bool, error) {
	if !recurrence.IsRecurring() {
		return "", false, nil
	}

	day, err := time.Parse(DateLayout, dueDate)
	if err != nil {
		return "", false, fmt.Errorf("разбор даты %q: %w", dueDate, err)
	}

	var next time.Time
	switch recurrence {
	case RecurrenceDaily:
		next = day.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		next = day.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		next = AddMonthsClamped(day, 1)
	case RecurrenceYearly:
		next = AddMonthsClamped(day, 12)
	default:
		return "", false, fmt.Errorf("неизвестное повторение %q", recurrence)
	}

	return next.Format(DateLayout), true, nil
}

// AddMonthsClamped сдвигает дату на months месяцев, прижимая день к концу короткого месяца
func AddMonthsClamped(day time.Time, months int) time.Time {
	firstOfTarget := time.Date(day.Year(), day.Month()+time.Month(months), 1, 0, 0, 0, 0, day.Location())
	last := daysIn(firstOfTarget.Year(), firstOfTarget.Month())

	d := day.Day()
	if d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, day.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
