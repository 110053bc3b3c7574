package task

type Type string
type Priority string
type Status string
type Category string
type Recurrence string

const (
	TypePersonal    Type = "personal"
	TypeCowSpecific Type = "cow_specific"
	TypeFarmWide    Type = "farm_wide"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusOverdue    Status = "overdue"
)

const (
	CategoryMilking     Category = "milking"
	CategoryFeeding     Category = "feeding"
	CategoryTreatment   Category = "treatment"
	CategoryVaccination Category = "vaccination"
	CategoryBreeding    Category = "breeding"
	CategoryCalving     Category = "calving"
	CategoryHealthCheck Category = "health_check"
	CategoryCleaning    Category = "cleaning"
	CategoryMaintenance Category = "maintenance"
	CategoryGeneral     Category = "general"
)

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

var (
	Types      = []Type{TypePersonal, TypeCowSpecific, TypeFarmWide}
	Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	Statuses   = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusOverdue}
	Categories = []Category{
		CategoryMilking, CategoryFeeding, CategoryTreatment, CategoryVaccination, CategoryBreeding,
		CategoryCalving, CategoryHealthCheck, CategoryCleaning, CategoryMaintenance, CategoryGeneral,
	}
	Recurrences = []Recurrence{RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly}
)

func (t Type) Valid() bool {
	switch t {
	case TypePersonal, TypeCowSpecific, TypeFarmWide:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// IsHigh - high и urgent считаются вместе в статистике
func (p Priority) IsHigh() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusOverdue:
		return true
	}
	return false
}

// IsOpen - статусы, из которых задача может стать просроченной
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusInProgress
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition проверяет ручную смену статуса через update.
// completed достижим только через завершение задачи.
func (s Status) CanTransition(to Status) bool {
	if s == to {
		return true
	}
	switch s {
	case StatusPending:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCancelled
	case StatusOverdue:
		// в работу просроченную задачу возвращают только переносом срока
		return to == StatusCancelled
	default:
		return false
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryMilking, CategoryFeeding, CategoryTreatment, CategoryVaccination, CategoryBreeding,
		CategoryCalving, CategoryHealthCheck, CategoryCleaning, CategoryMaintenance, CategoryGeneral:
		return true
	}
	return false
}

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

func (r Recurrence) IsRecurring() bool {
	return r != RecurrenceNone && r != ""
}
