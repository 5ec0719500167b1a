// Package filter narrows and orders composed collections for a page's current
// UI state. Every function is pure and returns a new slice.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/farmboard/internal/domain/models"
)

// TaskStatus selects tasks by completion state.
type TaskStatus string

const (
	TaskStatusAll       TaskStatus = "all"
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusOverdue   TaskStatus = "overdue"
	TaskStatusToday     TaskStatus = "today"
)

// AllCategories is the select value meaning "no category filter".
const AllCategories = "all"

// Criteria holds the recognized filter keys. Zero values match everything.
type Criteria struct {
	FarmID     int               `form:"farmId" json:"farmId,omitempty"`
	Status     models.CropStatus `form:"status" json:"status,omitempty"`
	Priority   models.Priority   `form:"priority" json:"priority,omitempty"`
	TaskStatus TaskStatus        `form:"taskStatus" json:"taskStatus,omitempty"`
	Category   string            `form:"category" json:"category,omitempty"`
	SearchTerm string            `form:"search" json:"searchTerm,omitempty"`
}

func (c Criteria) farm(id int) bool {
	return c.FarmID == 0 || c.FarmID == id
}

func (c Criteria) category(value string) bool {
	return c.Category == "" || c.Category == AllCategories || c.Category == value
}

func keep[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Crops applies the farm and status filters.
func Crops(crops []models.CropView, c Criteria) []models.CropView {
	return keep(crops, func(v models.CropView) bool {
		return c.farm(v.FarmID) && (c.Status == "" || v.Status == c.Status)
	})
}

// Tasks applies the farm, priority and task status filters.
func Tasks(tasks []models.TaskView, c Criteria, now time.Time) []models.TaskView {
	return keep(tasks, func(v models.TaskView) bool {
		return c.farm(v.FarmID) &&
			(c.Priority == "" || v.Priority == c.Priority) &&
			MatchTaskStatus(v.Task, c.TaskStatus, now)
	})
}

// MatchTaskStatus reports whether task falls under status at now.
func MatchTaskStatus(task models.Task, status TaskStatus, now time.Time) bool {
	switch status {
	case TaskStatusPending:
		return !task.Completed
	case TaskStatusCompleted:
		return task.Completed
	case TaskStatusOverdue:
		return task.Overdue(now)
	case TaskStatusToday:
		return task.DueOn(now)
	default:
		return true
	}
}

// Expenses applies the farm and category filters.
func Expenses(expenses []models.ExpenseView, c Criteria) []models.ExpenseView {
	return keep(expenses, func(v models.ExpenseView) bool {
		return c.farm(v.FarmID) && c.category(string(v.Category))
	})
}

// Income applies the category filter and the case-insensitive search over
// source and description.
func Income(income []models.IncomeView, c Criteria) []models.IncomeView {
	term := strings.ToLower(c.SearchTerm)
	return keep(income, func(v models.IncomeView) bool {
		if !c.category(string(v.Category)) {
			return false
		}
		return term == "" ||
			strings.Contains(strings.ToLower(v.Source), term) ||
			strings.Contains(strings.ToLower(v.Description), term)
	})
}

// SortTasks puts open overdue tasks first, then tasks due today, then orders
// by ascending due date. Both flags apply in turn, so among overdue tasks the
// ones due today come first. The sort is stable.
func SortTasks(tasks []models.TaskView, now time.Time) []models.TaskView {
	out := append([]models.TaskView(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Task, out[j].Task
		if oa, ob := a.Overdue(now), b.Overdue(now); oa != ob {
			return oa
		}
		if ta, tb := a.DueOn(now), b.DueOn(now); ta != tb {
			return ta
		}
		return a.DueDate.Before(b.DueDate)
	})
	return out
}

// SortKey selects the ledger sort field.
type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByAmount   SortKey = "amount"
	SortBySource   SortKey = "source"
	SortByCategory SortKey = "category"
)

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort is the toggleable ledger ordering. The zero value sorts by date,
// most recent first.
type Sort struct {
	Key   SortKey `form:"sortBy" json:"sortBy,omitempty"`
	Order Order   `form:"sortOrder" json:"sortOrder,omitempty"`
}

// Toggle flips the direction when key is already selected; otherwise it
// selects key and keeps the current direction.
func (s Sort) Toggle(key SortKey) Sort {
	current := s.normalized()
	if current.Key != key {
		return Sort{Key: key, Order: current.Order}
	}
	if current.Order == Asc {
		return Sort{Key: key, Order: Desc}
	}
	return Sort{Key: key, Order: Asc}
}

func (s Sort) normalized() Sort {
	if s.Key == "" {
		s.Key = SortByDate
	}
	if s.Order != Asc {
		s.Order = Desc
	}
	return s
}

// SortLedger orders expenses or income by s. Ties keep their input order.
func SortLedger[V models.LedgerEntry](items []V, s Sort) []V {
	s = s.normalized()
	out := append([]V(nil), items...)
	less := func(a, b V) bool {
		switch s.Key {
		case SortByAmount:
			return a.LedgerAmount() < b.LedgerAmount()
		case SortBySource:
			return a.LedgerLabel() < b.LedgerLabel()
		case SortByCategory:
			return a.LedgerCategory() < b.LedgerCategory()
		default:
			return a.LedgerDate().Before(b.LedgerDate().Time)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if s.Order == Asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}
