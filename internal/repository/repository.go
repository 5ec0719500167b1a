// Package repository defines the entity store contract shared by the memory,
// remote and MongoDB backends, along with the failures they report.
package repository

import (
	"context"
	"time"

	"github.com/mamadbah2/farmboard/internal/domain/models"
)

// Store owns the collection of one entity type.
type Store[T models.Entity[T], I models.Input[T]] interface {
	// GetAll returns a copy of the collection.
	GetAll(ctx context.Context) ([]T, error)
	// GetByID fails with ErrNotFound when no record has the id.
	GetByID(ctx context.Context, id int) (T, error)
	// Create assigns a new Id and returns the stored copy.
	Create(ctx context.Context, in I) (T, error)
	// Update merges in over the stored record. The Id is never changed.
	Update(ctx context.Context, id int, in I) (T, error)
	// Delete removes the record; a nil error is the success indicator.
	Delete(ctx context.Context, id int) error
}

// FarmScopedStore is a store whose records reference a farm.
type FarmScopedStore[T models.Entity[T], I models.Input[T]] interface {
	Store[T, I]
	// GetByFarmID returns an empty slice, not an error, when nothing matches.
	GetByFarmID(ctx context.Context, farmID int) ([]T, error)
}

type (
	FarmStore    = Store[models.Farm, models.FarmInput]
	CropStore    = FarmScopedStore[models.Crop, models.CropInput]
	ExpenseStore = FarmScopedStore[models.Expense, models.ExpenseInput]
	IncomeStore  = Store[models.Income, models.IncomeInput]
)

// TaskStore adds the dashboard helpers on top of the task collection.
type TaskStore interface {
	FarmScopedStore[models.Task, models.TaskInput]
	// GetTodaysTasks returns tasks whose due date is the current local day.
	GetTodaysTasks(ctx context.Context) ([]models.Task, error)
	// ToggleComplete flips the completed flag and returns the updated task.
	ToggleComplete(ctx context.Context, id int) (models.Task, error)
}

// Stores groups the five entity stores selected at composition time.
type Stores struct {
	Farms    FarmStore
	Crops    CropStore
	Tasks    TaskStore
	Expenses ExpenseStore
	Income   IncomeStore
}

// NextID returns max(existing ids) + 1, or 1 for an empty collection.
func NextID[T models.Entity[T]](items []T) int {
	maxID := 0
	for _, item := range items {
		if id := item.RecordID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// ByFarm keeps the records referencing farmID. The result is never nil.
func ByFarm[T models.FarmOwned](items []T, farmID int) []T {
	out := make([]T, 0)
	for _, item := range items {
		if item.FarmRef() == farmID {
			out = append(out, item)
		}
	}
	return out
}

// DueToday keeps the tasks due on the local calendar day of now.
func DueToday(tasks []models.Task, now time.Time) []models.Task {
	out := make([]models.Task, 0)
	for _, task := range tasks {
		if task.DueOn(now) {
			out = append(out, task)
		}
	}
	return out
}

// Toggle flips a task's completion through the generic update path.
func Toggle(ctx context.Context, store Store[models.Task, models.TaskInput], id int) (models.Task, error) {
	task, err := store.GetByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	completed := !task.Completed
	return store.Update(ctx, id, models.TaskInput{Completed: &completed})
}
