package models

import "time"

// Task is a piece of farm work, optionally tied to a crop.
type Task struct {
	ID          int       `json:"Id" bson:"Id"`
	FarmID      int       `json:"farmId" bson:"farmId" validate:"gt=0"`
	CropID      *int      `json:"cropId" bson:"cropId"`
	Title       string    `json:"title" bson:"title" validate:"notblank"`
	Description string    `json:"description" bson:"description"`
	DueDate     time.Time `json:"dueDate" bson:"dueDate" validate:"required"`
	Priority    Priority  `json:"priority" bson:"priority" validate:"oneof=low medium high"`
	Completed   bool      `json:"completed" bson:"completed"`
}

func (t Task) RecordID() int { return t.ID }

func (t Task) WithID(id int) Task {
	t.ID = id
	t.CropID = cloneRef(t.CropID)
	return t
}

func (t Task) FarmRef() int { return t.FarmID }

// CropRef returns the crop foreign key or zero.
func (t Task) CropRef() int { return refValue(t.CropID) }

// DueOn reports whether the task's due date falls on the local calendar day of now.
func (t Task) DueOn(now time.Time) bool {
	return Today(t.DueDate).Equal(Today(now))
}

// Overdue reports whether the task is still open past its due time.
func (t Task) Overdue(now time.Time) bool {
	return !t.Completed && t.DueDate.Before(now)
}

// TaskInput carries the task form fields. A zero cropId clears the crop link.
type TaskInput struct {
	ID          *FlexInt   `json:"Id,omitempty"`
	FarmID      *FlexInt   `json:"farmId,omitempty"`
	CropID      *FlexInt   `json:"cropId,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// Build creates an open task; priority defaults to medium.
func (in TaskInput) Build(time.Time) Task {
	task := in.Apply(Task{Priority: PriorityMedium})
	task.Completed = false
	return task
}

// Apply merges the input over base.
func (in TaskInput) Apply(base Task) Task {
	base.CropID = cloneRef(base.CropID)
	if in.FarmID != nil && *in.FarmID != 0 {
		base.FarmID = int(*in.FarmID)
	}
	if in.CropID != nil {
		base.CropID = optionalRef(in.CropID)
	}
	if in.Title != nil {
		base.Title = *in.Title
	}
	if in.Description != nil {
		base.Description = *in.Description
	}
	if in.DueDate != nil {
		base.DueDate = in.DueDate.Time
	}
	if in.Priority != nil && *in.Priority != "" {
		base.Priority = *in.Priority
	}
	if in.Completed != nil {
		base.Completed = *in.Completed
	}
	return base
}
