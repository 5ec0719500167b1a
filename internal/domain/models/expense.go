package models

import "time"

// Expense is money spent on behalf of a farm.
type Expense struct {
	ID          int             `json:"Id" bson:"Id"`
	FarmID      int             `json:"farmId" bson:"farmId" validate:"gt=0"`
	Amount      float64         `json:"amount" bson:"amount" validate:"gt=0"`
	Category    ExpenseCategory `json:"category" bson:"category" validate:"oneof=seeds fertilizer equipment labor fuel supplies maintenance insurance utilities other"`
	Description string          `json:"description" bson:"description" validate:"notblank"`
	Date        Date            `json:"date" bson:"date" validate:"required"`
}

func (e Expense) RecordID() int { return e.ID }

func (e Expense) WithID(id int) Expense {
	e.ID = id
	return e
}

func (e Expense) FarmRef() int { return e.FarmID }

func (e Expense) LedgerAmount() float64 { return e.Amount }
func (e Expense) LedgerCategory() string { return string(e.Category) }
func (e Expense) LedgerDate() Date { return e.Date }
func (e Expense) LedgerFarm() int { return e.FarmID }
func (e Expense) LedgerLabel() string { return e.Description }

// ExpenseInput carries the expense form fields.
type ExpenseInput struct {
	ID          *FlexInt         `json:"Id,omitempty"`
	FarmID      *FlexInt         `json:"farmId,omitempty"`
	Amount      *FlexFloat       `json:"amount,omitempty"`
	Category    *ExpenseCategory `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *Date            `json:"date,omitempty"`
}

// Build creates an expense.
func (in ExpenseInput) Build(time.Time) Expense {
	return in.Apply(Expense{})
}

// Apply merges the input over base. A zero amount in the input keeps the
// previous amount, matching how the form submits untouched fields.
func (in ExpenseInput) Apply(base Expense) Expense {
	if in.FarmID != nil && *in.FarmID != 0 {
		base.FarmID = int(*in.FarmID)
	}
	if in.Amount != nil && (*in.Amount != 0 || base.Amount == 0) {
		base.Amount = float64(*in.Amount)
	}
	if in.Category != nil {
		base.Category = *in.Category
	}
	if in.Description != nil {
		base.Description = *in.Description
	}
	if in.Date != nil {
		base.Date = *in.Date
	}
	return base
}
