package models

import "time"

// Income is money received, optionally attributed to a farm and a crop.
type Income struct {
	ID          int            `json:"Id" bson:"Id"`
	FarmID      *int           `json:"farmId" bson:"farmId"`
	CropID      *int           `json:"cropId" bson:"cropId"`
	Source      string         `json:"source" bson:"source" validate:"notblank"`
	Description string         `json:"description" bson:"description"`
	Amount      float64        `json:"amount" bson:"amount" validate:"gt=0"`
	Category    IncomeCategory `json:"category" bson:"category" validate:"oneof=sales market contract direct wholesale other"`
	Date        Date           `json:"date" bson:"date" validate:"required"`
}

func (i Income) RecordID() int { return i.ID }

func (i Income) WithID(id int) Income {
	i.ID = id
	i.FarmID = cloneRef(i.FarmID)
	i.CropID = cloneRef(i.CropID)
	return i
}

// FarmRef returns the farm foreign key or zero when the income is unattributed.
func (i Income) FarmRef() int { return refValue(i.FarmID) }

// CropRef returns the crop foreign key or zero.
func (i Income) CropRef() int { return refValue(i.CropID) }

func (i Income) LedgerAmount() float64 { return i.Amount }
func (i Income) LedgerCategory() string { return string(i.Category) }
func (i Income) LedgerDate() Date { return i.Date }
func (i Income) LedgerFarm() int { return refValue(i.FarmID) }
func (i Income) LedgerLabel() string { return i.Source }

// IncomeInput carries the income form fields. Zero farm/crop ids clear the link.
type IncomeInput struct {
	ID          *FlexInt        `json:"Id,omitempty"`
	FarmID      *FlexInt        `json:"farmId,omitempty"`
	CropID      *FlexInt        `json:"cropId,omitempty"`
	Source      *string         `json:"source,omitempty"`
	Description *string         `json:"description,omitempty"`
	Amount      *FlexFloat      `json:"amount,omitempty"`
	Category    *IncomeCategory `json:"category,omitempty"`
	Date        *Date           `json:"date,omitempty"`
}

// Build creates an income record dated today unless a date was given.
func (in IncomeInput) Build(now time.Time) Income {
	income := in.Apply(Income{Category: IncomeSales})
	if income.Date.IsZero() {
		income.Date = Today(now)
	}
	return income
}

// Apply merges the input over base. A zero amount keeps the previous amount.
func (in IncomeInput) Apply(base Income) Income {
	base.FarmID = cloneRef(base.FarmID)
	base.CropID = cloneRef(base.CropID)
	if in.FarmID != nil {
		base.FarmID = optionalRef(in.FarmID)
	}
	if in.CropID != nil {
		base.CropID = optionalRef(in.CropID)
	}
	if in.Source != nil {
		base.Source = *in.Source
	}
	if in.Description != nil {
		base.Description = *in.Description
	}
	if in.Amount != nil && (*in.Amount != 0 || base.Amount == 0) {
		base.Amount = float64(*in.Amount)
	}
	if in.Category != nil && *in.Category != "" {
		base.Category = *in.Category
	}
	if in.Date != nil && !in.Date.IsZero() {
		base.Date = *in.Date
	}
	return base
}
