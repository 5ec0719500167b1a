package remote

import (
	"encoding/json"
	"fmt"

	"github.com/mamadbah2/farmboard/internal/domain/models"
)

// Codec maps an entity to its table and to the snake_case wire record. Numeric
// and foreign-key wire fields accept numbers or numeric strings.
type Codec[T any] struct {
	Table  string
	Fields []string
	Encode func(T) any
	Decode func(json.RawMessage) (T, error)
}

func decodeWith[W any, T any](conv func(W) T) func(json.RawMessage) (T, error) {
	return func(data json.RawMessage) (T, error) {
		var wire W
		if err := json.Unmarshal(data, &wire); err != nil {
			var zero T
			return zero, fmt.Errorf("decode record: %w", err)
		}
		return conv(wire), nil
	}
}

func wireRef(v *int) *models.FlexInt {
	if v == nil {
		return nil
	}
	return models.Int(*v)
}

func entityRef(v *models.FlexInt) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	id := int(*v)
	return &id
}

type wireFarm struct {
	ID        models.FlexInt    `json:"Id,omitempty"`
	Name      string            `json:"name"`
	Location  string            `json:"location"`
	Size      models.FlexFloat  `json:"size"`
	SizeUnit  models.SizeUnit   `json:"size_unit"`
	CreatedAt *models.Timestamp `json:"created_at,omitempty"`
}

// FarmCodec is the farms table.
var FarmCodec = Codec[models.Farm]{
	Table:  "farms",
	Fields: []string{"Id", "name", "location", "size", "size_unit", "created_at"},
	Encode: func(f models.Farm) any {
		w := wireFarm{ID: models.FlexInt(f.ID), Name: f.Name, Location: f.Location, Size: models.FlexFloat(f.Size), SizeUnit: f.SizeUnit}
		if !f.CreatedAt.IsZero() {
			w.CreatedAt = &models.Timestamp{Time: f.CreatedAt}
		}
		return w
	},
	Decode: decodeWith(func(w wireFarm) models.Farm {
		f := models.Farm{ID: int(w.ID), Name: w.Name, Location: w.Location, Size: float64(w.Size), SizeUnit: w.SizeUnit}
		if w.CreatedAt != nil {
			f.CreatedAt = w.CreatedAt.Time
		}
		return f
	}),
}

type wireCrop struct {
	ID                  models.FlexInt    `json:"Id,omitempty"`
	FarmID              models.FlexInt    `json:"farm_id"`
	Name                string            `json:"name"`
	Variety             string            `json:"variety"`
	FieldLocation       string            `json:"field_location"`
	PlantingDate        models.Date       `json:"planting_date"`
	ExpectedHarvestDate models.Date       `json:"expected_harvest_date"`
	Status              models.CropStatus `json:"status"`
}

// CropCodec is the crops table.
var CropCodec = Codec[models.Crop]{
	Table:  "crops",
	Fields: []string{"Id", "farm_id", "name", "variety", "field_location", "planting_date", "expected_harvest_date", "status"},
	Encode: func(c models.Crop) any {
		return wireCrop{
			ID:                  models.FlexInt(c.ID),
			FarmID:              models.FlexInt(c.FarmID),
			Name:                c.Name,
			Variety:             c.Variety,
			FieldLocation:       c.FieldLocation,
			PlantingDate:        c.PlantingDate,
			ExpectedHarvestDate: c.ExpectedHarvestDate,
			Status:              c.Status,
		}
	},
	Decode: decodeWith(func(w wireCrop) models.Crop {
		return models.Crop{
			ID:                  int(w.ID),
			FarmID:              int(w.FarmID),
			Name:                w.Name,
			Variety:             w.Variety,
			FieldLocation:       w.FieldLocation,
			PlantingDate:        w.PlantingDate,
			ExpectedHarvestDate: w.ExpectedHarvestDate,
			Status:              w.Status,
		}
	}),
}

type wireTask struct {
	ID          models.FlexInt   `json:"Id,omitempty"`
	FarmID      models.FlexInt   `json:"farm_id"`
	CropID      *models.FlexInt  `json:"crop_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	DueDate     models.Timestamp `json:"due_date"`
	Priority    models.Priority  `json:"priority"`
	Completed   bool             `json:"completed"`
}

// TaskCodec is the tasks table.
var TaskCodec = Codec[models.Task]{
	Table:  "tasks",
	Fields: []string{"Id", "farm_id", "crop_id", "title", "description", "due_date", "priority", "completed"},
	Encode: func(t models.Task) any {
		return wireTask{
			ID:          models.FlexInt(t.ID),
			FarmID:      models.FlexInt(t.FarmID),
			CropID:      wireRef(t.CropID),
			Title:       t.Title,
			Description: t.Description,
			DueDate:     models.Timestamp{Time: t.DueDate},
			Priority:    t.Priority,
			Completed:   t.Completed,
		}
	},
	Decode: decodeWith(func(w wireTask) models.Task {
		return models.Task{
			ID:          int(w.ID),
			FarmID:      int(w.FarmID),
			CropID:      entityRef(w.CropID),
			Title:       w.Title,
			Description: w.Description,
			DueDate:     w.DueDate.Time,
			Priority:    w.Priority,
			Completed:   w.Completed,
		}
	}),
}

type wireExpense struct {
	ID          models.FlexInt         `json:"Id,omitempty"`
	FarmID      models.FlexInt         `json:"farm_id"`
	Amount      models.FlexFloat       `json:"amount"`
	Category    models.ExpenseCategory `json:"category"`
	Description string                 `json:"description"`
	Date        models.Date            `json:"date"`
}

// ExpenseCodec is the expenses table.
var ExpenseCodec = Codec[models.Expense]{
	Table:  "expenses",
	Fields: []string{"Id", "farm_id", "amount", "category", "description", "date"},
	Encode: func(e models.Expense) any {
		return wireExpense{
			ID:          models.FlexInt(e.ID),
			FarmID:      models.FlexInt(e.FarmID),
			Amount:      models.FlexFloat(e.Amount),
			Category:    e.Category,
			Description: e.Description,
			Date:        e.Date,
		}
	},
	Decode: decodeWith(func(w wireExpense) models.Expense {
		return models.Expense{
			ID:          int(w.ID),
			FarmID:      int(w.FarmID),
			Amount:      float64(w.Amount),
			Category:    w.Category,
			Description: w.Description,
			Date:        w.Date,
		}
	}),
}

type wireIncome struct {
	ID          models.FlexInt        `json:"Id,omitempty"`
	FarmID      *models.FlexInt       `json:"farm_id"`
	CropID      *models.FlexInt       `json:"crop_id"`
	Source      string                `json:"source"`
	Description string                `json:"description"`
	Amount      models.FlexFloat      `json:"amount"`
	Category    models.IncomeCategory `json:"category"`
	Date        models.Date           `json:"date"`
}

// IncomeCodec is the income table.
var IncomeCodec = Codec[models.Income]{
	Table:  "income",
	Fields: []string{"Id", "farm_id", "crop_id", "source", "description", "amount", "category", "date"},
	Encode: func(i models.Income) any {
		return wireIncome{
			ID:          models.FlexInt(i.ID),
			FarmID:      wireRef(i.FarmID),
			CropID:      wireRef(i.CropID),
			Source:      i.Source,
			Description: i.Description,
			Amount:      models.FlexFloat(i.Amount),
			Category:    i.Category,
			Date:        i.Date,
		}
	},
	Decode: decodeWith(func(w wireIncome) models.Income {
		return models.Income{
			ID:          int(w.ID),
			FarmID:      entityRef(w.FarmID),
			CropID:      entityRef(w.CropID),
			Source:      w.Source,
			Description: w.Description,
			Amount:      float64(w.Amount),
			Category:    w.Category,
			Date:        w.Date,
		}
	}),
}
