// Package compose joins already-fetched collections into display records. It
// never fetches and never mutates its inputs.
package compose

import (
	"strconv"

	"github.com/mamadbah2/farmboard/internal/domain/models"
)

// Lookup indexes farms and crops by Id.
type Lookup struct {
	farms map[int]models.Farm
	crops map[int]models.Crop
}

// NewLookup indexes farms and crops.
func NewLookup(farms []models.Farm, crops []models.Crop) Lookup {
	l := Lookup{
		farms: make(map[int]models.Farm, len(farms)),
		crops: make(map[int]models.Crop, len(crops)),
	}
	for _, f := range farms {
		l.farms[f.ID] = f
	}
	for _, c := range crops {
		l.crops[c.ID] = c
	}
	return l
}

// FarmName returns the farm's name or the UnknownFarm sentinel.
func (l Lookup) FarmName(id int) string {
	if farm, ok := l.farms[id]; ok {
		return farm.Name
	}
	return models.UnknownFarm
}

// FarmLabel names a farm for charts, falling back to "Farm {id}".
func (l Lookup) FarmLabel(id int) string {
	if farm, ok := l.farms[id]; ok {
		return farm.Name
	}
	return "Farm " + strconv.Itoa(id)
}

// Crop returns the crop with id.
func (l Lookup) Crop(id int) (models.Crop, bool) {
	crop, ok := l.crops[id]
	return crop, ok
}

// TaskCropName renders "{name} - {variety}", or "" when unset or missing.
func (l Lookup) TaskCropName(id *int) string {
	if id == nil {
		return ""
	}
	crop, ok := l.crops[*id]
	if !ok {
		return ""
	}
	return crop.Label()
}

// IncomeCropName renders "{name} ({variety})", or "" when unset or missing.
func (l Lookup) IncomeCropName(id *int) string {
	if id == nil {
		return ""
	}
	crop, ok := l.crops[*id]
	if !ok {
		return ""
	}
	return crop.Name + " (" + crop.Variety + ")"
}

// Tasks annotates tasks with farm and crop labels.
func Tasks(tasks []models.Task, farms []models.Farm, crops []models.Crop) []models.TaskView {
	l := NewLookup(farms, crops)
	out := make([]models.TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, l.Task(t))
	}
	return out
}

// Task annotates one task.
func (l Lookup) Task(t models.Task) models.TaskView {
	return models.TaskView{Task: t, FarmName: l.FarmName(t.FarmID), CropName: l.TaskCropName(t.CropID)}
}

// Crops annotates crops with their farm name.
func Crops(crops []models.Crop, farms []models.Farm) []models.CropView {
	l := NewLookup(farms, nil)
	out := make([]models.CropView, 0, len(crops))
	for _, c := range crops {
		out = append(out, models.CropView{Crop: c, FarmName: l.FarmName(c.FarmID)})
	}
	return out
}

// Expenses annotates expenses with their farm name.
func Expenses(expenses []models.Expense, farms []models.Farm) []models.ExpenseView {
	l := NewLookup(farms, nil)
	out := make([]models.ExpenseView, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, models.ExpenseView{Expense: e, FarmName: l.FarmName(e.FarmID)})
	}
	return out
}

// Income annotates income records. Unattributed records carry no labels; a
// dangling farm reference renders the UnknownFarm sentinel.
func Income(income []models.Income, farms []models.Farm, crops []models.Crop) []models.IncomeView {
	l := NewLookup(farms, crops)
	out := make([]models.IncomeView, 0, len(income))
	for _, i := range income {
		view := models.IncomeView{Income: i, CropName: l.IncomeCropName(i.CropID)}
		if i.FarmID != nil {
			view.FarmName = l.FarmName(*i.FarmID)
		}
		out = append(out, view)
	}
	return out
}
