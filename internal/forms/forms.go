// Package forms describes the entity forms handed to the rendering layer and
// turns submitted values back into store inputs.
package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/validation"
)

// FieldType selects the input widget.
type FieldType string

const (
	Text     FieldType = "text"
	Number   FieldType = "number"
	Date     FieldType = "date"
	DateTime FieldType = "datetime"
	Select   FieldType = "select"
	TextArea FieldType = "textarea"
)

// Kind names an entity form.
type Kind string

const (
	KindFarm    Kind = "farm"
	KindCrop    Kind = "crop"
	KindTask    Kind = "task"
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

const dateTimeLayout = "2006-01-02T15:04"

// Field is one field descriptor. Values travel as strings, the way inputs hold them.
type Field struct {
	Type        FieldType       `json:"type"`
	Label       string          `json:"label"`
	Name        string          `json:"name"`
	Value       string          `json:"value"`
	Placeholder string          `json:"placeholder,omitempty"`
	Required    bool            `json:"required"`
	Options     []models.Option `json:"options,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Form is an ordered list of fields for one entity kind.
type Form struct {
	Kind   Kind    `json:"kind"`
	Fields []Field `json:"fields"`
}

// Field returns the field called name.
func (f Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

func (f Form) clone() Form {
	f.Fields = append([]Field(nil), f.Fields...)
	return f
}

// Apply records a change and clears the error of the changed field. Unknown
// names are ignored.
func (f Form) Apply(c Change) Form {
	out := f.clone()
	for i := range out.Fields {
		if out.Fields[i].Name == c.Name {
			out.Fields[i].Value = c.Value
			out.Fields[i].Error = ""
		}
	}
	return out
}

// WithErrors attaches validation messages to their fields. Errors other than
// *validation.Error leave the form unchanged.
func (f Form) WithErrors(err error) Form {
	vErr, ok := validation.AsError(err)
	if !ok {
		return f
	}
	out := f.clone()
	for i := range out.Fields {
		out.Fields[i].Error = vErr.Field(out.Fields[i].Name)
	}
	return out
}

// Values returns the current value of every field.
func (f Form) Values() map[string]string {
	out := make(map[string]string, len(f.Fields))
	for _, field := range f.Fields {
		out[field.Name] = field.Value
	}
	return out
}

// Decode converts the submitted values into a store input. Numeric and
// foreign-key values stay strings here; the input types coerce them. Values
// that cannot be parsed come back as a *validation.Error on their fields.
func Decode[I any](f Form) (I, error) {
	var in I
	raw, err := json.Marshal(f.Values())
	if err != nil {
		return in, fmt.Errorf("encode %s form: %w", f.Kind, err)
	}
	err = json.Unmarshal(raw, &in)
	if err == nil {
		return in, nil
	}
	var zero I
	if fields := malformed[I](f); len(fields) > 0 {
		return zero, &validation.Error{Fields: fields}
	}
	return zero, fmt.Errorf("decode %s form: %w", f.Kind, err)
}

// malformed decodes each field on its own to find the ones that do not parse.
func malformed[I any](f Form) map[string]string {
	entity := f.Kind.entity()
	fields := make(map[string]string)
	for _, field := range f.Fields {
		raw, err := json.Marshal(map[string]string{field.Name: field.Value})
		if err != nil {
			continue
		}
		var single I
		if json.Unmarshal(raw, &single) != nil {
			fields[field.Name] = validation.Malformed(entity, field.Name)
		}
	}
	return fields
}

func (k Kind) entity() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Change is a single field edit.
type Change struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NormalizeChange accepts an event shaped {"target": {"name", "value"}}, a
// {"name", "value"} object, or a bare value for the field called name.
func NormalizeChange(name string, payload json.RawMessage) (Change, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && payload[0] == '{' {
		var event struct {
			Target *struct {
				Name  string          `json:"name"`
				Value json.RawMessage `json:"value"`
			} `json:"target"`
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(payload, &event); err != nil {
			return Change{}, fmt.Errorf("decode change: %w", err)
		}
		fieldName, value := event.Name, event.Value
		if event.Target != nil {
			fieldName, value = event.Target.Name, event.Target.Value
		}
		if fieldName == "" {
			fieldName = name
		}
		text, err := scalar(value)
		if err != nil {
			return Change{}, err
		}
		return Change{Name: fieldName, Value: text}, nil
	}

	text, err := scalar(payload)
	if err != nil {
		return Change{}, err
	}
	return Change{Name: name, Value: text}, nil
}

func scalar(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var v any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&v); err != nil {
		return "", fmt.Errorf("decode change value: %w", err)
	}
	switch value := v.(type) {
	case nil:
		return "", nil
	case string:
		return value, nil
	case json.Number:
		return value.String(), nil
	case bool:
		return strconv.FormatBool(value), nil
	default:
		return "", fmt.Errorf("change value must be a scalar, got %T", v)
	}
}

// ErrUnknownForm is returned by For for a kind without a form.
var ErrUnknownForm = errors.New("unknown form")

// Deps are the collections option lists are built from.
type Deps struct {
	Farms []models.Farm
	Crops []models.Crop
	Now   time.Time
}

// For builds an empty form of kind.
func For(kind Kind, deps Deps) (Form, error) {
	switch kind {
	case KindFarm:
		return NewFarm(nil), nil
	case KindCrop:
		return NewCrop(nil, deps.Farms), nil
	case KindTask:
		return NewTask(nil, deps.Farms, deps.Crops), nil
	case KindExpense:
		return NewExpense(nil, deps.Farms, deps.Now), nil
	case KindIncome:
		return NewIncome(nil, deps.Farms, deps.Crops, deps.Now), nil
	default:
		return Form{}, fmt.Errorf("%w %q", ErrUnknownForm, kind)
	}
}

// FarmOptions labels farms "{name} ({location})".
func FarmOptions(farms []models.Farm) []models.Option {
	out := make([]models.Option, 0, len(farms))
	for _, f := range farms {
		out = append(out, models.Option{Value: strconv.Itoa(f.ID), Label: f.Name + " (" + f.Location + ")"})
	}
	return out
}

// TaskCropOptions offers a "general task" entry followed by every crop.
func TaskCropOptions(crops []models.Crop) []models.Option {
	out := []models.Option{{Value: "", Label: "No specific crop (General task)"}}
	for _, c := range crops {
		out = append(out, models.Option{Value: strconv.Itoa(c.ID), Label: c.Label() + " (" + c.FieldLocation + ")"})
	}
	return out
}

func incomeFarmOptions(farms []models.Farm) []models.Option {
	out := []models.Option{{Value: "", Label: "Select a farm"}}
	for _, f := range farms {
		out = append(out, models.Option{Value: strconv.Itoa(f.ID), Label: f.Name})
	}
	return out
}

func incomeCropOptions(crops []models.Crop) []models.Option {
	out := []models.Option{{Value: "", Label: "No specific crop"}}
	for _, c := range crops {
		out = append(out, models.Option{Value: strconv.Itoa(c.ID), Label: c.Name + " (" + c.Variety + ")"})
	}
	return out
}

func id(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func ref(v *int) string {
	if v == nil {
		return ""
	}
	return id(*v)
}

func decimal(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewFarm describes the farm form, prefilled from farm when editing.
func NewFarm(farm *models.Farm) Form {
	f := models.Farm{SizeUnit: models.SizeAcres}
	if farm != nil {
		f = *farm
	}
	return Form{Kind: KindFarm, Fields: []Field{
		{Type: Text, Label: "Farm Name", Name: "name", Value: f.Name, Placeholder: "Enter farm name", Required: true},
		{Type: Text, Label: "Location", Name: "location", Value: f.Location, Placeholder: "Enter farm location", Required: true},
		{Type: Number, Label: "Size", Name: "size", Value: decimal(f.Size), Placeholder: "Enter size", Required: true},
		{Type: Select, Label: "Unit", Name: "sizeUnit", Value: string(f.SizeUnit), Required: true, Options: models.SizeUnitOptions},
	}}
}

// NewCrop describes the crop form.
func NewCrop(crop *models.Crop, farms []models.Farm) Form {
	c := models.Crop{Status: models.CropPlanted}
	if crop != nil {
		c = *crop
	}
	return Form{Kind: KindCrop, Fields: []Field{
		{Type: Select, Label: "Farm", Name: "farmId", Value: id(c.FarmID), Placeholder: "Select a farm", Required: true, Options: FarmOptions(farms)},
		{Type: Text, Label: "Crop Name", Name: "name", Value: c.Name, Placeholder: "e.g., Tomatoes, Corn, Apples", Required: true},
		{Type: Text, Label: "Variety", Name: "variety", Value: c.Variety, Placeholder: "e.g., Roma, Sweet Corn, Gala", Required: true},
		{Type: Text, Label: "Field Location", Name: "fieldLocation", Value: c.FieldLocation, Placeholder: "e.g., North Field A, Greenhouse 1", Required: true},
		{Type: Date, Label: "Planting Date", Name: "plantingDate", Value: c.PlantingDate.String(), Required: true},
		{Type: Date, Label: "Expected Harvest Date", Name: "expectedHarvestDate", Value: c.ExpectedHarvestDate.String(), Required: true},
		{Type: Select, Label: "Status", Name: "status", Value: string(c.Status), Required: true, Options: models.CropStatusOptions},
	}}
}

// NewTask describes the task form.
func NewTask(task *models.Task, farms []models.Farm, crops []models.Crop) Form {
	t := models.Task{Priority: models.PriorityMedium}
	if task != nil {
		t = *task
	}
	due := ""
	if !t.DueDate.IsZero() {
		due = t.DueDate.Local().Format(dateTimeLayout)
	}
	return Form{Kind: KindTask, Fields: []Field{
		{Type: Select, Label: "Farm", Name: "farmId", Value: id(t.FarmID), Placeholder: "Select a farm", Required: true, Options: FarmOptions(farms)},
		{Type: Select, Label: "Crop", Name: "cropId", Value: ref(t.CropID), Options: TaskCropOptions(crops)},
		{Type: Text, Label: "Task Title", Name: "title", Value: t.Title, Placeholder: "e.g., Water tomatoes, Apply fertilizer", Required: true},
		{Type: TextArea, Label: "Description", Name: "description", Value: t.Description, Placeholder: "Additional details about the task..."},
		{Type: DateTime, Label: "Due Date", Name: "dueDate", Value: due, Required: true},
		{Type: Select, Label: "Priority", Name: "priority", Value: string(t.Priority), Required: true, Options: models.PriorityOptions},
	}}
}

// NewExpense describes the expense form; new expenses are dated today.
func NewExpense(expense *models.Expense, farms []models.Farm, now time.Time) Form {
	e := models.Expense{Date: models.Today(now)}
	if expense != nil {
		e = *expense
	}
	return Form{Kind: KindExpense, Fields: []Field{
		{Type: Select, Label: "Farm", Name: "farmId", Value: id(e.FarmID), Placeholder: "Select a farm", Required: true, Options: FarmOptions(farms)},
		{Type: Number, Label: "Amount", Name: "amount", Value: decimal(e.Amount), Placeholder: "0.00", Required: true},
		{Type: Select, Label: "Category", Name: "category", Value: string(e.Category), Placeholder: "Select category", Required: true, Options: models.ExpenseCategoryOptions},
		{Type: Text, Label: "Description", Name: "description", Value: e.Description, Placeholder: "What was this expense for?", Required: true},
		{Type: Date, Label: "Date", Name: "date", Value: e.Date.String(), Required: true},
	}}
}

// NewIncome describes the income form; new income is a sale dated today.
func NewIncome(income *models.Income, farms []models.Farm, crops []models.Crop, now time.Time) Form {
	i := models.Income{Category: models.IncomeSales, Date: models.Today(now)}
	if income != nil {
		i = *income
	}
	return Form{Kind: KindIncome, Fields: []Field{
		{Type: Number, Label: "Amount", Name: "amount", Value: decimal(i.Amount), Placeholder: "Enter amount", Required: true},
		{Type: Text, Label: "Source", Name: "source", Value: i.Source, Placeholder: "e.g., Tomato harvest, Market sale", Required: true},
		{Type: Select, Label: "Category", Name: "category", Value: string(i.Category), Required: true, Options: models.IncomeCategoryOptions},
		{Type: Date, Label: "Date", Name: "date", Value: i.Date.String(), Required: true},
		{Type: TextArea, Label: "Description", Name: "description", Value: i.Description, Placeholder: "Additional details about this income..."},
		{Type: Select, Label: "Farm (Optional)", Name: "farmId", Value: ref(i.FarmID), Options: incomeFarmOptions(farms)},
		{Type: Select, Label: "Crop (Optional)", Name: "cropId", Value: ref(i.CropID), Options: incomeCropOptions(crops)},
	}}
}
