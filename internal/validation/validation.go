// Package validation checks entity records before they reach a store.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mamadbah2/farmboard/internal/domain/models"
)

// Error maps json field names to a user-facing message.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message attached to name, if any.
func (e *Error) Field(name string) string {
	return e.Fields[name]
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var vErr *Error
	ok := errors.As(err, &vErr)
	return vErr, ok
}

// messages are keyed by "Type.field" or "Type.field.tag".
var messages = map[string]string{
	"Farm.name":     "Farm name is required",
	"Farm.location": "Location is required",
	"Farm.size":     "Size must be greater than 0",
	"Farm.sizeUnit": "Size unit is required",

	"Crop.farmId":                           "Farm is required",
	"Crop.name":                             "Crop name is required",
	"Crop.variety":                          "Variety is required",
	"Crop.fieldLocation":                    "Field location is required",
	"Crop.plantingDate":                     "Planting date is required",
	"Crop.expectedHarvestDate":              "Expected harvest date is required",
	"Crop.expectedHarvestDate.harvestafter": "Harvest date must be after planting date",
	"Crop.status":                           "Status is required",

	"Task.farmId":   "Farm is required",
	"Task.title":    "Task title is required",
	"Task.dueDate":  "Due date is required",
	"Task.priority": "Priority is required",

	"Expense.farmId":      "Farm is required",
	"Expense.amount":      "Amount must be greater than 0",
	"Expense.category":    "Category is required",
	"Expense.description": "Description is required",
	"Expense.date":        "Date is required",

	"Income.amount":   "Please enter a valid amount greater than 0",
	"Income.source":   "Please enter an income source",
	"Income.category": "Please select a category",
	"Income.date":     "Please select a date",

	"Crop.plantingDate.malformed":        "Planting date must be a valid date",
	"Crop.expectedHarvestDate.malformed": "Expected harvest date must be a valid date",
	"Task.dueDate.malformed":             "Due date must be a valid date and time",
	"Expense.date.malformed":             "Date must be a valid date",
	"Income.date.malformed":              "Please select a valid date",
}

// Validator wraps a configured validator instance. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the entity rules registered.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(models.Date); ok {
			return d.Time
		}
		return nil
	}, models.Date{})
	// registration only fails on an empty tag name
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterStructValidation(harvestAfterPlanting, models.Crop{})

	return &Validator{validate: v}
}

func harvestAfterPlanting(sl validator.StructLevel) {
	crop := sl.Current().Interface().(models.Crop)
	if crop.PlantingDate.IsZero() || crop.ExpectedHarvestDate.IsZero() {
		return
	}
	if !crop.ExpectedHarvestDate.After(crop.PlantingDate.Time) {
		sl.ReportError(crop.ExpectedHarvestDate, "expectedHarvestDate", "ExpectedHarvestDate", "harvestafter", "")
	}
}

// Struct validates a record and returns a *Error listing every failing field.
func (v *Validator) Struct(record any) error {
	err := v.validate.Struct(record)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate record: %w", err)
	}

	out := &Error{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

// Malformed is the message for a value of entity's field that could not be
// parsed at all, such as "abc" in an amount field.
func Malformed(entity, field string) string {
	key := entity + "." + field
	if msg, ok := messages[key+".malformed"]; ok {
		return msg
	}
	if msg, ok := messages[key]; ok {
		return msg
	}
	return field + " is not valid"
}

func message(fe validator.FieldError) string {
	typeName := strings.SplitN(fe.Namespace(), ".", 2)[0]
	key := typeName + "." + fe.Field()

	if msg, ok := messages[key+"."+fe.Tag()]; ok {
		return msg
	}
	if fe.Tag() == "oneof" && fmt.Sprint(fe.Value()) != "" {
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	if msg, ok := messages[key]; ok {
		return msg
	}
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is required", fe.Field())
	}
}
