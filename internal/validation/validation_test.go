package validation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmboard/internal/domain/models"
)

func TestCropHarvestMustFollowPlanting(t *testing.T) {
	v := New()
	crop := models.Crop{
		FarmID:              1,
		Name:                "Tomatoes",
		Variety:             "Roma",
		FieldLocation:       "Greenhouse 1",
		PlantingDate:        models.MustDate("2024-03-01"),
		ExpectedHarvestDate: models.MustDate("2024-03-01"),
		Status:              models.CropPlanted,
	}

	err := v.Struct(crop)
	vErr, ok := AsError(err)
	require.True(t, ok, "expected *validation.Error, got %v", err)
	assert.Equal(t, map[string]string{"expectedHarvestDate": "Harvest date must be after planting date"}, vErr.Fields)

	crop.ExpectedHarvestDate = models.MustDate("2024-06-15")
	assert.NoError(t, v.Struct(crop))
}

func TestRequiredFields(t *testing.T) {
	v := New()

	t.Run("crop-missing-everything", func(t *testing.T) {
		vErr, ok := AsError(v.Struct(models.Crop{Status: models.CropPlanted}))
		require.True(t, ok)
		assert.Equal(t, "Farm is required", vErr.Field("farmId"))
		assert.Equal(t, "Crop name is required", vErr.Field("name"))
		assert.Equal(t, "Planting date is required", vErr.Field("plantingDate"))
		assert.Equal(t, "Expected harvest date is required", vErr.Field("expectedHarvestDate"))
	})

	t.Run("blank-strings-are-missing", func(t *testing.T) {
		farm := models.Farm{Name: "   ", Location: "Sector 4", Size: 50, SizeUnit: models.SizeAcres}
		vErr, ok := AsError(v.Struct(farm))
		require.True(t, ok)
		assert.Equal(t, map[string]string{"name": "Farm name is required"}, vErr.Fields)
	})

	t.Run("task-without-due-date", func(t *testing.T) {
		vErr, ok := AsError(v.Struct(models.Task{FarmID: 1, Title: "Irrigate", Priority: models.PriorityLow}))
		require.True(t, ok)
		assert.Equal(t, map[string]string{"dueDate": "Due date is required"}, vErr.Fields)

		assert.NoError(t, v.Struct(models.Task{FarmID: 1, Title: "Irrigate", Priority: models.PriorityLow, DueDate: time.Now()}))
	})
}

func TestAmounts(t *testing.T) {
	v := New()
	expense := models.Expense{FarmID: 1, Category: models.ExpenseFuel, Description: "diesel", Date: models.MustDate("2024-06-01")}

	for _, amount := range []float64{0, -12.5} {
		t.Run(fmt.Sprintf("expense-amount-%v", amount), func(t *testing.T) {
			expense.Amount = amount
			vErr, ok := AsError(v.Struct(expense))
			require.True(t, ok)
			assert.Equal(t, "Amount must be greater than 0", vErr.Field("amount"))
		})
	}

	t.Run("income-messages", func(t *testing.T) {
		vErr, ok := AsError(v.Struct(models.Income{Category: models.IncomeSales}))
		require.True(t, ok)
		assert.Equal(t, "Please enter a valid amount greater than 0", vErr.Field("amount"))
		assert.Equal(t, "Please enter an income source", vErr.Field("source"))
		assert.Equal(t, "Please select a date", vErr.Field("date"))
		assert.Empty(t, vErr.Field("farmId"))
	})
}

func TestEnums(t *testing.T) {
	v := New()
	farm := models.Farm{Name: "North Farm", Location: "Sector 4", Size: 50, SizeUnit: "furlongs"}

	vErr, ok := AsError(v.Struct(farm))
	require.True(t, ok)
	assert.Equal(t, "sizeUnit must be one of: acres, hectares, sq-ft, sq-m", vErr.Field("sizeUnit"))
	assert.Contains(t, vErr.Error(), "sizeUnit")

	vErr, ok = AsError(v.Struct(models.Expense{FarmID: 1, Amount: 3, Description: "x", Date: models.MustDate("2024-01-01")}))
	require.True(t, ok)
	assert.Equal(t, "Category is required", vErr.Field("category"))
}
