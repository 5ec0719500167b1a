package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	seed, err := Seed()
	require.NoError(t, err)

	assert.Len(t, seed.Farms, 3)
	assert.Len(t, seed.Crops, 6)
	assert.Len(t, seed.Tasks, 8)
	assert.Len(t, seed.Expenses, 10)
	assert.Len(t, seed.Income, 7)

	t.Run("foreign-keys-are-decoded", func(t *testing.T) {
		assert.Equal(t, 1, seed.Crops[0].FarmID)
		require.NotNil(t, seed.Tasks[0].CropID)
		assert.Equal(t, 1, *seed.Tasks[0].CropID)
		assert.Nil(t, seed.Tasks[2].CropID)
		assert.Nil(t, seed.Income[4].FarmID)
	})

	t.Run("harvest-follows-planting", func(t *testing.T) {
		for _, crop := range seed.Crops {
			assert.True(t, crop.ExpectedHarvestDate.After(crop.PlantingDate.Time), crop.Name)
		}
	})

	t.Run("each-call-returns-a-fresh-copy", func(t *testing.T) {
		again, err := Seed()
		require.NoError(t, err)
		again.Farms[0].Name = "changed"
		assert.Equal(t, "Green Valley Farm", seed.Farms[0].Name)
	})
}

func TestForecast(t *testing.T) {
	forecast, err := Forecast()
	require.NoError(t, err)
	require.Len(t, forecast, 7)
	assert.Equal(t, "2024-06-10", forecast[0].Date.String())
	assert.Equal(t, 80, forecast[2].Precipitation)
}
