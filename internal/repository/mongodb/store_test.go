package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository"
)

func openTestRepository(t *testing.T) *MongoDBRepository {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewMongoDBRepository(ctx, uri, fmt.Sprintf("farmboard_test_%d", time.Now().UnixNano()), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = repo.Drop(ctx)
		_ = repo.Close(ctx)
	})
	return repo
}

func TestMongoStoreLifecycle(t *testing.T) {
	repo := openTestRepository(t)
	stores := repo.Stores()
	ctx := context.Background()

	created, err := stores.Crops.Create(ctx, models.CropInput{
		FarmID:              models.Int(1),
		Name:                models.String("Tomatoes"),
		Variety:             models.String("Roma"),
		FieldLocation:       models.String("Greenhouse"),
		PlantingDate:        ptr(models.MustDate("2024-03-01")),
		ExpectedHarvestDate: ptr(models.MustDate("2024-06-01")),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, models.CropPlanted, created.Status)

	second, err := stores.Crops.Create(ctx, models.CropInput{FarmID: models.Int(2), Name: models.String("Corn")})
	require.NoError(t, err)
	assert.Equal(t, 2, second.ID)

	t.Run("get-by-id", func(t *testing.T) {
		got, err := stores.Crops.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("by-farm", func(t *testing.T) {
		got, err := stores.Crops.GetByFarmID(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Corn", got[0].Name)
	})

	t.Run("update-keeps-id", func(t *testing.T) {
		updated, err := stores.Crops.Update(ctx, 1, models.CropInput{ID: models.Int(9), Status: ptr(models.CropGrowing)})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.ID)
		assert.Equal(t, models.CropGrowing, updated.Status)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, stores.Crops.Delete(ctx, 2))
		_, err := stores.Crops.GetByID(ctx, 2)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, stores.Crops.Delete(ctx, 2), repository.ErrNotFound)
	})
}

func TestReportArchive(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	report := models.FinancialReport{
		Period:      models.PeriodMonth,
		Start:       models.MustDate("2024-05-01"),
		End:         models.MustDate("2024-05-31"),
		TotalIncome: 100,
		GeneratedAt: time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveReport(ctx, report))

	latest, err := repo.LatestReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", latest.Start.String())
	assert.Equal(t, 100.0, latest.TotalIncome)
}

func ptr[T any](v T) *T { return &v }
