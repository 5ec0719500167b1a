package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/fixtures"
	"github.com/mamadbah2/farmboard/internal/repository"
	"github.com/mamadbah2/farmboard/internal/repository/memory"
	"github.com/mamadbah2/farmboard/internal/server/handlers"
	"github.com/mamadbah2/farmboard/internal/service/pages"
	"github.com/mamadbah2/farmboard/internal/service/weather"
)

var now = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.Local)

func clock() time.Time { return now }

func newDeps(t *testing.T) pages.Deps {
	t.Helper()
	seed, err := fixtures.Seed()
	require.NoError(t, err)
	days, err := fixtures.Forecast()
	require.NoError(t, err)
	return pages.Deps{
		Stores:  memory.NewStores(seed, memory.WithClock(clock)),
		Weather: weather.NewService(weather.StaticProvider{Days: days}, nil).WithClock(clock),
		Now:     clock,
	}
}

func serve(t *testing.T, deps pages.Deps, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	engine := New(handlers.NewAPIHandler(deps, nil), nil, nil)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthzAndRequestID(t *testing.T) {
	deps := newDeps(t)
	rec := serve(t, deps, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	t.Run("echoes-caller-id", func(t *testing.T) {
		id := uuid.NewString()
		engine := New(handlers.NewAPIHandler(deps, nil), nil, nil)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", id)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
	})

	t.Run("webhook-disabled", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(t, deps, http.MethodGet, "/webhook", "").Code)
	})
}

func TestFarmRoutes(t *testing.T) {
	deps := newDeps(t)

	rec := serve(t, deps, http.MethodGet, "/api/farms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Farm](t, rec), 3)

	rec = serve(t, deps, http.MethodGet, "/api/farms/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sunrise Orchards", decode[models.Farm](t, rec).Name)

	assert.Equal(t, http.StatusBadRequest, serve(t, deps, http.MethodGet, "/api/farms/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, deps, http.MethodGet, "/api/farms/99", "").Code)

	t.Run("rename-shows-in-crop-views", func(t *testing.T) {
		rec := serve(t, deps, http.MethodPatch, "/api/farms/1", `{"name":"Green Valley Estate"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = serve(t, deps, http.MethodGet, "/api/crops?farmId=1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[struct {
			Crops []models.CropView `json:"crops"`
		}](t, rec)
		require.NotEmpty(t, body.Crops)
		for _, c := range body.Crops {
			assert.Equal(t, 1, c.FarmID)
			assert.Equal(t, "Green Valley Estate", c.FarmName)
		}
	})

	t.Run("patch-missing", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(t, deps, http.MethodPatch, "/api/farms/99", `{"name":"x"}`).Code)
	})
}

func TestExpenseRoutes(t *testing.T) {
	deps := newDeps(t)

	rec := serve(t, deps, http.MethodPost, "/api/expenses",
		`{"farmId":"2","amount":"12.5","category":"fuel","description":"Diesel","date":"2024-06-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Expense](t, rec)
	assert.Equal(t, 11, created.ID)
	assert.Equal(t, 12.5, created.Amount)

	t.Run("invalid-body-is-422", func(t *testing.T) {
		rec := serve(t, deps, http.MethodPost, "/api/expenses",
			`{"farmId":1,"amount":0,"category":"fuel","description":"x","date":"2024-06-10"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[struct {
			Fields map[string]string `json:"fields"`
		}](t, rec)
		assert.Equal(t, "Amount must be greater than 0", body.Fields["amount"])
	})

	t.Run("malformed-json-is-400", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, serve(t, deps, http.MethodPost, "/api/expenses", `{"amount":`).Code)
	})

	t.Run("list-sorted-by-amount", func(t *testing.T) {
		rec := serve(t, deps, http.MethodGet, "/api/expenses?sortBy=amount&sortOrder=asc&farmId=2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[struct {
			Expenses []models.ExpenseView `json:"expenses"`
			Total    float64              `json:"total"`
		}](t, rec)
		require.NotEmpty(t, body.Expenses)
		assert.Equal(t, 11, body.Expenses[0].ID)
		for i := 1; i < len(body.Expenses); i++ {
			assert.LessOrEqual(t, body.Expenses[i-1].Amount, body.Expenses[i].Amount)
		}
		assert.Positive(t, body.Total)
	})

	t.Run("trend", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(t, deps, http.MethodGet, "/api/expenses/trend?granularity=yearly", "").Code)
		assert.Equal(t, http.StatusBadRequest, serve(t, deps, http.MethodGet, "/api/expenses/trend?granularity=weekly", "").Code)
	})

	t.Run("farm-comparison", func(t *testing.T) {
		rec := serve(t, deps, http.MethodGet, "/api/expenses/farms", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decode[[]map[string]any](t, rec))
	})
}

func TestIncomeDelete(t *testing.T) {
	deps := newDeps(t)
	assert.Equal(t, http.StatusNoContent, serve(t, deps, http.MethodDelete, "/api/income/1", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, deps, http.MethodGet, "/api/income/1", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, deps, http.MethodDelete, "/api/income/1", "").Code)
}

func TestTaskToggle(t *testing.T) {
	deps := newDeps(t)
	rec := serve(t, deps, http.MethodPost, "/api/tasks/2/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Task](t, rec).Completed)

	assert.Equal(t, http.StatusNotFound, serve(t, deps, http.MethodPost, "/api/tasks/99/toggle", "").Code)
	assert.Equal(t, http.StatusOK, serve(t, deps, http.MethodGet, "/api/tasks/today", "").Code)
}

func TestReportRoutes(t *testing.T) {
	deps := newDeps(t)

	rec := serve(t, deps, http.MethodGet, "/api/reports?period=year&date=2024-03-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[models.FinancialReport](t, rec)
	assert.Equal(t, models.PeriodYear, report.Period)
	assert.Len(t, report.MonthlyData, 12)

	rec = serve(t, deps, http.MethodGet, "/api/reports?format=text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Financial report June 2024")

	assert.Equal(t, http.StatusBadRequest, serve(t, deps, http.MethodGet, "/api/reports?period=week", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, deps, http.MethodGet, "/api/reports?date=June", "").Code)
}

func TestPageRoutes(t *testing.T) {
	deps := newDeps(t)

	rec := serve(t, deps, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard := decode[pages.DashboardState](t, rec)
	require.NotNil(t, dashboard.Weather)
	assert.Equal(t, "Sunny", dashboard.Weather.Condition)

	rec = serve(t, deps, http.MethodGet, "/api/weather", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, deps, http.MethodGet, "/api/forms/expense", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sunrise Orchards (East Ridge)")

	assert.Equal(t, http.StatusNotFound, serve(t, deps, http.MethodGet, "/api/forms/livestock", "").Code)
}

type unreachableFarms struct {
	repository.FarmStore
}

func (unreachableFarms) GetAll(context.Context) ([]models.Farm, error) {
	return nil, &repository.NetworkError{Op: "fetch", Table: "farms", StatusCode: http.StatusServiceUnavailable}
}

type rejectingIncome struct {
	repository.IncomeStore
}

func (rejectingIncome) Create(context.Context, models.IncomeInput) (models.Income, error) {
	return models.Income{}, &repository.PartialBatchFailure{
		Op:     "create",
		Table:  "income",
		Failed: []repository.RecordFailure{{Index: 0, Message: "duplicate source"}},
	}
}

func TestErrorMapping(t *testing.T) {
	deps := newDeps(t)
	deps.Stores.Farms = unreachableFarms{deps.Stores.Farms}
	deps.Stores.Income = rejectingIncome{deps.Stores.Income}

	rec := serve(t, deps, http.MethodGet, "/api/farms", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = serve(t, deps, http.MethodPost, "/api/income", `{"amount":50,"category":"sales","source":"Shop","date":"2024-06-10"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate source")
}
