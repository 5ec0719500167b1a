package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmboard/internal/config"
	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
	Header http.Header
}

type recorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.reqs...)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, req recordedRequest)) (*Client, *recorder) {
	t.Helper()
	seen := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Header: r.Header.Clone()}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.Body))
		}
		seen.mu.Lock()
		seen.reqs = append(seen.reqs, rec)
		seen.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, rec)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.RecordAPIConfig{
		BaseURL:   srv.URL,
		ProjectID: "proj-1",
		PublicKey: "pk-1",
		Timeout:   2 * time.Second,
	}, nil)
	return client, seen
}

func write(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestStoreGetAll(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, req recordedRequest) {
		write(w, http.StatusOK, `{"success":true,"data":[
			{"Id":"1","farm_id":"2","amount":"100.5","category":"seeds","description":"seed","date":"2024-03-01T00:00:00Z"},
			{"Id":2,"farm_id":2,"amount":20,"category":"fuel","description":"diesel","date":"2024-03-02"}
		]}`)
	})
	expenses := NewFarmScopedStore[models.Expense, models.ExpenseInput](client, "expense", ExpenseCodec, nil)

	got, err := expenses.GetByFarmID(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	t.Run("numeric-strings-are-coerced", func(t *testing.T) {
		assert.Equal(t, 1, got[0].ID)
		assert.Equal(t, 2, got[0].FarmID)
		assert.Equal(t, 100.5, got[0].Amount)
		assert.Equal(t, "2024-03-01", got[0].Date.String())
	})

	t.Run("request-shape", func(t *testing.T) {
		reqs := seen.all()
		require.Len(t, reqs, 1)
		req := reqs[0]
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/tables/expenses/records/query", req.Path)
		assert.Equal(t, "proj-1", req.Header.Get("X-Project-Id"))
		assert.Equal(t, "pk-1", req.Header.Get("X-Public-Key"))

		where := req.Body["where"].([]any)
		require.Len(t, where, 1)
		clause := where[0].(map[string]any)
		assert.Equal(t, "farm_id", clause["fieldName"])
		assert.Equal(t, "eq", clause["operator"])
	})
}

func TestStoreErrorClassification(t *testing.T) {
	ctx := context.Background()

	t.Run("top-level-failure-is-network-error", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, _ recordedRequest) {
			write(w, http.StatusOK, `{"success":false,"message":"quota exceeded"}`)
		})
		farms := NewStore[models.Farm, models.FarmInput](client, "farm", FarmCodec, nil)

		_, err := farms.GetAll(ctx)
		var netErr *repository.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, "quota exceeded", netErr.Message)
		assert.True(t, repository.IsRetryable(err))
	})

	t.Run("server-error-is-network-error", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, _ recordedRequest) {
			write(w, http.StatusBadGateway, `upstream down`)
		})
		farms := NewStore[models.Farm, models.FarmInput](client, "farm", FarmCodec, nil)

		_, err := farms.GetByID(ctx, 1)
		var netErr *repository.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, http.StatusBadGateway, netErr.StatusCode)
	})

	t.Run("404-is-not-found", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, _ recordedRequest) {
			write(w, http.StatusNotFound, `{"success":false,"message":"no such record"}`)
		})
		farms := NewStore[models.Farm, models.FarmInput](client, "farm", FarmCodec, nil)

		_, err := farms.GetByID(ctx, 5)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.False(t, repository.IsRetryable(err))
	})

	t.Run("record-level-not-found-on-delete", func(t *testing.T) {
		client, seen := newTestServer(t, func(w http.ResponseWriter, _ recordedRequest) {
			write(w, http.StatusOK, `{"success":true,"results":[{"success":false,"code":"NOT_FOUND","message":"record 9 missing"}]}`)
		})
		farms := NewStore[models.Farm, models.FarmInput](client, "farm", FarmCodec, nil)

		err := farms.Delete(ctx, 9)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		req := seen.all()[0]
		assert.Equal(t, http.MethodDelete, req.Method)
		assert.Equal(t, "ids=9", req.Query)
	})
}

func TestStoreCreateBatch(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, _ recordedRequest) {
		write(w, http.StatusOK, `{"success":true,"results":[
			{"success":true,"data":{"Id":11,"farm_id":1,"amount":50,"category":"fuel","description":"diesel","date":"2024-06-01"}},
			{"success":false,"message":"invalid record","errors":[{"field":"amount","message":"must be positive"}]}
		]}`)
	})
	expenses := NewFarmScopedStore[models.Expense, models.ExpenseInput](client, "expense", ExpenseCodec, nil)

	created, err := expenses.CreateBatch(context.Background(), []models.ExpenseInput{
		{FarmID: models.Int(1), Amount: models.Float(50), Category: ptr(models.ExpenseFuel), Description: models.String("diesel"), Date: ptr(models.MustDate("2024-06-01"))},
		{FarmID: models.Int(1), Amount: models.Float(-3), Category: ptr(models.ExpenseFuel), Description: models.String("bad"), Date: ptr(models.MustDate("2024-06-01"))},
	})

	var partial *repository.PartialBatchFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []int{11}, partial.Succeeded)
	require.Len(t, partial.Failed, 1)
	assert.Equal(t, 1, partial.Failed[0].Index)
	assert.Equal(t, "amount", partial.Failed[0].Fields[0].Field)
	assert.Contains(t, err.Error(), "must be positive")

	require.Len(t, created, 1)
	assert.Equal(t, 11, created[0].ID)

	records := seen.all()[0].Body["records"].([]any)
	require.Len(t, records, 2)
	_, hasID := records[0].(map[string]any)["Id"]
	assert.False(t, hasID)
}

func TestStoreUpdateBatch(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, req recordedRequest) {
		switch req.Method {
		case http.MethodPost:
			write(w, http.StatusOK, `{"success":true,"data":[
				{"Id":3,"name":"North Farm","location":"Sector 4","size":"50","size_unit":"acres"},
				{"Id":4,"name":"South Farm","location":"Sector 9","size":12,"size_unit":"hectares"}
			]}`)
		case http.MethodPatch:
			write(w, http.StatusOK, `{"success":true,"results":[
				{"success":true},
				{"success":false,"message":"invalid record","errors":[{"field":"size","message":"must be positive"}]}
			]}`)
		default:
			write(w, http.StatusMethodNotAllowed, `{}`)
		}
	})
	farms := NewStore[models.Farm, models.FarmInput](client, "farm", FarmCodec, nil)

	updated, err := farms.UpdateBatch(context.Background(), []Patch[models.FarmInput]{
		{ID: 3, Input: models.FarmInput{ID: models.Int(30), Name: models.String("North Farm II")}},
		{ID: 9, Input: models.FarmInput{Name: models.String("Ghost Farm")}},
		{ID: 4, Input: models.FarmInput{Size: models.Float(-1)}},
	})

	var partial *repository.PartialBatchFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "update", partial.Op)
	assert.Equal(t, []int{3}, partial.Succeeded)
	require.Len(t, partial.Failed, 2)
	assert.Equal(t, 1, partial.Failed[0].Index)
	assert.Contains(t, partial.Failed[0].Message, "record not found")
	assert.Equal(t, 2, partial.Failed[1].Index)
	assert.Equal(t, "size", partial.Failed[1].Fields[0].Field)

	require.Len(t, updated, 1)
	assert.Equal(t, 3, updated[0].ID)
	assert.Equal(t, "North Farm II", updated[0].Name)
	assert.Equal(t, 50.0, updated[0].Size)

	t.Run("request-shape", func(t *testing.T) {
		reqs := seen.all()
		require.Len(t, reqs, 2)
		clause := reqs[0].Body["where"].([]any)[0].(map[string]any)
		assert.Equal(t, "Id", clause["fieldName"])
		assert.Equal(t, "in", clause["operator"])
		assert.Len(t, clause["values"], 3)

		records := reqs[1].Body["records"].([]any)
		require.Len(t, records, 2)
		assert.EqualValues(t, 3, records[0].(map[string]any)["Id"])
		assert.EqualValues(t, 4, records[1].(map[string]any)["Id"])
	})

	t.Run("all-succeed", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, req recordedRequest) {
			if req.Method == http.MethodPost {
				write(w, http.StatusOK, `{"success":true,"data":[{"Id":3,"name":"North Farm","location":"Sector 4","size":50,"size_unit":"acres"}]}`)
				return
			}
			write(w, http.StatusOK, `{"success":true,"results":[{"success":true}]}`)
		})
		farms := NewStore[models.Farm, models.FarmInput](client, "farm", FarmCodec, nil)
		updated, err := farms.UpdateBatch(context.Background(), []Patch[models.FarmInput]{
			{ID: 3, Input: models.FarmInput{Location: models.String("Sector 5")}},
		})
		require.NoError(t, err)
		require.Len(t, updated, 1)
		assert.Equal(t, "Sector 5", updated[0].Location)
	})
}

func TestStoreUpdateKeepsID(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, req recordedRequest) {
		switch req.Method {
		case http.MethodGet:
			write(w, http.StatusOK, `{"success":true,"data":{"Id":3,"name":"North Farm","location":"Sector 4","size":"50","size_unit":"acres"}}`)
		case http.MethodPatch:
			write(w, http.StatusOK, `{"success":true,"results":[{"success":true}]}`)
		default:
			write(w, http.StatusMethodNotAllowed, `{}`)
		}
	})
	farms := NewStore[models.Farm, models.FarmInput](client, "farm", FarmCodec, nil)

	updated, err := farms.Update(context.Background(), 3, models.FarmInput{ID: models.Int(40), Name: models.String("North Farm II")})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.ID)
	assert.Equal(t, "North Farm II", updated.Name)
	assert.Equal(t, 50.0, updated.Size)

	reqs := seen.all()
	require.Len(t, reqs, 2)
	patch := reqs[1]
	assert.Equal(t, "/tables/farms/records", patch.Path)
	record := patch.Body["records"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 3, record["Id"])
	assert.Equal(t, "North Farm II", record["name"])
}

func TestTaskStoreToggle(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, req recordedRequest) {
		if req.Method == http.MethodGet {
			write(w, http.StatusOK, `{"success":true,"data":{"Id":5,"farm_id":1,"crop_id":"","title":"Weed","due_date":"2024-06-10T08:00:00Z","priority":"low","completed":false}}`)
			return
		}
		write(w, http.StatusOK, `{"success":true,"results":[{"success":true}]}`)
	})
	tasks := NewTaskStore(client, nil)

	toggled, err := tasks.ToggleComplete(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.Nil(t, toggled.CropID)
	reqs := seen.all()
	patched := reqs[len(reqs)-1].Body["records"].([]any)[0].(map[string]any)
	assert.Equal(t, true, patched["completed"])
	assert.True(t, strings.HasPrefix(patched["due_date"].(string), "2024-06-10"))
}

func ptr[T any](v T) *T { return &v }
