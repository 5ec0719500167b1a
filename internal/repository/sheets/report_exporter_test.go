package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/mamadbah2/farmboard/internal/config"
	"github.com/mamadbah2/farmboard/internal/domain/models"
)

func sampleReport() models.FinancialReport {
	return models.FinancialReport{
		Period:        models.PeriodMonth,
		Start:         models.MustDate("2024-06-01"),
		End:           models.MustDate("2024-06-30"),
		TotalIncome:   4020,
		TotalExpenses: 870.6,
		ProfitLoss:    3149.4,
		IncomeBreakdown: []models.CategoryTotal{
			{Category: "sales", Label: "Sales", Total: 4020, Count: 4},
		},
		ExpenseBreakdown: []models.CategoryTotal{
			{Category: "seeds", Label: "Seeds & Plants", Total: 450, Count: 2},
			{Category: "fuel", Label: "Fuel", Total: 420.6, Count: 3},
		},
		GeneratedAt: time.Date(2024, time.July, 1, 7, 0, 0, 0, time.UTC),
	}
}

func TestSummaryRow(t *testing.T) {
	row := SummaryRow(sampleReport())
	assert.Equal(t, []interface{}{"2024-07-01T07:00:00Z", "month", "2024-06-01", "2024-06-30", 4020.0, 870.6, 3149.4, "Seeds & Plants"}, row)

	t.Run("no-expenses", func(t *testing.T) {
		report := sampleReport()
		report.ExpenseBreakdown = nil
		assert.Equal(t, "", SummaryRow(report)[7])
	})
}

func TestBreakdownRows(t *testing.T) {
	rows := BreakdownRows(sampleReport())
	require.Len(t, rows, 3)
	assert.Equal(t, []interface{}{"2024-06-01", "2024-06-30", "income", "Sales", 4020.0, 4}, rows[0])
	assert.Equal(t, "expense", rows[1][2])
	assert.Equal(t, "Fuel", rows[2][3])
}

func TestAppendReport(t *testing.T) {
	var (
		mu    sync.Mutex
		calls = map[string][][]interface{}{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/v4/spreadsheets/sheet-1/values/")
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))

		var body struct {
			Values [][]interface{} `json:"values"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		tab := "Breakdown"
		if strings.Contains(r.URL.Path, "Reports") {
			tab = "Reports"
		}
		mu.Lock()
		calls[tab] = body.Values
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	exporter, err := NewGoogleSheetExporter(context.Background(), config.SheetsConfig{SpreadsheetID: "sheet-1"}, nil,
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	require.NoError(t, exporter.AppendReport(context.Background(), sampleReport()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls["Reports"], 1)
	assert.Equal(t, "month", calls["Reports"][0][1])
	assert.Equal(t, 3149.4, calls["Reports"][0][6])
	assert.Len(t, calls["Breakdown"], 3)

	t.Run("api-error", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
		}))
		defer failing.Close()

		exporter, err := NewGoogleSheetExporter(context.Background(), config.SheetsConfig{SpreadsheetID: "sheet-1"}, nil,
			option.WithEndpoint(failing.URL+"/"), option.WithoutAuthentication())
		require.NoError(t, err)
		assert.ErrorContains(t, exporter.AppendReport(context.Background(), sampleReport()), "append rows into range Reports!A:H")
	})
}
