package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/farmboard/internal/config"
	"github.com/mamadbah2/farmboard/internal/domain/models"
)

const (
	reportsRange   = "Reports!A:H"
	breakdownRange = "Breakdown!A:F"
)

// ReportExporter appends generated financial reports to a spreadsheet.
type ReportExporter interface {
	AppendReport(ctx context.Context, report models.FinancialReport) error
}

// GoogleSheetExporter implements ReportExporter using the official Google Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Sheets backed exporter. Without extra options
// the service account credentials file from cfg is used.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetExporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsPath),
			option.WithScopes(sheetsapi.SpreadsheetsScope),
		}
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendReport writes one summary row to the Reports tab and one row per
// category to the Breakdown tab.
func (e *GoogleSheetExporter) AppendReport(ctx context.Context, report models.FinancialReport) error {
	if err := e.appendRows(ctx, reportsRange, [][]interface{}{SummaryRow(report)}); err != nil {
		return err
	}

	rows := BreakdownRows(report)
	if len(rows) == 0 {
		return nil
	}
	return e.appendRows(ctx, breakdownRange, rows)
}

func (e *GoogleSheetExporter) appendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	payload := &sheetsapi.ValueRange{Values: rows}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	e.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// SummaryRow is the Reports tab row: generated at, period, start, end, income,
// expenses, profit/loss and the largest expense category.
func SummaryRow(report models.FinancialReport) []interface{} {
	top := ""
	if len(report.ExpenseBreakdown) > 0 {
		top = report.ExpenseBreakdown[0].Label
	}
	return []interface{}{
		report.GeneratedAt.UTC().Format(time.RFC3339),
		string(report.Period),
		report.Start.String(),
		report.End.String(),
		report.TotalIncome,
		report.TotalExpenses,
		report.ProfitLoss,
		top,
	}
}

// BreakdownRows flattens both category breakdowns, income first.
func BreakdownRows(report models.FinancialReport) [][]interface{} {
	rows := make([][]interface{}, 0, len(report.IncomeBreakdown)+len(report.ExpenseBreakdown))
	add := func(kind string, totals []models.CategoryTotal) {
		for _, t := range totals {
			rows = append(rows, []interface{}{report.Start.String(), report.End.String(), kind, t.Label, t.Total, t.Count})
		}
	}
	add("income", report.IncomeBreakdown)
	add("expense", report.ExpenseBreakdown)
	return rows
}
