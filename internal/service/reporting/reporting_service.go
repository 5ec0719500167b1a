package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository"
	"github.com/mamadbah2/farmboard/internal/service/compose"
)

const topCategories = 3

// Service computes financial summaries over the income and expense stores.
type Service struct {
	farms    repository.FarmStore
	expenses repository.ExpenseStore
	income   repository.IncomeStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(stores repository.Stores, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		farms:    stores.Farms,
		expenses: stores.Expenses,
		income:   stores.Income,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) ledgers(ctx context.Context) ([]models.Income, []models.Expense, error) {
	var (
		income   []models.Income
		expenses []models.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.income.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("load income: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load ledgers", zap.Error(err))
		return nil, nil, err
	}
	return income, expenses, nil
}

// Report builds the month or year report containing day.
func (s *Service) Report(ctx context.Context, period models.Period, day models.Date) (models.FinancialReport, error) {
	if period != models.PeriodYear {
		period = models.PeriodMonth
	}
	if day.IsZero() {
		day = models.Today(s.now())
	}
	start, end := PeriodBounds(period, day)
	return s.report(ctx, period, start, end)
}

// MonthToDate reports from the first of the current month through today.
func (s *Service) MonthToDate(ctx context.Context) (models.FinancialReport, error) {
	today := models.Today(s.now())
	start, _ := MonthBounds(today.Year(), today.Month())
	return s.report(ctx, models.PeriodMonth, start, today)
}

// PreviousMonth reports the calendar month before the one containing now.
func (s *Service) PreviousMonth(ctx context.Context) (models.FinancialReport, error) {
	today := models.Today(s.now())
	start, _ := MonthBounds(today.Year(), today.Month())
	return s.Report(ctx, models.PeriodMonth, models.DateOf(start.AddDate(0, 0, -1)))
}

func (s *Service) report(ctx context.Context, period models.Period, start, end models.Date) (models.FinancialReport, error) {
	income, expenses, err := s.ledgers(ctx)
	if err != nil {
		return models.FinancialReport{}, fmt.Errorf("build %s report: %w", period, err)
	}

	periodIncome := InRange(income, start, end)
	periodExpenses := InRange(expenses, start, end)
	totalIncome := decimal.NewFromFloat(Sum(periodIncome))
	totalExpenses := decimal.NewFromFloat(Sum(periodExpenses))

	report := models.FinancialReport{
		Period:           period,
		Start:            start,
		End:              end,
		TotalIncome:      totalIncome.InexactFloat64(),
		TotalExpenses:    totalExpenses.InexactFloat64(),
		ProfitLoss:       totalIncome.Sub(totalExpenses).InexactFloat64(),
		MonthlyData:      []models.MonthSummary{},
		IncomeBreakdown:  CategoryTotals(periodIncome).Ranked(models.IncomeCategoryOptions),
		ExpenseBreakdown: CategoryTotals(periodExpenses).Ranked(models.ExpenseCategoryOptions),
		GeneratedAt:      s.now(),
	}
	if period == models.PeriodYear {
		report.MonthlyData = MonthlyBreakdown(income, expenses, start.Year())
	}

	s.logger.Debug("report built",
		zap.String("period", string(period)),
		zap.Stringer("start", start),
		zap.Stringer("end", end),
		zap.Float64("income", report.TotalIncome),
		zap.Float64("expenses", report.TotalExpenses),
	)
	return report, nil
}

// ExpenseSummary ranks expense categories, optionally for one farm.
func (s *Service) ExpenseSummary(ctx context.Context, farmID int) ([]models.CategoryTotal, error) {
	expenses, err := s.expenses.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return CategoryTotals(ByFarm(expenses, farmID)).Ranked(models.ExpenseCategoryOptions), nil
}

// ExpenseTrend buckets expenses by month or year, optionally for one farm.
func (s *Service) ExpenseTrend(ctx context.Context, g Granularity, farmID int) ([]TrendBucket, error) {
	if g != Yearly {
		g = Monthly
	}
	expenses, err := s.expenses.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return Trend(ByFarm(expenses, farmID), g), nil
}

// FarmComparison totals expenses per farm and names each farm.
func (s *Service) FarmComparison(ctx context.Context) ([]FarmTotal, error) {
	var (
		farms    []models.Farm
		expenses []models.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		farms, err = s.farms.GetAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.expenses.GetAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load farm comparison: %w", err)
	}

	lookup := compose.NewLookup(farms, nil)
	totals := FarmComparison(expenses)
	for i := range totals {
		totals[i].FarmName = lookup.FarmLabel(totals[i].FarmID)
	}
	return totals, nil
}

// Summary renders a report as a short plain-text message.
func Summary(report models.FinancialReport) string {
	var b strings.Builder

	title := report.Start.Format("January 2006")
	if report.Period == models.PeriodYear {
		title = report.Start.Format("2006")
	}
	fmt.Fprintf(&b, "Financial report %s (%s to %s)\n", title, report.Start, report.End)
	fmt.Fprintf(&b, "Income: %s\n", money(report.TotalIncome))
	fmt.Fprintf(&b, "Expenses: %s\n", money(report.TotalExpenses))

	label := "Profit"
	if report.ProfitLoss < 0 {
		label = "Loss"
	}
	fmt.Fprintf(&b, "%s: %s", label, money(report.ProfitLoss))

	if len(report.ExpenseBreakdown) > 0 {
		b.WriteString("\nTop expenses:")
		for i, line := range report.ExpenseBreakdown {
			if i == topCategories {
				break
			}
			fmt.Fprintf(&b, "\n- %s: %s", line.Label, money(line.Total))
		}
	}
	return b.String()
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).Abs().StringFixed(2)
}
