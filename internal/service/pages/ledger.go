package pages

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/forms"
	"github.com/mamadbah2/farmboard/internal/service/compose"
	"github.com/mamadbah2/farmboard/internal/service/filter"
	"github.com/mamadbah2/farmboard/internal/service/reporting"
)

// Expenses is the expense ledger page.
type Expenses struct {
	*editor[models.Expense, models.ExpenseInput]
	deps   Deps
	logger *zap.Logger
	guard  guard

	mu       sync.RWMutex
	farms    []models.Farm
	criteria filter.Criteria
	order    filter.Sort
}

// NewExpenses builds the expenses page controller.
func NewExpenses(deps Deps) *Expenses {
	deps = deps.withDefaults()
	p := &Expenses{deps: deps, logger: deps.Logger.Named("page.expenses")}
	p.editor = newEditor[models.Expense, models.ExpenseInput](forms.KindExpense, deps.Stores.Expenses, deps, messages{
		created:      "Expense recorded successfully",
		updated:      "Expense updated successfully",
		deleted:      "Expense deleted successfully",
		saveFailed:   "Failed to save expense",
		deleteFailed: "Failed to delete expense",
	})
	p.editor.logger = p.logger
	p.editor.describe = func(e *models.Expense) forms.Form {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return forms.NewExpense(e, p.farms, p.deps.Now())
	}
	return p
}

// Load fetches expenses and farms concurrently.
func (p *Expenses) Load(ctx context.Context) error {
	gen := p.guard.begin()

	var (
		expenses []models.Expense
		farms    []models.Farm
	)
	g, gctx := errgroup.WithContext(ctx)
	fetch(gctx, g, &expenses, p.deps.Stores.Expenses.GetAll)
	fetch(gctx, g, &farms, p.deps.Stores.Farms.GetAll)
	err := g.Wait()

	if !p.guard.current(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return loadFailed(p.deps, p.logger, "Failed to load expenses", err)
	}

	if !p.guard.apply(gen, func() {
		p.mu.Lock()
		p.farms = farms
		p.mu.Unlock()
		p.set(expenses)
	}) {
		return ErrSuperseded
	}
	return nil
}

// Close discards any load still in flight.
func (p *Expenses) Close() { p.guard.close() }

// SetCriteria replaces the farm and category filters.
func (p *Expenses) SetCriteria(c filter.Criteria) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria = c
}

// SortBy selects key, flipping the direction when it is already selected.
func (p *Expenses) SortBy(key filter.SortKey) filter.Sort {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = p.order.Toggle(key)
	return p.order
}

// SetSort replaces the ordering.
func (p *Expenses) SetSort(s filter.Sort) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = s
}

// Views composes, filters and orders the expenses.
func (p *Expenses) Views() []models.ExpenseView {
	p.mu.RLock()
	views := compose.Expenses(p.snapshot(), p.farms)
	criteria, order := p.criteria, p.order
	p.mu.RUnlock()
	return filter.SortLedger(filter.Expenses(views, criteria), order)
}

// Summary ranks the categories of the visible expenses.
func (p *Expenses) Summary() ([]models.CategoryTotal, float64) {
	summary := reporting.CategoryTotals(p.Views())
	return summary.Ranked(models.ExpenseCategoryOptions), summary.Total
}

// Charts bundles the trend series and the per-farm comparison.
type Charts struct {
	Trend []reporting.TrendBucket `json:"trend"`
	Farms []reporting.FarmTotal   `json:"farms"`
}

// Charts loads the trend (for the selected farm) and the farm comparison
// concurrently.
func (p *Expenses) Charts(ctx context.Context, g reporting.Granularity) (Charts, error) {
	p.mu.RLock()
	farmID := p.criteria.FarmID
	p.mu.RUnlock()

	var charts Charts
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		charts.Trend, err = p.deps.Reporting.ExpenseTrend(egctx, g, farmID)
		return err
	})
	eg.Go(func() (err error) {
		charts.Farms, err = p.deps.Reporting.FarmComparison(egctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return Charts{}, loadFailed(p.deps, p.logger, "Failed to load chart data", err)
	}
	return charts, nil
}

// Income is the income ledger page.
type Income struct {
	*editor[models.Income, models.IncomeInput]
	deps   Deps
	logger *zap.Logger
	guard  guard

	mu       sync.RWMutex
	farms    []models.Farm
	crops    []models.Crop
	criteria filter.Criteria
	order    filter.Sort
}

// NewIncome builds the income page controller.
func NewIncome(deps Deps) *Income {
	deps = deps.withDefaults()
	p := &Income{deps: deps, logger: deps.Logger.Named("page.income")}
	p.editor = newEditor[models.Income, models.IncomeInput](forms.KindIncome, deps.Stores.Income, deps, messages{
		created:      "Income added successfully",
		updated:      "Income updated successfully",
		deleted:      "Income deleted successfully",
		saveFailed:   "Failed to save income",
		deleteFailed: "Failed to delete income",
	})
	p.editor.logger = p.logger
	p.editor.describe = func(i *models.Income) forms.Form {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return forms.NewIncome(i, p.farms, p.crops, p.deps.Now())
	}
	return p
}

// Load fetches income, farms and crops concurrently.
func (p *Income) Load(ctx context.Context) error {
	gen := p.guard.begin()

	var (
		income []models.Income
		farms  []models.Farm
		crops  []models.Crop
	)
	g, gctx := errgroup.WithContext(ctx)
	fetch(gctx, g, &income, p.deps.Stores.Income.GetAll)
	fetch(gctx, g, &farms, p.deps.Stores.Farms.GetAll)
	fetch(gctx, g, &crops, p.deps.Stores.Crops.GetAll)
	err := g.Wait()

	if !p.guard.current(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return loadFailed(p.deps, p.logger, "Failed to load income data", err)
	}

	if !p.guard.apply(gen, func() {
		p.mu.Lock()
		p.farms, p.crops = farms, crops
		p.mu.Unlock()
		p.set(income)
	}) {
		return ErrSuperseded
	}
	return nil
}

// Close discards any load still in flight.
func (p *Income) Close() { p.guard.close() }

// SetCriteria replaces the category filter and the search term.
func (p *Income) SetCriteria(c filter.Criteria) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria = c
}

// SortBy selects key, flipping the direction when it is already selected.
func (p *Income) SortBy(key filter.SortKey) filter.Sort {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = p.order.Toggle(key)
	return p.order
}

// SetSort replaces the ordering.
func (p *Income) SetSort(s filter.Sort) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = s
}

// Views composes, filters and orders the income records.
func (p *Income) Views() []models.IncomeView {
	p.mu.RLock()
	views := compose.Income(p.snapshot(), p.farms, p.crops)
	criteria, order := p.criteria, p.order
	p.mu.RUnlock()
	return filter.SortLedger(filter.Income(views, criteria), order)
}

// Total sums the visible income.
func (p *Income) Total() float64 {
	return reporting.Sum(p.Views())
}
