package pages

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/service/compose"
	"github.com/mamadbah2/farmboard/internal/service/reporting"
	"github.com/mamadbah2/farmboard/internal/service/weather"
)

const activeCropLimit = 4

// DashboardState is everything the landing page shows.
type DashboardState struct {
	TodaysTasks     []models.TaskView      `json:"todaysTasks"`
	ActiveCrops     []models.CropView      `json:"activeCrops"`
	Weather         *models.Weather        `json:"weather,omitempty"`
	Advice          []models.WeatherAdvice `json:"advice,omitempty"`
	MonthlyIncome   float64                `json:"monthlyIncome"`
	MonthlyExpenses float64                `json:"monthlyExpenses"`
	MonthlyProfit   float64                `json:"monthlyProfit"`
}

// Dashboard is the landing page.
type Dashboard struct {
	deps   Deps
	logger *zap.Logger
	guard  guard

	mu    sync.RWMutex
	state DashboardState
	farms []models.Farm
	crops []models.Crop
}

// NewDashboard builds the dashboard controller.
func NewDashboard(deps Deps) *Dashboard {
	deps = deps.withDefaults()
	return &Dashboard{deps: deps, logger: deps.Logger.Named("page.dashboard")}
}

// Load fetches today's tasks, farms, crops, today's weather, expenses and
// income concurrently. Any failure fails the whole load.
func (p *Dashboard) Load(ctx context.Context) error {
	gen := p.guard.begin()

	var (
		tasks    []models.Task
		farms    []models.Farm
		crops    []models.Crop
		expenses []models.Expense
		income   []models.Income
		today    *models.Weather
	)
	g, gctx := errgroup.WithContext(ctx)
	fetch(gctx, g, &tasks, p.deps.Stores.Tasks.GetTodaysTasks)
	fetch(gctx, g, &farms, p.deps.Stores.Farms.GetAll)
	fetch(gctx, g, &crops, p.deps.Stores.Crops.GetAll)
	fetch(gctx, g, &expenses, p.deps.Stores.Expenses.GetAll)
	fetch(gctx, g, &income, p.deps.Stores.Income.GetAll)
	if p.deps.Weather != nil {
		g.Go(func() error {
			w, err := p.deps.Weather.Today(gctx)
			if err != nil {
				return err
			}
			today = &w
			return nil
		})
	}
	err := g.Wait()

	if !p.guard.current(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return loadFailed(p.deps, p.logger, "Failed to load dashboard", err)
	}

	lookup := compose.NewLookup(farms, crops)
	state := DashboardState{
		TodaysTasks: make([]models.TaskView, 0, len(tasks)),
		ActiveCrops: make([]models.CropView, 0, activeCropLimit),
		Weather:     today,
	}
	for _, t := range tasks {
		state.TodaysTasks = append(state.TodaysTasks, lookup.Task(t))
	}
	for _, c := range crops {
		if len(state.ActiveCrops) == activeCropLimit {
			break
		}
		if c.Status.Active() {
			state.ActiveCrops = append(state.ActiveCrops, models.CropView{Crop: c, FarmName: lookup.FarmName(c.FarmID)})
		}
	}
	if today != nil {
		state.Advice = weather.Advice(*today)
	}

	now := models.Today(p.deps.Now())
	start, end := reporting.MonthBounds(now.Year(), now.Month())
	state.MonthlyIncome = reporting.RangeTotal(income, start, end)
	state.MonthlyExpenses = reporting.RangeTotal(expenses, start, end)
	state.MonthlyProfit = decimal.NewFromFloat(state.MonthlyIncome).Sub(decimal.NewFromFloat(state.MonthlyExpenses)).InexactFloat64()

	if !p.guard.apply(gen, func() {
		p.mu.Lock()
		p.state, p.farms, p.crops = state, farms, crops
		p.mu.Unlock()
	}) {
		return ErrSuperseded
	}
	return nil
}

// Close discards any load still in flight.
func (p *Dashboard) Close() { p.guard.close() }

// State returns a copy of the loaded state.
func (p *Dashboard) State() DashboardState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.state
	s.TodaysTasks = append([]models.TaskView(nil), s.TodaysTasks...)
	s.ActiveCrops = append([]models.CropView(nil), s.ActiveCrops...)
	return s
}

// ToggleTask flips one of today's tasks and updates it in place.
func (p *Dashboard) ToggleTask(ctx context.Context, id int) (models.Task, error) {
	task, err := p.deps.Stores.Tasks.ToggleComplete(ctx, id)
	if err != nil {
		p.logger.Error("failed to toggle task", zap.Int("id", id), zap.Error(err))
		p.deps.Notifier.Notify("Failed to update task", LevelError)
		return models.Task{}, err
	}

	p.mu.Lock()
	lookup := compose.NewLookup(p.farms, p.crops)
	for i, view := range p.state.TodaysTasks {
		if view.ID == id {
			p.state.TodaysTasks[i] = lookup.Task(task)
		}
	}
	p.mu.Unlock()

	p.deps.Notifier.Notify(toggleMessage(task), LevelSuccess)
	return task, nil
}

// OpenTask asks the navigation layer to edit a task.
func (p *Dashboard) OpenTask(id int) {
	p.deps.Navigator.Navigate(Intent{Page: "tasks", Action: "edit", ID: id})
}

// OpenCrop asks the navigation layer to edit a crop.
func (p *Dashboard) OpenCrop(id int) {
	p.deps.Navigator.Navigate(Intent{Page: "crops", Action: "edit", ID: id})
}
