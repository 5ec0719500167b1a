package pages

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/service/weather"
)

// Weather is the forecast page.
type Weather struct {
	deps   Deps
	logger *zap.Logger
	guard  guard

	mu     sync.RWMutex
	report weather.Report
}

// NewWeather builds the weather page controller.
func NewWeather(deps Deps) *Weather {
	deps = deps.withDefaults()
	return &Weather{deps: deps, logger: deps.Logger.Named("page.weather")}
}

// Load fetches the forecast and derives today's advice.
func (p *Weather) Load(ctx context.Context) error {
	if p.deps.Weather == nil {
		return loadFailed(p.deps, p.logger, "Failed to load weather forecast", errors.New("weather service not configured"))
	}
	gen := p.guard.begin()
	report, err := p.deps.Weather.Report(ctx)
	if !p.guard.current(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return loadFailed(p.deps, p.logger, "Failed to load weather forecast", err)
	}

	if !p.guard.apply(gen, func() {
		p.mu.Lock()
		p.report = report
		p.mu.Unlock()
	}) {
		return ErrSuperseded
	}
	return nil
}

// Close discards any load still in flight.
func (p *Weather) Close() { p.guard.close() }

// Report returns the loaded forecast, today's day, advice and stats.
func (p *Weather) Report() weather.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.report
}

// Reports is the financial reports page.
type Reports struct {
	deps   Deps
	logger *zap.Logger
	guard  guard

	mu     sync.RWMutex
	period models.Period
	day    models.Date
	report models.FinancialReport
}

// NewReports builds the reports page controller, defaulting to this month.
func NewReports(deps Deps) *Reports {
	deps = deps.withDefaults()
	return &Reports{
		deps:   deps,
		logger: deps.Logger.Named("page.reports"),
		period: models.PeriodMonth,
		day:    models.Today(deps.Now()),
	}
}

// Select changes the period and the reference day; a zero day keeps the
// current one.
func (p *Reports) Select(period models.Period, day models.Date) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if period != "" {
		p.period = period
	}
	if !day.IsZero() {
		p.day = day
	}
}

// Load computes the report for the selected period.
func (p *Reports) Load(ctx context.Context) error {
	p.mu.RLock()
	period, day := p.period, p.day
	p.mu.RUnlock()

	gen := p.guard.begin()
	report, err := p.deps.Reporting.Report(ctx, period, day)
	if !p.guard.current(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return loadFailed(p.deps, p.logger, "Failed to load reports", err)
	}

	if !p.guard.apply(gen, func() {
		p.mu.Lock()
		p.report = report
		p.mu.Unlock()
	}) {
		return ErrSuperseded
	}
	return nil
}

// Close discards any load still in flight.
func (p *Reports) Close() { p.guard.close() }

// Report returns the loaded report.
func (p *Reports) Report() models.FinancialReport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.report
}
