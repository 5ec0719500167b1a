// Package weather serves the read-only forecast and the field-work advice
// derived from it.
package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/domain/models"
)

// ErrNoForecast is returned when the provider has no days at all.
var ErrNoForecast = errors.New("forecast unavailable")

// Provider supplies forecast days in chronological order.
type Provider interface {
	Forecast(ctx context.Context) ([]models.Weather, error)
}

// StaticProvider serves a fixed forecast after an optional delay.
type StaticProvider struct {
	Days  []models.Weather
	Delay time.Duration
}

// Forecast returns a copy of the configured days.
func (p StaticProvider) Forecast(ctx context.Context) ([]models.Weather, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return append([]models.Weather(nil), p.Days...), nil
}

// Service answers forecast queries for the Weather page and the dashboard.
type Service struct {
	provider Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new weather service instance.
func NewService(provider Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, logger: logger, now: time.Now}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Forecast returns the upcoming days.
func (s *Service) Forecast(ctx context.Context) ([]models.Weather, error) {
	days, err := s.provider.Forecast(ctx)
	if err != nil {
		s.logger.Error("failed to load forecast", zap.Error(err))
		return nil, fmt.Errorf("load forecast: %w", err)
	}
	return days, nil
}

// Today returns today's forecast, or the first day when today is not covered.
func (s *Service) Today(ctx context.Context) (models.Weather, error) {
	days, err := s.Forecast(ctx)
	if err != nil {
		return models.Weather{}, err
	}
	return PickToday(days, s.now())
}

// PickToday selects the day matching now's local date, falling back to the
// first day.
func PickToday(days []models.Weather, now time.Time) (models.Weather, error) {
	if len(days) == 0 {
		return models.Weather{}, ErrNoForecast
	}
	today := models.Today(now)
	for _, day := range days {
		if day.Date.Equal(today) {
			return day, nil
		}
	}
	return days[0], nil
}

// Advice lists the field-work recommendations for one day.
func Advice(w models.Weather) []models.WeatherAdvice {
	advice := make([]models.WeatherAdvice, 0, 4)

	switch {
	case w.Precipitation > 70:
		advice = append(advice, models.WeatherAdvice{
			Level:   models.AdviceWarning,
			Icon:    "CloudRain",
			Message: "Heavy rain expected - postpone irrigation and outdoor work",
		})
	case w.Precipitation > 30:
		advice = append(advice, models.WeatherAdvice{
			Level:   models.AdviceInfo,
			Icon:    "Droplets",
			Message: "Light rain possible - monitor soil moisture levels",
		})
	}

	if w.High > 85 {
		advice = append(advice, models.WeatherAdvice{
			Level:   models.AdviceWarning,
			Icon:    "Thermometer",
			Message: "High temperatures - ensure adequate irrigation for crops",
		})
	}
	if w.WindSpeed > 20 {
		advice = append(advice, models.WeatherAdvice{
			Level:   models.AdviceCaution,
			Icon:    "Wind",
			Message: "Strong winds - secure loose materials and check plant support",
		})
	}
	if w.Humidity < 30 {
		advice = append(advice, models.WeatherAdvice{
			Level:   models.AdviceInfo,
			Icon:    "Gauge",
			Message: "Low humidity - increase watering frequency for sensitive plants",
		})
	}
	return advice
}

// Stats summarizes a forecast week.
type Stats struct {
	AvgHigh     int `json:"avgHigh"`
	AvgLow      int `json:"avgLow"`
	RainyDays   int `json:"rainyDays"`
	AvgHumidity int `json:"avgHumidity"`
}

// Summarize averages the forecast, rounding to whole units. Rainy days have a
// precipitation chance above 50%.
func Summarize(days []models.Weather) Stats {
	if len(days) == 0 {
		return Stats{}
	}
	var high, low, humidity float64
	var rainy int
	for _, day := range days {
		high += day.High
		low += day.Low
		humidity += float64(day.Humidity)
		if day.Precipitation > 50 {
			rainy++
		}
	}
	n := float64(len(days))
	return Stats{
		AvgHigh:     round(high / n),
		AvgLow:      round(low / n),
		RainyDays:   rainy,
		AvgHumidity: round(humidity / n),
	}
}

// round matches half-up rounding of the chart labels.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Report bundles everything the Weather page shows.
type Report struct {
	Forecast []models.Weather       `json:"forecast"`
	Today    models.Weather         `json:"today"`
	Advice   []models.WeatherAdvice `json:"advice"`
	Stats    Stats                  `json:"stats"`
}

// Report loads the forecast once and derives today, advice and stats from it.
func (s *Service) Report(ctx context.Context) (Report, error) {
	days, err := s.Forecast(ctx)
	if err != nil {
		return Report{}, err
	}
	today, err := PickToday(days, s.now())
	if err != nil {
		return Report{}, err
	}
	return Report{Forecast: days, Today: today, Advice: Advice(today), Stats: Summarize(days)}, nil
}
