// Package fixtures embeds the seed data of the in-memory stores and the
// weather forecast.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository/memory"
)

//go:embed data/*.json
var files embed.FS

func decode[T any](name string) ([]T, error) {
	raw, err := files.ReadFile("data/" + name)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", name, err)
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", name, err)
	}
	return out, nil
}

// Seed returns a fresh copy of every entity fixture.
func Seed() (memory.Seed, error) {
	var (
		seed memory.Seed
		err  error
	)
	if seed.Farms, err = decode[models.Farm]("farms.json"); err != nil {
		return seed, err
	}
	if seed.Crops, err = decode[models.Crop]("crops.json"); err != nil {
		return seed, err
	}
	if seed.Tasks, err = decode[models.Task]("tasks.json"); err != nil {
		return seed, err
	}
	if seed.Expenses, err = decode[models.Expense]("expenses.json"); err != nil {
		return seed, err
	}
	if seed.Income, err = decode[models.Income]("income.json"); err != nil {
		return seed, err
	}
	return seed, nil
}

// Forecast returns the seven-day weather fixture.
func Forecast() ([]models.Weather, error) {
	return decode[models.Weather]("weather.json")
}
