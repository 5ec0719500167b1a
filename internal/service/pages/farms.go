package pages

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/forms"
	"github.com/mamadbah2/farmboard/internal/service/compose"
	"github.com/mamadbah2/farmboard/internal/service/filter"
)

func loadFailed(deps Deps, logger *zap.Logger, message string, err error) error {
	logger.Error("failed to load page", zap.String("message", message), zap.Error(err))
	deps.Notifier.Notify(message, LevelError)
	return fmt.Errorf("load page: %w", err)
}

// Farms is the farm list page.
type Farms struct {
	*editor[models.Farm, models.FarmInput]
	deps   Deps
	logger *zap.Logger
	guard  guard
}

// NewFarms builds the farms page controller.
func NewFarms(deps Deps) *Farms {
	deps = deps.withDefaults()
	p := &Farms{deps: deps, logger: deps.Logger.Named("page.farms")}
	p.editor = newEditor[models.Farm, models.FarmInput](forms.KindFarm, deps.Stores.Farms, deps, messages{
		created:      "Farm created successfully",
		updated:      "Farm updated successfully",
		deleted:      "Farm deleted successfully",
		saveFailed:   "Failed to save farm",
		deleteFailed: "Failed to delete farm",
	})
	p.editor.logger = p.logger
	p.editor.describe = forms.NewFarm
	return p
}

// Load fetches the farms.
func (p *Farms) Load(ctx context.Context) error {
	gen := p.guard.begin()
	farms, err := p.deps.Stores.Farms.GetAll(ctx)
	if !p.guard.current(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return loadFailed(p.deps, p.logger, "Failed to load farms", err)
	}
	if !p.guard.apply(gen, func() { p.set(farms) }) {
		return ErrSuperseded
	}
	return nil
}

// Close discards any load still in flight.
func (p *Farms) Close() { p.guard.close() }

// Farms returns the loaded farms.
func (p *Farms) Farms() []models.Farm { return p.snapshot() }

// Crops is the crop list page.
type Crops struct {
	*editor[models.Crop, models.CropInput]
	deps   Deps
	logger *zap.Logger
	guard  guard

	mu       sync.RWMutex
	farms    []models.Farm
	criteria filter.Criteria
}

// NewCrops builds the crops page controller.
func NewCrops(deps Deps) *Crops {
	deps = deps.withDefaults()
	p := &Crops{deps: deps, logger: deps.Logger.Named("page.crops")}
	p.editor = newEditor[models.Crop, models.CropInput](forms.KindCrop, deps.Stores.Crops, deps, messages{
		created:      "Crop created successfully",
		updated:      "Crop updated successfully",
		deleted:      "Crop deleted successfully",
		saveFailed:   "Failed to save crop",
		deleteFailed: "Failed to delete crop",
	})
	p.editor.logger = p.logger
	p.editor.describe = func(c *models.Crop) forms.Form { return forms.NewCrop(c, p.Farms()) }
	return p
}

// Load fetches crops and farms concurrently; any failure fails the load.
func (p *Crops) Load(ctx context.Context) error {
	gen := p.guard.begin()

	var (
		crops []models.Crop
		farms []models.Farm
	)
	g, gctx := errgroup.WithContext(ctx)
	fetch(gctx, g, &crops, p.deps.Stores.Crops.GetAll)
	fetch(gctx, g, &farms, p.deps.Stores.Farms.GetAll)
	err := g.Wait()

	if !p.guard.current(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return loadFailed(p.deps, p.logger, "Failed to load crops", err)
	}

	if !p.guard.apply(gen, func() {
		p.mu.Lock()
		p.farms = farms
		p.mu.Unlock()
		p.set(crops)
	}) {
		return ErrSuperseded
	}
	return nil
}

// Close discards any load still in flight.
func (p *Crops) Close() { p.guard.close() }

// Farms returns the farms loaded alongside the crops.
func (p *Crops) Farms() []models.Farm {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.Farm(nil), p.farms...)
}

// SetCriteria replaces the farm and status filters.
func (p *Crops) SetCriteria(c filter.Criteria) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria = c
}

// Views composes the crops with the current farms and applies the filters.
func (p *Crops) Views() []models.CropView {
	p.mu.RLock()
	criteria := p.criteria
	p.mu.RUnlock()
	return filter.Crops(compose.Crops(p.snapshot(), p.Farms()), criteria)
}

// StatusCounts counts every loaded crop per status.
func (p *Crops) StatusCounts() map[models.CropStatus]int {
	counts := make(map[models.CropStatus]int, len(models.CropStatusOptions))
	for _, opt := range models.CropStatusOptions {
		counts[models.CropStatus(opt.Value)] = 0
	}
	for _, c := range p.snapshot() {
		counts[c.Status]++
	}
	return counts
}

// HandleIntent opens the edit form for an "edit" intent.
func (p *Crops) HandleIntent(intent Intent) error {
	if intent.Action != "edit" {
		return nil
	}
	_, err := p.Edit(intent.ID)
	return err
}
