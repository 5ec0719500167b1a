// Package memory provides fixture-seeded in-memory entity stores. Each store
// owns its slice; nothing is shared at package level.
package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository"
)

// Latency simulates the round trip of a remote service per operation.
type Latency struct {
	GetAll      time.Duration
	GetByID     time.Duration
	GetByFarmID time.Duration
	Create      time.Duration
	Update      time.Duration
	Delete      time.Duration
	Today       time.Duration
	Toggle      time.Duration
}

// DefaultLatency mirrors the delays the dashboard was designed against.
var DefaultLatency = Latency{
	GetAll:      300 * time.Millisecond,
	GetByID:     200 * time.Millisecond,
	GetByFarmID: 250 * time.Millisecond,
	Create:      400 * time.Millisecond,
	Update:      300 * time.Millisecond,
	Delete:      300 * time.Millisecond,
	Today:       200 * time.Millisecond,
	Toggle:      200 * time.Millisecond,
}

// NoLatency disables simulated delays.
var NoLatency = Latency{}

// Option customizes a store.
type Option func(*options)

type options struct {
	latency Latency
	now     func() time.Time
	logger  *zap.Logger
}

// WithLatency sets simulated per-operation delays.
func WithLatency(l Latency) Option {
	return func(o *options) { o.latency = l }
}

// WithClock injects the clock used for creation stamps and "today".
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{latency: NoLatency, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

var _ repository.Store[models.Farm, models.FarmInput] = (*Store[models.Farm, models.FarmInput])(nil)

// Store is an in-memory collection of one entity type. Mutations are applied
// without optimistic concurrency: concurrent writes to the same id are
// last-write-wins.
type Store[T models.Entity[T], I models.Input[T]] struct {
	kind  string
	mu    sync.RWMutex
	items []T
	opts  options
}

// NewStore seeds a store with a copy of seed.
func NewStore[T models.Entity[T], I models.Input[T]](kind string, seed []T, opts ...Option) *Store[T, I] {
	s := &Store[T, I]{kind: kind, opts: buildOptions(opts)}
	s.items = make([]T, 0, len(seed))
	for _, item := range seed {
		s.items = append(s.items, clone(item))
	}
	s.opts.logger = s.opts.logger.With(zap.String("kind", kind))
	return s
}

// clone deep-copies a record; WithID copies pointer fields.
func clone[T models.Entity[T]](item T) T {
	return item.WithID(item.RecordID())
}

func (s *Store[T, I]) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetAll returns a copy of the whole collection.
func (s *Store[T, I]) GetAll(ctx context.Context) ([]T, error) {
	if err := s.wait(ctx, s.opts.latency.GetAll); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

func (s *Store[T, I]) snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, clone(item))
	}
	return out
}

// GetByID returns a copy of the record with id.
func (s *Store[T, I]) GetByID(ctx context.Context, id int) (T, error) {
	var zero T
	if err := s.wait(ctx, s.opts.latency.GetByID); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return zero, repository.NotFound(s.kind, id)
	}
	return clone(s.items[idx]), nil
}

// Create assigns max(Id)+1 and appends the coerced record.
func (s *Store[T, I]) Create(ctx context.Context, in I) (T, error) {
	var zero T
	if err := s.wait(ctx, s.opts.latency.Create); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record := in.Build(s.opts.now()).WithID(repository.NextID(s.items))
	s.items = append(s.items, record)
	s.opts.logger.Debug("record created", zap.Int("id", record.RecordID()))
	return clone(record), nil
}

// Update merges in over the stored record, keeping its Id.
func (s *Store[T, I]) Update(ctx context.Context, id int, in I) (T, error) {
	var zero T
	if err := s.wait(ctx, s.opts.latency.Update); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return zero, repository.NotFound(s.kind, id)
	}
	updated := in.Apply(s.items[idx]).WithID(id)
	s.items[idx] = updated
	s.opts.logger.Debug("record updated", zap.Int("id", id))
	return clone(updated), nil
}

// Delete removes the record with id. Dependent records in other stores are
// left untouched.
func (s *Store[T, I]) Delete(ctx context.Context, id int) error {
	if err := s.wait(ctx, s.opts.latency.Delete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return repository.NotFound(s.kind, id)
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.opts.logger.Debug("record deleted", zap.Int("id", id))
	return nil
}

func (s *Store[T, I]) indexOf(id int) int {
	for i, item := range s.items {
		if item.RecordID() == id {
			return i
		}
	}
	return -1
}

type farmOwned[T any] interface {
	models.Entity[T]
	models.FarmOwned
}

// FarmScopedStore adds farm filtering to Store.
type FarmScopedStore[T farmOwned[T], I models.Input[T]] struct {
	*Store[T, I]
}

// NewFarmScopedStore seeds a farm-scoped store.
func NewFarmScopedStore[T farmOwned[T], I models.Input[T]](kind string, seed []T, opts ...Option) *FarmScopedStore[T, I] {
	return &FarmScopedStore[T, I]{Store: NewStore[T, I](kind, seed, opts...)}
}

// GetByFarmID returns the records referencing farmID.
func (s *FarmScopedStore[T, I]) GetByFarmID(ctx context.Context, farmID int) ([]T, error) {
	if err := s.wait(ctx, s.opts.latency.GetByFarmID); err != nil {
		return nil, err
	}
	return repository.ByFarm(s.snapshot(), farmID), nil
}

var _ repository.TaskStore = (*TaskStore)(nil)

// TaskStore adds the dashboard helpers to the task collection.
type TaskStore struct {
	*FarmScopedStore[models.Task, models.TaskInput]
}

// NewTaskStore seeds a task store.
func NewTaskStore(seed []models.Task, opts ...Option) *TaskStore {
	return &TaskStore{FarmScopedStore: NewFarmScopedStore[models.Task, models.TaskInput]("task", seed, opts...)}
}

// GetTodaysTasks returns the tasks due on the current local day.
func (s *TaskStore) GetTodaysTasks(ctx context.Context) ([]models.Task, error) {
	if err := s.wait(ctx, s.opts.latency.Today); err != nil {
		return nil, err
	}
	return repository.DueToday(s.snapshot(), s.opts.now()), nil
}

// ToggleComplete flips the completed flag in place.
func (s *TaskStore) ToggleComplete(ctx context.Context, id int) (models.Task, error) {
	if err := s.wait(ctx, s.opts.latency.Toggle); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Task{}, repository.NotFound(s.kind, id)
	}
	s.items[idx].Completed = !s.items[idx].Completed
	return clone(s.items[idx]), nil
}

// Seed is the initial content of every store.
type Seed struct {
	Farms    []models.Farm
	Crops    []models.Crop
	Tasks    []models.Task
	Expenses []models.Expense
	Income   []models.Income
}

// NewStores builds the five in-memory stores from seed.
func NewStores(seed Seed, opts ...Option) repository.Stores {
	o := buildOptions(opts)
	named := func(kind string) []Option {
		return append(append([]Option{}, opts...), WithLogger(o.logger.Named(kind)))
	}
	return repository.Stores{
		Farms:    NewStore[models.Farm, models.FarmInput]("farm", seed.Farms, named("farms")...),
		Crops:    NewFarmScopedStore[models.Crop, models.CropInput]("crop", seed.Crops, named("crops")...),
		Tasks:    NewTaskStore(seed.Tasks, named("tasks")...),
		Expenses: NewFarmScopedStore[models.Expense, models.ExpenseInput]("expense", seed.Expenses, named("expenses")...),
		Income:   NewStore[models.Income, models.IncomeInput]("income", seed.Income, named("income")...),
	}
}
