package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository"
)

// Store keeps one entity type in a collection, keyed by the integer Id field.
type Store[T models.Entity[T], I models.Input[T]] struct {
	coll   *mongo.Collection
	kind   string
	logger *zap.Logger
	now    func() time.Time

	// serializes id allocation within this process
	createMu sync.Mutex
}

// NewStore wraps coll.
func NewStore[T models.Entity[T], I models.Input[T]](coll *mongo.Collection, kind string, logger *zap.Logger) *Store[T, I] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T, I]{
		coll:   coll,
		kind:   kind,
		logger: logger.With(zap.String("collection", coll.Name())),
		now:    time.Now,
	}
}

func (s *Store[T, I]) find(ctx context.Context, filter any) ([]T, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "Id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.kind, err)
	}
	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.kind, err)
	}
	return items, nil
}

// GetAll returns every document of the collection ordered by Id.
func (s *Store[T, I]) GetAll(ctx context.Context) ([]T, error) {
	return s.find(ctx, bson.M{})
}

// GetByID returns the document with id.
func (s *Store[T, I]) GetByID(ctx context.Context, id int) (T, error) {
	var item T
	err := s.coll.FindOne(ctx, bson.M{"Id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return item, repository.NotFound(s.kind, id)
	}
	if err != nil {
		return item, fmt.Errorf("failed to load %s %d: %w", s.kind, id, err)
	}
	return item, nil
}

func (s *Store[T, I]) nextID(ctx context.Context) (int, error) {
	var last struct {
		ID int `bson:"Id"`
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "Id", Value: -1}}).SetProjection(bson.M{"Id": 1})
	err := s.coll.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", s.kind, err)
	}
	return last.ID + 1, nil
}

// Create inserts the record under max(Id)+1.
func (s *Store[T, I]) Create(ctx context.Context, in I) (T, error) {
	var zero T
	s.createMu.Lock()
	defer s.createMu.Unlock()

	id, err := s.nextID(ctx)
	if err != nil {
		return zero, err
	}
	record := in.Build(s.now()).WithID(id)
	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return zero, fmt.Errorf("failed to insert %s: %w", s.kind, err)
	}
	s.logger.Debug("document inserted", zap.Int("id", id))
	return record, nil
}

// Update replaces the stored document with the merged record.
func (s *Store[T, I]) Update(ctx context.Context, id int, in I) (T, error) {
	var zero T
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	updated := in.Apply(current).WithID(id)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"Id": id}, updated)
	if err != nil {
		return zero, fmt.Errorf("failed to replace %s %d: %w", s.kind, id, err)
	}
	if res.MatchedCount == 0 {
		return zero, repository.NotFound(s.kind, id)
	}
	return updated, nil
}

// Delete removes the document with id.
func (s *Store[T, I]) Delete(ctx context.Context, id int) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"Id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", s.kind, id, err)
	}
	if res.DeletedCount == 0 {
		return repository.NotFound(s.kind, id)
	}
	return nil
}

type farmOwned[T any] interface {
	models.Entity[T]
	models.FarmOwned
}

// FarmScopedStore adds the farmId query.
type FarmScopedStore[T farmOwned[T], I models.Input[T]] struct {
	*Store[T, I]
}

// NewFarmScopedStore wraps coll.
func NewFarmScopedStore[T farmOwned[T], I models.Input[T]](coll *mongo.Collection, kind string, logger *zap.Logger) *FarmScopedStore[T, I] {
	return &FarmScopedStore[T, I]{Store: NewStore[T, I](coll, kind, logger)}
}

// GetByFarmID returns the documents whose farmId equals farmID.
func (s *FarmScopedStore[T, I]) GetByFarmID(ctx context.Context, farmID int) ([]T, error) {
	return s.find(ctx, bson.M{"farmId": farmID})
}

var _ repository.TaskStore = (*TaskStore)(nil)

// TaskStore is the task collection.
type TaskStore struct {
	*FarmScopedStore[models.Task, models.TaskInput]
}

// NewTaskStore wraps coll.
func NewTaskStore(coll *mongo.Collection, logger *zap.Logger) *TaskStore {
	return &TaskStore{FarmScopedStore: NewFarmScopedStore[models.Task, models.TaskInput](coll, "task", logger)}
}

// GetTodaysTasks filters the collection on the local calendar day.
func (s *TaskStore) GetTodaysTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return repository.DueToday(tasks, s.now()), nil
}

// ToggleComplete flips the completed flag through Update.
func (s *TaskStore) ToggleComplete(ctx context.Context, id int) (models.Task, error) {
	return repository.Toggle(ctx, s, id)
}
