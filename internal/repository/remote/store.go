package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository"
)

// Store is an entity store backed by one table of the record API.
type Store[T models.Entity[T], I models.Input[T]] struct {
	client *Client
	codec  Codec[T]
	kind   string
	now    func() time.Time
	logger *zap.Logger
}

// NewStore binds codec's table to client.
func NewStore[T models.Entity[T], I models.Input[T]](client *Client, kind string, codec Codec[T], logger *zap.Logger) *Store[T, I] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T, I]{
		client: client,
		codec:  codec,
		kind:   kind,
		now:    time.Now,
		logger: logger.With(zap.String("table", codec.Table)),
	}
}

func (s *Store[T, I]) decodeList(data json.RawMessage) ([]T, error) {
	var raws []json.RawMessage
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, &repository.NetworkError{Op: "query", Table: s.codec.Table, Message: "malformed record list", Err: err}
		}
	}
	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		item, err := s.codec.Decode(raw)
		if err != nil {
			return nil, &repository.NetworkError{Op: "query", Table: s.codec.Table, Message: "malformed record", Err: err}
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store[T, I]) query(ctx context.Context, where ...Where) ([]T, error) {
	data, err := s.client.Query(ctx, s.codec.Table, s.codec.Fields, where...)
	if err != nil {
		return nil, err
	}
	return s.decodeList(data)
}

// GetAll queries the whole table.
func (s *Store[T, I]) GetAll(ctx context.Context) ([]T, error) {
	return s.query(ctx)
}

// GetByID fetches one record.
func (s *Store[T, I]) GetByID(ctx context.Context, id int) (T, error) {
	var zero T
	data, err := s.client.FetchByID(ctx, s.codec.Table, id)
	if errors.Is(err, repository.ErrNotFound) {
		return zero, repository.NotFound(s.kind, id)
	}
	if err != nil {
		return zero, err
	}
	if len(data) == 0 || string(data) == "null" {
		return zero, repository.NotFound(s.kind, id)
	}
	item, err := s.codec.Decode(data)
	if err != nil {
		return zero, &repository.NetworkError{Op: "fetch", Table: s.codec.Table, Message: "malformed record", Err: err}
	}
	return item, nil
}

// settle splits batch results into the stored records and a
// PartialBatchFailure for the rejected ones. sent holds what was submitted, used
// when a successful result carries no data.
func (s *Store[T, I]) settle(op string, results []RecordResult, sent []T) ([]T, error) {
	if len(results) != len(sent) {
		return nil, &repository.NetworkError{
			Op:      op,
			Table:   s.codec.Table,
			Message: fmt.Sprintf("expected %d results, got %d", len(sent), len(results)),
		}
	}

	stored := make([]T, 0, len(results))
	failure := &repository.PartialBatchFailure{Op: op, Table: s.codec.Table}
	for i, res := range results {
		if !res.Success {
			failure.Failed = append(failure.Failed, repository.RecordFailure{Index: i, Message: res.Message, Fields: res.Errors})
			continue
		}
		record := sent[i]
		if len(res.Data) > 0 && string(res.Data) != "null" {
			decoded, err := s.codec.Decode(res.Data)
			if err != nil {
				return nil, &repository.NetworkError{Op: op, Table: s.codec.Table, Message: "malformed record", Err: err}
			}
			record = decoded
		}
		stored = append(stored, record)
		failure.Succeeded = append(failure.Succeeded, record.RecordID())
	}

	if len(failure.Failed) > 0 {
		s.logger.Warn("batch partially rejected",
			zap.String("op", op),
			zap.Ints("succeeded", failure.Succeeded),
			zap.Int("failed", len(failure.Failed)))
		return stored, failure
	}
	return stored, nil
}

// single unwraps a one-record batch, mapping a not-found rejection to ErrNotFound.
func (s *Store[T, I]) single(id int, results []RecordResult, stored []T, err error) (T, error) {
	var zero T
	if len(results) == 1 && !results[0].Success && results[0].Code == codeNotFound {
		return zero, repository.NotFound(s.kind, id)
	}
	if err != nil {
		return zero, err
	}
	return stored[0], nil
}

// CreateBatch inserts several records. Records accepted before a failure stay
// created and are returned alongside the *repository.PartialBatchFailure.
func (s *Store[T, I]) CreateBatch(ctx context.Context, inputs []I) ([]T, error) {
	now := s.now()
	sent := make([]T, 0, len(inputs))
	records := make([]any, 0, len(inputs))
	for _, in := range inputs {
		record := in.Build(now).WithID(0)
		sent = append(sent, record)
		records = append(records, s.codec.Encode(record))
	}
	results, err := s.client.CreateRecords(ctx, s.codec.Table, records)
	if err != nil {
		return nil, err
	}
	return s.settle("create", results, sent)
}

// Create inserts one record; the API assigns the Id.
func (s *Store[T, I]) Create(ctx context.Context, in I) (T, error) {
	var zero T
	record := in.Build(s.now()).WithID(0)
	results, err := s.client.CreateRecords(ctx, s.codec.Table, []any{s.codec.Encode(record)})
	if err != nil {
		return zero, err
	}
	stored, err := s.settle("create", results, []T{record})
	return s.single(0, results, stored, err)
}

// Patch is one entry of an UpdateBatch.
type Patch[I any] struct {
	ID    int
	Input I
}

// UpdateBatch merges every patch over its current remote record and sends the
// merged records in one batch with their Ids pinned. Records updated before a
// failure stay updated and are returned alongside the
// *repository.PartialBatchFailure, whose indexes refer to patches. Ids absent
// from the table fail without being sent.
func (s *Store[T, I]) UpdateBatch(ctx context.Context, patches []Patch[I]) ([]T, error) {
	if len(patches) == 0 {
		return nil, nil
	}
	ids := make([]any, 0, len(patches))
	for _, p := range patches {
		ids = append(ids, p.ID)
	}
	current, err := s.query(ctx, Where{FieldName: "Id", Operator: "in", Values: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[int]T, len(current))
	for _, item := range current {
		byID[item.RecordID()] = item
	}

	failure := &repository.PartialBatchFailure{Op: "update", Table: s.codec.Table}
	var (
		sent      []T
		records   []any
		positions []int
	)
	for i, p := range patches {
		base, ok := byID[p.ID]
		if !ok {
			failure.Failed = append(failure.Failed, repository.RecordFailure{Index: i, Message: repository.NotFound(s.kind, p.ID).Error()})
			continue
		}
		updated := p.Input.Apply(base).WithID(p.ID)
		sent = append(sent, updated)
		records = append(records, s.codec.Encode(updated))
		positions = append(positions, i)
	}
	if len(sent) == 0 {
		return nil, failure
	}

	results, err := s.client.UpdateRecords(ctx, s.codec.Table, records)
	if err != nil {
		return nil, err
	}
	stored, err := s.settle("update", results, sent)
	var rejected *repository.PartialBatchFailure
	if err != nil && !errors.As(err, &rejected) {
		return nil, err
	}

	next := 0
	for i, res := range results {
		if res.Success {
			stored[next] = stored[next].WithID(sent[i].RecordID())
			failure.Succeeded = append(failure.Succeeded, sent[i].RecordID())
			next++
		}
	}
	if rejected != nil {
		for _, f := range rejected.Failed {
			f.Index = positions[f.Index]
			failure.Failed = append(failure.Failed, f)
		}
	}
	if len(failure.Failed) == 0 {
		return stored, nil
	}
	sort.Slice(failure.Failed, func(a, b int) bool { return failure.Failed[a].Index < failure.Failed[b].Index })
	return stored, failure
}

// Update merges in over the current remote record and sends the full record
// back with its Id pinned.
func (s *Store[T, I]) Update(ctx context.Context, id int, in I) (T, error) {
	var zero T
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	updated := in.Apply(current).WithID(id)
	results, err := s.client.UpdateRecords(ctx, s.codec.Table, []any{s.codec.Encode(updated)})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, repository.NotFound(s.kind, id)
		}
		return zero, err
	}
	stored, err := s.settle("update", results, []T{updated})
	if err == nil && stored[0].RecordID() != id {
		stored[0] = stored[0].WithID(id)
	}
	return s.single(id, results, stored, err)
}

// DeleteBatch removes several ids. Ids removed before a failure stay removed.
func (s *Store[T, I]) DeleteBatch(ctx context.Context, ids []int) error {
	results, err := s.client.DeleteRecords(ctx, s.codec.Table, ids)
	if errors.Is(err, repository.ErrNotFound) && len(ids) == 1 {
		return repository.NotFound(s.kind, ids[0])
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	if len(results) != len(ids) {
		return &repository.NetworkError{Op: "delete", Table: s.codec.Table, Message: fmt.Sprintf("expected %d results, got %d", len(ids), len(results))}
	}
	failure := &repository.PartialBatchFailure{Op: "delete", Table: s.codec.Table}
	for i, res := range results {
		if res.Success {
			failure.Succeeded = append(failure.Succeeded, ids[i])
			continue
		}
		if len(ids) == 1 && res.Code == codeNotFound {
			return repository.NotFound(s.kind, ids[i])
		}
		failure.Failed = append(failure.Failed, repository.RecordFailure{Index: i, Message: res.Message, Fields: res.Errors})
	}
	if len(failure.Failed) > 0 {
		s.logger.Warn("delete partially rejected", zap.Ints("succeeded", failure.Succeeded), zap.Int("failed", len(failure.Failed)))
		return failure
	}
	return nil
}

// Delete removes one record.
func (s *Store[T, I]) Delete(ctx context.Context, id int) error {
	return s.DeleteBatch(ctx, []int{id})
}

type farmOwned[T any] interface {
	models.Entity[T]
	models.FarmOwned
}

// FarmScopedStore adds the farm_id query.
type FarmScopedStore[T farmOwned[T], I models.Input[T]] struct {
	*Store[T, I]
}

// NewFarmScopedStore binds codec's table to client.
func NewFarmScopedStore[T farmOwned[T], I models.Input[T]](client *Client, kind string, codec Codec[T], logger *zap.Logger) *FarmScopedStore[T, I] {
	return &FarmScopedStore[T, I]{Store: NewStore[T, I](client, kind, codec, logger)}
}

// GetByFarmID queries with a farm_id equality clause.
func (s *FarmScopedStore[T, I]) GetByFarmID(ctx context.Context, farmID int) ([]T, error) {
	return s.query(ctx, Eq("farm_id", farmID))
}

var _ repository.TaskStore = (*TaskStore)(nil)

// TaskStore is the tasks table.
type TaskStore struct {
	*FarmScopedStore[models.Task, models.TaskInput]
}

// NewTaskStore binds the tasks table to client.
func NewTaskStore(client *Client, logger *zap.Logger) *TaskStore {
	return &TaskStore{FarmScopedStore: NewFarmScopedStore[models.Task, models.TaskInput](client, "task", TaskCodec, logger)}
}

// GetTodaysTasks fetches all tasks and keeps the ones due today.
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

// NewStores binds the five tables to client.
func NewStores(client *Client, logger *zap.Logger) repository.Stores {
	if logger == nil {
		logger = zap.NewNop()
	}
	return repository.Stores{
		Farms:    NewStore[models.Farm, models.FarmInput](client, "farm", FarmCodec, logger),
		Crops:    NewFarmScopedStore[models.Crop, models.CropInput](client, "crop", CropCodec, logger),
		Tasks:    NewTaskStore(client, logger),
		Expenses: NewFarmScopedStore[models.Expense, models.ExpenseInput](client, "expense", ExpenseCodec, logger),
		Income:   NewStore[models.Income, models.IncomeInput](client, "income", IncomeCodec, logger),
	}
}
