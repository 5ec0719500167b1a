// Package pages holds the page controllers of the dashboard. A controller owns
// its UI state, loads the collections it needs concurrently, recomposes its
// views after every load or mutation and reports outcomes to a Notifier.
package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/forms"
	"github.com/mamadbah2/farmboard/internal/repository"
	"github.com/mamadbah2/farmboard/internal/service/reporting"
	"github.com/mamadbah2/farmboard/internal/service/weather"
	"github.com/mamadbah2/farmboard/internal/validation"
)

// ErrSuperseded is returned by a load whose results were discarded because the
// page was closed or reloaded meanwhile.
var ErrSuperseded = errors.New("load superseded")

// ErrNoForm is returned when submitting or editing while no form is open.
var ErrNoForm = errors.New("no form open")

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier shows a message to the user. It is fire-and-forget.
type Notifier interface {
	Notify(message string, level Level)
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier wires a notifier on top of logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(message string, level Level) {
	switch level {
	case LevelError:
		n.logger.Warn(message, zap.String("level", string(level)))
	default:
		n.logger.Info(message, zap.String("level", string(level)))
	}
}

// Intent asks the navigation layer to open a page, optionally on a record.
type Intent struct {
	Page   string `json:"page"`
	Action string `json:"action,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// Navigator receives intents; routing is not the controllers' concern.
type Navigator interface {
	Navigate(intent Intent)
}

type nopNavigator struct{}

func (nopNavigator) Navigate(Intent) {}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Stores    repository.Stores
	Validator *validation.Validator
	Notifier  Notifier
	Navigator Navigator
	Weather   *weather.Service
	Reporting *reporting.Service
	Logger    *zap.Logger
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Notifier == nil {
		d.Notifier = NewLogNotifier(d.Logger)
	}
	if d.Navigator == nil {
		d.Navigator = nopNavigator{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Reporting == nil {
		d.Reporting = reporting.NewService(d.Stores, d.Logger.Named("svc.reporting")).WithClock(d.Now)
	}
	return d
}

// guard discards late results: only the latest load of an open page applies.
type guard struct {
	mu     sync.Mutex
	gen    uint64
	closed bool
}

func (g *guard) begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	return g.gen
}

func (g *guard) current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed && g.gen == gen
}

// apply runs fn only if gen is still the latest load of an open page. fn runs
// under the guard lock so a concurrent close cannot slip in between.
func (g *guard) apply(gen uint64, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.gen != gen {
		return false
	}
	fn()
	return true
}

func (g *guard) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

// fetch stores the result of load into dst inside an errgroup.
func fetch[T any](ctx context.Context, g *errgroup.Group, dst *T, load func(context.Context) (T, error)) {
	g.Go(func() error {
		v, err := load(ctx)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	})
}

type messages struct {
	created      string
	updated      string
	deleted      string
	saveFailed   string
	deleteFailed string
}

// editor owns one collection of a page plus the entity form.
type editor[T models.Entity[T], I models.Input[T]] struct {
	kind      forms.Kind
	store     repository.Store[T, I]
	validator *validation.Validator
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
	msg       messages
	describe  func(record *T) forms.Form

	mu      sync.RWMutex
	items   []T
	form    *forms.Form
	editing int
}

func newEditor[T models.Entity[T], I models.Input[T]](kind forms.Kind, store repository.Store[T, I], deps Deps, msg messages) *editor[T, I] {
	return &editor[T, I]{
		kind:      kind,
		store:     store,
		validator: deps.Validator,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		now:       deps.Now,
		msg:       msg,
	}
}

func (e *editor[T, I]) set(items []T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = items
}

func (e *editor[T, I]) snapshot() []T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]T(nil), e.items...)
}

func (e *editor[T, I]) find(id int) (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, item := range e.items {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Save validates in, then creates (id == 0) or updates the record and
// reconciles the local collection. Nothing reaches the store when validation
// fails.
func (e *editor[T, I]) Save(ctx context.Context, id int, in I) (T, error) {
	var zero T

	candidate := in.Build(e.now())
	if id != 0 {
		base, ok := e.find(id)
		if !ok {
			var err error
			if base, err = e.store.GetByID(ctx, id); err != nil {
				e.notifier.Notify(e.msg.saveFailed, LevelError)
				return zero, err
			}
		}
		candidate = in.Apply(base).WithID(id)
	}
	if err := e.validator.Struct(candidate); err != nil {
		e.notifier.Notify("Please fix the form errors before submitting", LevelError)
		return zero, err
	}

	var (
		saved T
		err   error
	)
	if id == 0 {
		saved, err = e.store.Create(ctx, in)
	} else {
		saved, err = e.store.Update(ctx, id, in)
	}
	if err != nil {
		e.logger.Error("failed to save record", zap.String("kind", string(e.kind)), zap.Int("id", id), zap.Error(err))
		e.notifier.Notify(e.msg.saveFailed, LevelError)
		return zero, err
	}

	e.replace(saved)
	if id == 0 {
		e.notifier.Notify(e.msg.created, LevelSuccess)
	} else {
		e.notifier.Notify(e.msg.updated, LevelSuccess)
	}
	return saved, nil
}

func (e *editor[T, I]) replace(saved T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, item := range e.items {
		if item.RecordID() == saved.RecordID() {
			e.items[i] = saved
			return
		}
	}
	e.items = append(e.items, saved)
}

// Delete removes the record from the store, then from the local collection.
func (e *editor[T, I]) Delete(ctx context.Context, id int) error {
	if err := e.store.Delete(ctx, id); err != nil {
		e.logger.Error("failed to delete record", zap.String("kind", string(e.kind)), zap.Int("id", id), zap.Error(err))
		e.notifier.Notify(e.msg.deleteFailed, LevelError)
		return err
	}

	e.mu.Lock()
	kept := make([]T, 0, len(e.items))
	for _, item := range e.items {
		if item.RecordID() != id {
			kept = append(kept, item)
		}
	}
	e.items = kept
	e.mu.Unlock()

	e.notifier.Notify(e.msg.deleted, LevelSuccess)
	return nil
}

// OpenCreate shows an empty form.
func (e *editor[T, I]) OpenCreate() forms.Form {
	form := e.describe(nil)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form, e.editing = &form, 0
	return form
}

// Edit shows the form prefilled with the record id.
func (e *editor[T, I]) Edit(id int) (forms.Form, error) {
	record, ok := e.find(id)
	if !ok {
		return forms.Form{}, repository.NotFound(string(e.kind), id)
	}
	form := e.describe(&record)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form, e.editing = &form, id
	return form, nil
}

// Change applies a field edit; payload may be an event object or a raw value.
func (e *editor[T, I]) Change(name string, payload json.RawMessage) (forms.Form, error) {
	change, err := forms.NormalizeChange(name, payload)
	if err != nil {
		return forms.Form{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.form == nil {
		return forms.Form{}, ErrNoForm
	}
	updated := e.form.Apply(change)
	e.form = &updated
	return updated, nil
}

// Submit saves the open form. Validation errors stay on the form.
func (e *editor[T, I]) Submit(ctx context.Context) (T, error) {
	var zero T

	e.mu.RLock()
	if e.form == nil {
		e.mu.RUnlock()
		return zero, ErrNoForm
	}
	form, id := *e.form, e.editing
	e.mu.RUnlock()

	in, err := forms.Decode[I](form)
	if err != nil {
		if _, ok := validation.AsError(err); ok {
			withErrors := form.WithErrors(err)
			e.mu.Lock()
			e.form = &withErrors
			e.mu.Unlock()
		}
		e.notifier.Notify("Please fix the form errors before submitting", LevelError)
		return zero, fmt.Errorf("submit %s form: %w", e.kind, err)
	}
	saved, err := e.Save(ctx, id, in)
	if err != nil {
		withErrors := form.WithErrors(err)
		e.mu.Lock()
		e.form = &withErrors
		e.mu.Unlock()
		return zero, err
	}

	e.CloseForm()
	return saved, nil
}

// Form returns the open form, if any.
func (e *editor[T, I]) Form() (forms.Form, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.form == nil {
		return forms.Form{}, false
	}
	return *e.form, true
}

// CloseForm hides the form and forgets the editing target.
func (e *editor[T, I]) CloseForm() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form, e.editing = nil, 0
}
