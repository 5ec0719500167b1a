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
)

// Tasks is the task list page.
type Tasks struct {
	*editor[models.Task, models.TaskInput]
	deps   Deps
	logger *zap.Logger
	guard  guard

	mu       sync.RWMutex
	farms    []models.Farm
	crops    []models.Crop
	criteria filter.Criteria
}

// TaskCounters are the headline numbers of the tasks page.
type TaskCounters struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	Overdue   int `json:"overdue"`
	Completed int `json:"completed"`
}

// NewTasks builds the tasks page controller.
func NewTasks(deps Deps) *Tasks {
	deps = deps.withDefaults()
	p := &Tasks{deps: deps, logger: deps.Logger.Named("page.tasks")}
	p.editor = newEditor[models.Task, models.TaskInput](forms.KindTask, deps.Stores.Tasks, deps, messages{
		created:      "Task created successfully",
		updated:      "Task updated successfully",
		deleted:      "Task deleted successfully",
		saveFailed:   "Failed to save task",
		deleteFailed: "Failed to delete task",
	})
	p.editor.logger = p.logger
	p.editor.describe = func(t *models.Task) forms.Form {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return forms.NewTask(t, p.farms, p.crops)
	}
	return p
}

// Load fetches tasks, farms and crops concurrently.
func (p *Tasks) Load(ctx context.Context) error {
	gen := p.guard.begin()

	var (
		tasks []models.Task
		farms []models.Farm
		crops []models.Crop
	)
	g, gctx := errgroup.WithContext(ctx)
	fetch(gctx, g, &tasks, p.deps.Stores.Tasks.GetAll)
	fetch(gctx, g, &farms, p.deps.Stores.Farms.GetAll)
	fetch(gctx, g, &crops, p.deps.Stores.Crops.GetAll)
	err := g.Wait()

	if !p.guard.current(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return loadFailed(p.deps, p.logger, "Failed to load tasks", err)
	}

	if !p.guard.apply(gen, func() {
		p.mu.Lock()
		p.farms, p.crops = farms, crops
		p.mu.Unlock()
		p.set(tasks)
	}) {
		return ErrSuperseded
	}
	return nil
}

// Close discards any load still in flight.
func (p *Tasks) Close() { p.guard.close() }

// SetCriteria replaces the farm, priority and status filters.
func (p *Tasks) SetCriteria(c filter.Criteria) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria = c
}

// Views composes, filters and orders the tasks: overdue first, then today's.
func (p *Tasks) Views() []models.TaskView {
	p.mu.RLock()
	views := compose.Tasks(p.snapshot(), p.farms, p.crops)
	criteria := p.criteria
	p.mu.RUnlock()

	now := p.deps.Now()
	return filter.SortTasks(filter.Tasks(views, criteria, now), now)
}

// Counters counts open tasks due today, open overdue tasks and completed tasks.
func (p *Tasks) Counters() TaskCounters {
	now := p.deps.Now()
	tasks := p.snapshot()
	c := TaskCounters{Total: len(tasks)}
	for _, t := range tasks {
		switch {
		case t.Completed:
			c.Completed++
		case t.DueOn(now):
			c.Today++
		}
		if t.Overdue(now) {
			c.Overdue++
		}
	}
	return c
}

// Toggle flips a task's completion and reconciles the list.
func (p *Tasks) Toggle(ctx context.Context, id int) (models.Task, error) {
	task, err := p.deps.Stores.Tasks.ToggleComplete(ctx, id)
	if err != nil {
		p.logger.Error("failed to toggle task", zap.Int("id", id), zap.Error(err))
		p.deps.Notifier.Notify("Failed to update task", LevelError)
		return models.Task{}, err
	}
	p.replace(task)
	p.deps.Notifier.Notify(toggleMessage(task), LevelSuccess)
	return task, nil
}

func toggleMessage(task models.Task) string {
	if task.Completed {
		return "Task completed!"
	}
	return "Task reopened"
}

// HandleIntent opens the edit form for an "edit" intent.
func (p *Tasks) HandleIntent(intent Intent) error {
	if intent.Action != "edit" {
		return nil
	}
	_, err := p.Edit(intent.ID)
	return err
}
