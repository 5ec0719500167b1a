package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/forms"
	"github.com/mamadbah2/farmboard/internal/repository"
	"github.com/mamadbah2/farmboard/internal/service/filter"
	"github.com/mamadbah2/farmboard/internal/service/pages"
	"github.com/mamadbah2/farmboard/internal/service/reporting"
)

// APIHandler serves the dashboard JSON API. Every request drives a fresh
// page controller, so reads and writes follow the same rules as the UI.
type APIHandler struct {
	deps   pages.Deps
	logger *zap.Logger
}

// NewAPIHandler constructs the dashboard API adapter.
func NewAPIHandler(deps pages.Deps, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Reporting == nil {
		deps.Reporting = reporting.NewService(deps.Stores, logger.Named("svc.reporting")).WithClock(deps.Now)
	}
	return &APIHandler{deps: deps, logger: logger}
}

// editable is the mutation surface shared by the entity page controllers.
type editable[T models.Entity[T], I models.Input[T]] interface {
	Save(ctx context.Context, id int, in I) (T, error)
	Delete(ctx context.Context, id int) error
}

func getHandler[T models.Entity[T], I models.Input[T]](h *APIHandler, store repository.Store[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		record, err := store.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func createHandler[T models.Entity[T], I models.Input[T]](h *APIHandler, page func() editable[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in I
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		saved, err := page().Save(c.Request.Context(), 0, in)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusCreated, saved)
	}
}

func updateHandler[T models.Entity[T], I models.Input[T]](h *APIHandler, page func() editable[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		var in I
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		saved, err := page().Save(c.Request.Context(), id, in)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}

func deleteHandler[T models.Entity[T], I models.Input[T]](h *APIHandler, page func() editable[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		if err := page().Delete(c.Request.Context(), id); err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// Register mounts the API routes on group.
func (h *APIHandler) Register(group *gin.RouterGroup) {
	stores := h.deps.Stores

	farms := group.Group("/farms")
	farmPage := func() editable[models.Farm, models.FarmInput] { return pages.NewFarms(h.deps) }
	farms.GET("", h.ListFarms)
	farms.GET("/:id", getHandler[models.Farm, models.FarmInput](h, stores.Farms))
	farms.POST("", createHandler(h, farmPage))
	farms.PATCH("/:id", updateHandler(h, farmPage))
	farms.DELETE("/:id", deleteHandler(h, farmPage))

	crops := group.Group("/crops")
	cropPage := func() editable[models.Crop, models.CropInput] { return pages.NewCrops(h.deps) }
	crops.GET("", h.ListCrops)
	crops.GET("/:id", getHandler[models.Crop, models.CropInput](h, stores.Crops))
	crops.POST("", createHandler(h, cropPage))
	crops.PATCH("/:id", updateHandler(h, cropPage))
	crops.DELETE("/:id", deleteHandler(h, cropPage))

	tasks := group.Group("/tasks")
	taskPage := func() editable[models.Task, models.TaskInput] { return pages.NewTasks(h.deps) }
	tasks.GET("", h.ListTasks)
	tasks.GET("/today", h.TodaysTasks)
	tasks.GET("/:id", getHandler[models.Task, models.TaskInput](h, stores.Tasks))
	tasks.POST("", createHandler(h, taskPage))
	tasks.PATCH("/:id", updateHandler(h, taskPage))
	tasks.DELETE("/:id", deleteHandler(h, taskPage))
	tasks.POST("/:id/toggle", h.ToggleTask)

	expenses := group.Group("/expenses")
	expensePage := func() editable[models.Expense, models.ExpenseInput] { return pages.NewExpenses(h.deps) }
	expenses.GET("", h.ListExpenses)
	expenses.GET("/summary", h.ExpenseSummary)
	expenses.GET("/trend", h.ExpenseTrend)
	expenses.GET("/farms", h.FarmComparison)
	expenses.GET("/:id", getHandler[models.Expense, models.ExpenseInput](h, stores.Expenses))
	expenses.POST("", createHandler(h, expensePage))
	expenses.PATCH("/:id", updateHandler(h, expensePage))
	expenses.DELETE("/:id", deleteHandler(h, expensePage))

	income := group.Group("/income")
	incomePage := func() editable[models.Income, models.IncomeInput] { return pages.NewIncome(h.deps) }
	income.GET("", h.ListIncome)
	income.GET("/:id", getHandler[models.Income, models.IncomeInput](h, stores.Income))
	income.POST("", createHandler(h, incomePage))
	income.PATCH("/:id", updateHandler(h, incomePage))
	income.DELETE("/:id", deleteHandler(h, incomePage))

	group.GET("/reports", h.Report)
	group.GET("/dashboard", h.Dashboard)
	group.GET("/weather", h.Weather)
	group.GET("/forms/:kind", h.Form)
}

// ListFarms returns every farm.
func (h *APIHandler) ListFarms(c *gin.Context) {
	page := pages.NewFarms(h.deps)
	if err := page.Load(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page.Farms())
}

// ListCrops returns crop views filtered by farmId and status, with status counts.
func (h *APIHandler) ListCrops(c *gin.Context) {
	criteria, ok := h.criteria(c)
	if !ok {
		return
	}
	page := pages.NewCrops(h.deps)
	if err := page.Load(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	page.SetCriteria(criteria)
	c.JSON(http.StatusOK, gin.H{"crops": page.Views(), "statusCounts": page.StatusCounts()})
}

// ListTasks returns ordered task views and the task counters.
func (h *APIHandler) ListTasks(c *gin.Context) {
	criteria, ok := h.criteria(c)
	if !ok {
		return
	}
	page := pages.NewTasks(h.deps)
	if err := page.Load(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	page.SetCriteria(criteria)
	c.JSON(http.StatusOK, gin.H{"tasks": page.Views(), "counters": page.Counters()})
}

// TodaysTasks returns the tasks due today.
func (h *APIHandler) TodaysTasks(c *gin.Context) {
	tasks, err := h.deps.Stores.Tasks.GetTodaysTasks(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// ToggleTask flips a task's completion.
func (h *APIHandler) ToggleTask(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	task, err := pages.NewTasks(h.deps).Toggle(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ListExpenses returns filtered, sorted expense views with the category summary.
func (h *APIHandler) ListExpenses(c *gin.Context) {
	criteria, ok := h.criteria(c)
	if !ok {
		return
	}
	var order filter.Sort
	if err := c.ShouldBindQuery(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort"})
		return
	}

	page := pages.NewExpenses(h.deps)
	if err := page.Load(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	page.SetCriteria(criteria)
	page.SetSort(order)
	summary, total := page.Summary()
	c.JSON(http.StatusOK, gin.H{"expenses": page.Views(), "summary": summary, "total": total})
}

// ListIncome returns filtered, sorted income views with their total.
func (h *APIHandler) ListIncome(c *gin.Context) {
	criteria, ok := h.criteria(c)
	if !ok {
		return
	}
	var order filter.Sort
	if err := c.ShouldBindQuery(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort"})
		return
	}

	page := pages.NewIncome(h.deps)
	if err := page.Load(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	page.SetCriteria(criteria)
	page.SetSort(order)
	c.JSON(http.StatusOK, gin.H{"income": page.Views(), "total": page.Total()})
}

// ExpenseSummary ranks expense categories, optionally for one farm.
func (h *APIHandler) ExpenseSummary(c *gin.Context) {
	criteria, ok := h.criteria(c)
	if !ok {
		return
	}
	summary, err := h.reporting().ExpenseSummary(c.Request.Context(), criteria.FarmID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExpenseTrend returns the monthly (default) or yearly expense series.
func (h *APIHandler) ExpenseTrend(c *gin.Context) {
	criteria, ok := h.criteria(c)
	if !ok {
		return
	}
	granularity := reporting.Granularity(c.DefaultQuery("granularity", string(reporting.Monthly)))
	if granularity != reporting.Monthly && granularity != reporting.Yearly {
		c.JSON(http.StatusBadRequest, gin.H{"error": "granularity must be monthly or yearly"})
		return
	}
	trend, err := h.reporting().ExpenseTrend(c.Request.Context(), granularity, criteria.FarmID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

// FarmComparison returns expense totals per farm.
func (h *APIHandler) FarmComparison(c *gin.Context) {
	totals, err := h.reporting().FarmComparison(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// Report returns the month or year report around ?date (default today).
// ?format=text renders the plain-text summary instead.
func (h *APIHandler) Report(c *gin.Context) {
	period := models.Period(c.DefaultQuery("period", string(models.PeriodMonth)))
	if period != models.PeriodMonth && period != models.PeriodYear {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be month or year"})
		return
	}
	var day models.Date
	if raw := c.Query("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	page := pages.NewReports(h.deps)
	page.Select(period, day)
	if err := page.Load(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if c.Query("format") == "text" {
		c.String(http.StatusOK, reporting.Summary(page.Report()))
		return
	}
	c.JSON(http.StatusOK, page.Report())
}

// Dashboard returns the landing page state.
func (h *APIHandler) Dashboard(c *gin.Context) {
	page := pages.NewDashboard(h.deps)
	if err := page.Load(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page.State())
}

// Weather returns the forecast, today's advice and forecast stats.
func (h *APIHandler) Weather(c *gin.Context) {
	page := pages.NewWeather(h.deps)
	if err := page.Load(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page.Report())
}

// Form returns the empty form descriptor of :kind with current options.
func (h *APIHandler) Form(c *gin.Context) {
	var (
		farms []models.Farm
		crops []models.Crop
	)
	g, gctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		farms, err = h.deps.Stores.Farms.GetAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		crops, err = h.deps.Stores.Crops.GetAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	form, err := forms.For(forms.Kind(c.Param("kind")), forms.Deps{Farms: farms, Crops: crops, Now: h.now()})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

func (h *APIHandler) criteria(c *gin.Context) (filter.Criteria, bool) {
	var criteria filter.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return filter.Criteria{}, false
	}
	return criteria, true
}

func (h *APIHandler) reporting() *reporting.Service { return h.deps.Reporting }

func (h *APIHandler) now() time.Time { return h.deps.Now() }
