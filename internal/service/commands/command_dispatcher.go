package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository"
	"github.com/mamadbah2/farmboard/internal/service/reporting"
	"github.com/mamadbah2/farmboard/internal/validation"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const helpText = "Supported commands:\n" +
	"/expense <farmId> <category> <amount> [description]\n" +
	"/income <amount> <category> <source>\n" +
	"/tasks\n" +
	"/done <taskId>\n" +
	"/report"

var usage = map[models.CommandType]string{
	models.CommandExpense: "Usage: /expense <farmId> <category> <amount> [description], e.g. /expense 1 fuel 45.50 tractor diesel",
	models.CommandIncome:  "Usage: /income <amount> <category> <source>, e.g. /income 120 market Saturday market stall",
	models.CommandDone:    "Usage: /done <taskId>, e.g. /done 4",
}

// Reporter produces the month-to-date report for /report.
type Reporter interface {
	MonthToDate(ctx context.Context) (models.FinancialReport, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements Dispatcher on top of the entity stores.
type Service struct {
	stores    repository.Stores
	validator *validation.Validator
	reporting Reporter
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(stores repository.Stores, reporter Reporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		stores:    stores,
		validator: validation.New(),
		reporting: reporter,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HandleCommand runs cmd and renders the confirmation sent back to sender.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandExpense:
		return s.recordExpense(ctx, cmd)
	case models.CommandIncome:
		return s.recordIncome(ctx, cmd)
	case models.CommandTasks:
		return s.todaysTasks(ctx)
	case models.CommandDone:
		return s.toggleTask(ctx, cmd)
	case models.CommandReport:
		if s.reporting == nil {
			return "", ErrUnsupportedCommand
		}
		report, err := s.reporting.MonthToDate(ctx)
		if err != nil {
			return "", fmt.Errorf("build month to date report: %w", err)
		}
		return reporting.Summary(report), nil
	case models.CommandHelp:
		return helpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) recordExpense(ctx context.Context, cmd models.Command) (string, error) {
	if len(cmd.Args) < 3 {
		return "", argumentsError(cmd.Type)
	}
	farmID, err := models.ParseInt(cmd.Args[0])
	if err != nil {
		return "", argumentsError(cmd.Type)
	}
	amount, err := parseAmount(cmd.Args[2])
	if err != nil {
		return "", argumentsError(cmd.Type)
	}
	category := models.ExpenseCategory(strings.ToLower(cmd.Args[1]))
	description := strings.Join(cmd.Args[3:], " ")
	if description == "" {
		description = models.LabelFor(models.ExpenseCategoryOptions, string(category))
	}

	farm, err := s.stores.Farms.GetByID(ctx, farmID)
	if err != nil {
		return "", err
	}

	today := models.Today(s.now())
	in := models.ExpenseInput{
		FarmID:      models.Int(farmID),
		Amount:      models.Float(amount),
		Category:    &category,
		Description: &description,
		Date:        &today,
	}
	if err := s.validator.Struct(in.Build(s.now())); err != nil {
		return "", err
	}

	expense, err := s.stores.Expenses.Create(ctx, in)
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}
	return fmt.Sprintf("Expense recorded: %s %s for %s on %s.",
		money(expense.Amount), models.LabelFor(models.ExpenseCategoryOptions, string(expense.Category)), farm.Name, expense.Date), nil
}

func (s *Service) recordIncome(ctx context.Context, cmd models.Command) (string, error) {
	if len(cmd.Args) < 3 {
		return "", argumentsError(cmd.Type)
	}
	amount, err := parseAmount(cmd.Args[0])
	if err != nil {
		return "", argumentsError(cmd.Type)
	}
	category := models.IncomeCategory(strings.ToLower(cmd.Args[1]))
	source := strings.Join(cmd.Args[2:], " ")

	in := models.IncomeInput{
		Amount:   models.Float(amount),
		Category: &category,
		Source:   &source,
	}
	if err := s.validator.Struct(in.Build(s.now())); err != nil {
		return "", err
	}

	income, err := s.stores.Income.Create(ctx, in)
	if err != nil {
		return "", fmt.Errorf("create income: %w", err)
	}
	return fmt.Sprintf("Income recorded: %s %s from %s on %s.",
		money(income.Amount), models.LabelFor(models.IncomeCategoryOptions, string(income.Category)), income.Source, income.Date), nil
}

func (s *Service) todaysTasks(ctx context.Context) (string, error) {
	tasks, err := s.stores.Tasks.GetTodaysTasks(ctx)
	if err != nil {
		return "", fmt.Errorf("load todays tasks: %w", err)
	}
	if len(tasks) == 0 {
		return "No tasks due today.", nil
	}

	var b strings.Builder
	b.WriteString("Tasks due today:")
	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "\n%s #%d %s (%s)", mark, t.ID, t.Title, t.Priority)
	}
	return b.String(), nil
}

func (s *Service) toggleTask(ctx context.Context, cmd models.Command) (string, error) {
	if len(cmd.Args) != 1 {
		return "", argumentsError(cmd.Type)
	}
	id, err := models.ParseInt(strings.TrimPrefix(cmd.Args[0], "#"))
	if err != nil {
		return "", argumentsError(cmd.Type)
	}

	task, err := s.stores.Tasks.ToggleComplete(ctx, id)
	if err != nil {
		return "", err
	}
	if task.Completed {
		return fmt.Sprintf("Task #%d %s completed.", task.ID, task.Title), nil
	}
	return fmt.Sprintf("Task #%d %s reopened.", task.ID, task.Title), nil
}

// Reply turns a dispatch error into the message sent back to the worker.
func Reply(cmd models.Command, err error) string {
	if vErr, ok := validation.AsError(err); ok {
		msgs := make([]string, 0, len(vErr.Fields))
		for _, msg := range vErr.Fields {
			msgs = append(msgs, msg)
		}
		sort.Strings(msgs)
		return "Could not save: " + strings.Join(msgs, "; ")
	}
	switch {
	case errors.Is(err, ErrInvalidArguments):
		if text, ok := usage[cmd.Type]; ok {
			return text
		}
		return helpText
	case errors.Is(err, ErrUnsupportedCommand):
		return "Unknown command.\n" + helpText
	case errors.Is(err, repository.ErrNotFound):
		return "Not found: " + err.Error()
	default:
		return "Something went wrong, please try again later."
	}
}

func argumentsError(t models.CommandType) error {
	return fmt.Errorf("%w for /%s", ErrInvalidArguments, t)
}

func parseAmount(value string) (float64, error) {
	return models.ParseFloat(strings.TrimPrefix(value, "$"))
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
