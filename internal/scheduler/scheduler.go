package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/config"
	"github.com/mamadbah2/farmboard/internal/domain/models"
	"github.com/mamadbah2/farmboard/internal/repository/mongodb"
	"github.com/mamadbah2/farmboard/internal/repository/sheets"
	"github.com/mamadbah2/farmboard/internal/service/reporting"
	"github.com/mamadbah2/farmboard/internal/service/whatsapp"
)

const runTimeout = 2 * time.Minute

// ReportSource builds the report for the month that just ended.
type ReportSource interface {
	PreviousMonth(ctx context.Context) (models.FinancialReport, error)
}

// Sinks receive the monthly report. Nil sinks are skipped.
type Sinks struct {
	Archive   mongodb.ReportArchive
	Exporter  sheets.ReportExporter
	Messaging whatsapp.MessagingService
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	reports   ReportSource
	sinks     Sinks
	spec      string
	recipient string
	logger    *zap.Logger
}

// NewScheduler creates a scheduler running in the configured reporting timezone.
func NewScheduler(cfg config.Config, reports ReportSource, sinks Sinks, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		return nil, fmt.Errorf("load reporting timezone: %w", err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reports:   reports,
		sinks:     sinks,
		spec:      cfg.Reporting.CronSchedule,
		recipient: cfg.WhatsApp.ReportRecipient,
		logger:    logger,
	}, nil
}

// Start registers the monthly report and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runMonthlyReport); err != nil {
		return fmt.Errorf("schedule monthly report %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.spec))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runMonthlyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.RunMonthlyReport(ctx); err != nil {
		s.logger.Error("monthly report finished with errors", zap.Error(err))
	}
}

// RunMonthlyReport builds last month's report and hands it to every
// configured sink. A failing sink does not stop the others.
func (s *Scheduler) RunMonthlyReport(ctx context.Context) error {
	s.logger.Info("generating monthly report")

	report, err := s.reports.PreviousMonth(ctx)
	if err != nil {
		return fmt.Errorf("generate monthly report: %w", err)
	}

	var errs []error
	if s.sinks.Archive != nil {
		if err := s.sinks.Archive.SaveReport(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("archive report: %w", err))
		} else {
			s.logger.Info("monthly report archived", zap.String("start", report.Start.String()))
		}
	}
	if s.sinks.Exporter != nil {
		if err := s.sinks.Exporter.AppendReport(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("export report: %w", err))
		} else {
			s.logger.Info("monthly report exported to sheet")
		}
	}
	if s.sinks.Messaging != nil && s.recipient != "" {
		req := models.OutboundMessageRequest{To: s.recipient, Message: reporting.Summary(report)}
		if err := s.sinks.Messaging.SendOutbound(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("send report: %w", err))
		} else {
			s.logger.Info("monthly report sent", zap.String("to", s.recipient))
		}
	}

	return errors.Join(errs...)
}
