package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmboard/internal/config"
	"github.com/mamadbah2/farmboard/internal/domain/models"
)

type stubSource struct {
	report models.FinancialReport
	err    error
}

func (s stubSource) PreviousMonth(context.Context) (models.FinancialReport, error) {
	return s.report, s.err
}

type recordingArchive struct {
	saved []models.FinancialReport
	err   error
}

func (r *recordingArchive) SaveReport(_ context.Context, report models.FinancialReport) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, report)
	return nil
}

type recordingExporter struct {
	exported int
}

func (r *recordingExporter) AppendReport(context.Context, models.FinancialReport) error {
	r.exported++
	return nil
}

type recordingMessaging struct {
	sent []models.OutboundMessageRequest
}

func (r *recordingMessaging) VerifyWebhookToken(string, string, string) (string, error) { return "", nil }

func (r *recordingMessaging) HandleWebhook(context.Context, models.WebhookPayload) error { return nil }

func (r *recordingMessaging) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	r.sent = append(r.sent, req)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Reporting: config.ReportingConfig{CronSchedule: "0 7 1 * *", Timezone: "UTC"},
		WhatsApp:  config.WhatsAppConfig{ReportRecipient: "221770000000"},
	}
}

var june = models.FinancialReport{
	Period:        models.PeriodMonth,
	Start:         models.MustDate("2024-06-01"),
	End:           models.MustDate("2024-06-30"),
	TotalIncome:   4020,
	TotalExpenses: 870.6,
	ProfitLoss:    3149.4,
}

func TestRunMonthlyReport(t *testing.T) {
	archive := &recordingArchive{}
	exporter := &recordingExporter{}
	messaging := &recordingMessaging{}

	s, err := NewScheduler(testConfig(), stubSource{report: june}, Sinks{Archive: archive, Exporter: exporter, Messaging: messaging}, nil)
	require.NoError(t, err)

	require.NoError(t, s.RunMonthlyReport(context.Background()))
	require.Len(t, archive.saved, 1)
	assert.Equal(t, 3149.4, archive.saved[0].ProfitLoss)
	assert.Equal(t, 1, exporter.exported)
	require.Len(t, messaging.sent, 1)
	assert.Equal(t, "221770000000", messaging.sent[0].To)
	assert.Contains(t, messaging.sent[0].Message, "Financial report June 2024 (2024-06-01 to 2024-06-30)")

	t.Run("failing-sink-does-not-stop-others", func(t *testing.T) {
		archive.err = errors.New("mongo down")
		err := s.RunMonthlyReport(context.Background())
		assert.ErrorContains(t, err, "archive report: mongo down")
		assert.Equal(t, 2, exporter.exported)
		assert.Len(t, messaging.sent, 2)
	})

	t.Run("no-sinks", func(t *testing.T) {
		s, err := NewScheduler(testConfig(), stubSource{report: june}, Sinks{}, nil)
		require.NoError(t, err)
		assert.NoError(t, s.RunMonthlyReport(context.Background()))
	})

	t.Run("report-failure", func(t *testing.T) {
		s, err := NewScheduler(testConfig(), stubSource{err: errors.New("store offline")}, Sinks{Archive: archive}, nil)
		require.NoError(t, err)
		assert.ErrorContains(t, s.RunMonthlyReport(context.Background()), "generate monthly report: store offline")
	})
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Reporting.CronSchedule = "every monday"
	s, err := NewScheduler(cfg, stubSource{}, Sinks{}, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())

	t.Run("bad-timezone", func(t *testing.T) {
		cfg := testConfig()
		cfg.Reporting.Timezone = "Mars/Olympus"
		_, err := NewScheduler(cfg, stubSource{}, Sinks{}, nil)
		assert.Error(t, err)
	})
}

func TestStartStop(t *testing.T) {
	s, err := NewScheduler(testConfig(), stubSource{report: june}, Sinks{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	s.Stop()
}
