package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/moda-backend/internal/app/service"
	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/ikkim/moda-backend/pkg/mailer"
	"github.com/robfig/cron/v3"
)

const (
	reportFolder      = "reports"
	reportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportJobTimeout  = 5 * time.Minute
)

// ReportUploader stores the generated workbook.
type ReportUploader interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
}

// ReportScheduler builds the management report on a cron schedule,
// archives it and mails it to the staff mailbox.
type ReportScheduler struct {
	cron      *cron.Cron
	spec      string
	analytics service.AnalyticsService
	uploader  ReportUploader
	mailer    mailer.Mailer
	recipient string
	storeName string
	now       func() time.Time
}

// NewReportScheduler creates the scheduler. uploader may be nil to skip
// archiving; an empty recipient skips the email.
func NewReportScheduler(
	spec string,
	analytics service.AnalyticsService,
	uploader ReportUploader,
	m mailer.Mailer,
	recipient, storeName string,
) *ReportScheduler {
	return &ReportScheduler{
		cron:      cron.New(),
		spec:      spec,
		analytics: analytics,
		uploader:  uploader,
		mailer:    m,
		recipient: recipient,
		storeName: storeName,
		now:       time.Now,
	}
}

// Start registers the job and starts the cron runner.
func (s *ReportScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		logger.Info("Starting scheduled report", map[string]interface{}{
			"spec": s.spec,
		})

		ctx, cancel := context.WithTimeout(context.Background(), reportJobTimeout)
		defer cancel()

		if err := s.RunOnce(ctx); err != nil {
			logger.Error("Scheduled report failed", err)
			return
		}
		logger.Info("Scheduled report finished")
	})
	if err != nil {
		logger.Error("Failed to add cron job for report", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Report scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// Stop waits for a running job to finish.
func (s *ReportScheduler) Stop() {
	logger.Info("Stopping report scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Report scheduler stopped")
}

// RunOnce builds the report, archives it and emails it. Archive and email
// failures are logged; only a failed build is returned.
func (s *ReportScheduler) RunOnce(ctx context.Context) error {
	report, err := s.analytics.BuildReport(ctx)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	date := s.now().Format("2006-01-02")
	filename := fmt.Sprintf("reporte-moda-%s.xlsx", date)

	if s.uploader != nil {
		key := fmt.Sprintf("%s/%s", reportFolder, filename)
		if err := s.uploader.PutObject(ctx, key, reportContentType, report); err != nil {
			logger.Error("Failed to archive report", err, map[string]interface{}{
				"key": key,
			})
		} else {
			logger.Info("Report archived", map[string]interface{}{
				"key":   key,
				"bytes": len(report),
			})
		}
	}

	if s.recipient == "" {
		logger.Debug("No report recipient configured, skipping email")
		return nil
	}

	err = s.mailer.Send(ctx, mailer.Message{
		To:       []string{s.recipient},
		Subject:  fmt.Sprintf("%s: reporte de gestión %s", s.storeName, date),
		HTMLBody: fmt.Sprintf("<p>Adjuntamos el reporte de gestión de %s del %s.</p>", s.storeName, date),
		Attachments: []mailer.Attachment{{
			Filename:    filename,
			ContentType: reportContentType,
			Data:        report,
		}},
	})
	if err != nil {
		logger.Warn("Report email not delivered", map[string]interface{}{
			"recipient": s.recipient,
			"error":     err.Error(),
		})
	}
	return nil
}
