package workers

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/tasks"
)

// StartPaymentScheduler runs a periodic check (every minute) for the
// configured payment run schedule, and keeps the dashboard cache warm.
func StartPaymentScheduler(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	checkAndEnqueuePaymentRun(client, db, logger)

	lastAnalytics := time.Time{}
	for range ticker.C {
		checkAndEnqueuePaymentRun(client, db, logger)

		// Enqueue an analytics refresh every five minutes
		if time.Since(lastAnalytics) >= 5*time.Minute {
			if _, err := client.Enqueue(tasks.NewRefreshAnalyticsTask()); err != nil {
				logger.Warn().Err(err).Msg("Failed to enqueue analytics refresh")
			} else {
				lastAnalytics = time.Now()
			}
		}
	}
}

func checkAndEnqueuePaymentRun(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	// Load the singleton deployment config
	var depCfg models.DeploymentConfig
	err := db.First(&depCfg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug().Msg("No deployment config found - skipping payment run check")
			return
		}
		logger.Error().Err(err).Msg("Failed to query deployment config for payment run")
		return
	}

	// Check if a payment schedule is configured
	if depCfg.PaymentSchedule == "" {
		logger.Debug().Msg("No payment schedule configured")
		return
	}

	now := time.Now()
	if depCfg.NextPaymentRunAt != nil && depCfg.NextPaymentRunAt.After(now) {
		logger.Debug().
			Time("next_payment_run_at", *depCfg.NextPaymentRunAt).
			Msg("Payment run not due yet")
		return
	}

	schedule, err := cron.ParseStandard(depCfg.PaymentSchedule)
	if err != nil {
		logger.Error().Err(err).
			Str("payment_schedule", depCfg.PaymentSchedule).
			Msg("Invalid payment schedule cron expression")
		return
	}

	// First sighting of a schedule: just compute the next run, don't fire
	if depCfg.NextPaymentRunAt == nil {
		next := schedule.Next(now)
		depCfg.NextPaymentRunAt = &next
		if err := db.Save(&depCfg).Error; err != nil {
			logger.Error().Err(err).Msg("Failed to store next payment run time")
		}
		return
	}

	// Payouts cover the previous calendar month
	period := models.CurrentPeriodMonth(now.AddDate(0, -1, 0))

	task, err := tasks.NewGenerateMonthlyPaymentsTask(period)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build monthly payment task")
		return
	}
	if _, err := client.Enqueue(task); err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue monthly payment task")
		return
	}

	next := schedule.Next(now)
	depCfg.LastPaymentRunAt = &now
	depCfg.NextPaymentRunAt = &next
	if err := db.Save(&depCfg).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to update payment run bookkeeping")
		return
	}

	logger.Info().
		Str("period_month", period).
		Time("next_payment_run_at", next).
		Msg("Monthly payment run enqueued")
}
