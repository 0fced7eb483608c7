package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/tasks"
)

// HandleProcessPayment disburses a single pending payment: it stamps the
// payout with a transaction reference and marks it completed. A payment
// that is no longer pending is treated as already handled.
func HandleProcessPayment(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParsePaymentPayload(t)
	if err != nil {
		return err
	}

	var payment models.Payment
	if err := db.Where("id = ?", payload.PaymentID).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn().Str("payment_id", payload.PaymentID).Msg("Payment no longer exists")
			return nil
		}
		return fmt.Errorf("failed to load payment: %w", err)
	}

	if payment.Status != models.PaymentPending {
		logger.Debug().
			Str("payment_id", payment.ID).
			Str("status", payment.Status).
			Msg("Payment already processed")
		return nil
	}

	now := time.Now()
	paidAt := now
	payment.Status = models.PaymentCompleted
	payment.PaidAt = &paidAt
	payment.TxReference = models.GenerateTxReference(payment.ID, now)

	if err := db.Save(&payment).Error; err != nil {
		return fmt.Errorf("failed to complete payment: %w", err)
	}

	logger.Info().
		Str("payment_id", payment.ID).
		Str("farmer_id", payment.FarmerID).
		Str("tx_reference", payment.TxReference).
		Float64("amount", payment.TotalAmount).
		Msg("Payment disbursed")

	return nil
}

// HandleGenerateMonthlyPayments builds one pending payout per farmer for the
// given period from that month's collections. Farmers that already have a
// payout for the period are skipped, so the task is safe to re-run.
func HandleGenerateMonthlyPayments(ctx context.Context, t *asynq.Task, client *asynq.Client, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParsePeriodPayload(t)
	if err != nil {
		return err
	}
	if _, err := time.Parse("2006-01", payload.PeriodMonth); err != nil {
		return fmt.Errorf("invalid period month %q: %w", payload.PeriodMonth, err)
	}

	var depCfg models.DeploymentConfig
	if err := db.First(&depCfg).Error; err != nil {
		return fmt.Errorf("failed to load deployment config: %w", err)
	}

	// Aggregate the period's collections per farmer
	type farmerTotals struct {
		FarmerID    string
		TotalLiters float64
		TotalAmount float64
	}
	var totals []farmerTotals
	if err := db.Model(&models.Collection{}).
		Where("date LIKE ?", payload.PeriodMonth+"%").
		Select("farmer_id, SUM(liters) as total_liters, SUM(total_amount) as total_amount").
		Group("farmer_id").
		Scan(&totals).Error; err != nil {
		return fmt.Errorf("failed to aggregate collections: %w", err)
	}

	generated := 0
	for _, total := range totals {
		if total.TotalLiters <= 0 {
			continue
		}

		var count int64
		if err := db.Model(&models.Payment{}).
			Where("farmer_id = ? AND period_month = ?", total.FarmerID, payload.PeriodMonth).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing payouts: %w", err)
		}
		if count > 0 {
			continue
		}

		payment := &models.Payment{
			FarmerID:      total.FarmerID,
			PeriodMonth:   payload.PeriodMonth,
			TotalLiters:   total.TotalLiters,
			RatePerLiter:  total.TotalAmount / total.TotalLiters,
			TotalAmount:   total.TotalAmount,
			Status:        models.PaymentPending,
			PaymentMethod: "mpesa",
		}
		if err := db.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payout for farmer %s: %w", total.FarmerID, err)
		}

		// Chain disbursement
		task, err := tasks.NewProcessPaymentTask(payment.ID)
		if err != nil {
			return err
		}
		if _, err := client.Enqueue(task); err != nil {
			logger.Warn().Err(err).Str("payment_id", payment.ID).Msg("Failed to enqueue disbursement")
		}
		generated++
	}

	logger.Info().
		Str("period_month", payload.PeriodMonth).
		Int("payouts", generated).
		Msg("Monthly payout generation complete")

	return nil
}
