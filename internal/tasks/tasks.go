package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Payment tasks
	TypeProcessPayment          = "payment:process"
	TypeGenerateMonthlyPayments = "payment:generate_monthly"

	// Analytics tasks
	TypeRefreshAnalytics = "analytics:refresh"
)

// PaymentPayload is the payload for single-payment tasks
type PaymentPayload struct {
	PaymentID string `json:"payment_id"`
}

// PeriodPayload is the payload for the monthly payment generation task
type PeriodPayload struct {
	PeriodMonth string `json:"period_month"` // YYYY-MM
}

// NewProcessPaymentTask creates a task to disburse a pending payment
func NewProcessPaymentTask(paymentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PaymentPayload{PaymentID: paymentID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeProcessPayment, payload, asynq.Queue("critical")), nil
}

// NewGenerateMonthlyPaymentsTask creates a task to build payouts for a period
func NewGenerateMonthlyPaymentsTask(periodMonth string) (*asynq.Task, error) {
	payload, err := json.Marshal(PeriodPayload{PeriodMonth: periodMonth})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeGenerateMonthlyPayments, payload), nil
}

// NewRefreshAnalyticsTask creates a task to recompute the dashboard cache
func NewRefreshAnalyticsTask() *asynq.Task {
	return asynq.NewTask(TypeRefreshAnalytics, nil, asynq.Queue("low"))
}

// ParsePaymentPayload parses a payment task payload from an Asynq task
func ParsePaymentPayload(task *asynq.Task) (PaymentPayload, error) {
	var payload PaymentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParsePeriodPayload parses a period task payload from an Asynq task
func ParsePeriodPayload(task *asynq.Task) (PeriodPayload, error) {
	var payload PeriodPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
