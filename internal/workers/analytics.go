package workers

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/analytics"
)

// HandleRefreshAnalytics recomputes the cached dashboard snapshot
func HandleRefreshAnalytics(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	stats, err := analytics.Refresh(db, time.Now())
	if err != nil {
		return err
	}

	logger.Debug().
		Int64("total_farmers", stats.TotalFarmers).
		Float64("monthly_revenue", stats.MonthlyRevenue).
		Msg("Dashboard stats refreshed")

	return nil
}
