// Package analytics computes the cached dashboard statistics. The worker
// refreshes the cache periodically; the server falls back to a direct
// computation when the cache is missing or stale.
package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/quality"
)

// StaleAfter is how old the cached snapshot may get before readers recompute
const StaleAfter = 5 * time.Minute

// Compute builds a fresh dashboard snapshot from the database
func Compute(db *gorm.DB, now time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{RefreshedAt: now}

	if err := db.Model(&models.Farmer{}).Count(&stats.TotalFarmers).Error; err != nil {
		return nil, fmt.Errorf("failed to count farmers: %w", err)
	}
	if err := db.Model(&models.Farmer{}).
		Where("kyc_status = ?", models.KYCApproved).
		Count(&stats.ActiveFarmers).Error; err != nil {
		return nil, fmt.Errorf("failed to count active farmers: %w", err)
	}
	if err := db.Model(&models.Farmer{}).
		Where("kyc_status IN ?", []string{models.KYCPending, models.KYCUnderReview}).
		Count(&stats.PendingKYC).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending KYC: %w", err)
	}

	today := now.UTC().Format("2006-01-02")
	weekStart := now.UTC().AddDate(0, 0, -7).Format("2006-01-02")
	monthStart := now.UTC().Format("2006-01") + "-01"

	if err := db.Model(&models.Collection{}).
		Where("date >= ?", monthStart).
		Count(&stats.ActiveCollections).Error; err != nil {
		return nil, fmt.Errorf("failed to count collections: %w", err)
	}

	sums := []struct {
		since string
		dest  *float64
	}{
		{today, &stats.CollectionsToday},
		{weekStart, &stats.CollectionsWeek},
		{monthStart, &stats.CollectionsMonth},
	}
	for _, sum := range sums {
		var liters *float64
		if err := db.Model(&models.Collection{}).
			Where("date >= ?", sum.since).
			Select("SUM(liters)").Scan(&liters).Error; err != nil {
			return nil, fmt.Errorf("failed to sum collections: %w", err)
		}
		if liters != nil {
			*sum.dest = *liters
		}
	}

	// Quality distribution and average score over the current month
	type gradeCount struct {
		QualityGrade string
		N            int64
	}
	var grades []gradeCount
	if err := db.Model(&models.Collection{}).
		Where("date >= ?", monthStart).
		Select("quality_grade, COUNT(*) as n").
		Group("quality_grade").
		Scan(&grades).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate grades: %w", err)
	}
	var graded, scoreSum float64
	for _, g := range grades {
		switch g.QualityGrade {
		case models.GradeA:
			stats.GradeA = g.N
		case models.GradeB:
			stats.GradeB = g.N
		case models.GradeC:
			stats.GradeC = g.N
		}
		graded += float64(g.N)
		scoreSum += float64(g.N) * quality.Score(g.QualityGrade)
	}
	if graded > 0 {
		stats.AvgQuality = scoreSum / graded
	}

	var revenue *float64
	if err := db.Model(&models.Collection{}).
		Where("date >= ?", monthStart).
		Select("SUM(total_amount)").Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if revenue != nil {
		stats.MonthlyRevenue = *revenue
	}

	if err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentPending).
		Count(&stats.PendingPayments).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending payments: %w", err)
	}
	if err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentCompleted).
		Count(&stats.CompletedPayments).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed payments: %w", err)
	}
	var paymentsOut *float64
	if err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentCompleted).
		Select("SUM(total_amount)").Scan(&paymentsOut).Error; err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}
	if paymentsOut != nil {
		stats.TotalPaymentsOut = *paymentsOut
	}

	return stats, nil
}

// Refresh recomputes the snapshot and replaces the singleton cache row
func Refresh(db *gorm.DB, now time.Time) (*models.DashboardStats, error) {
	stats, err := Compute(db, now)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.DashboardStats{}).Error; err != nil {
			return err
		}
		return tx.Create(stats).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store dashboard stats: %w", err)
	}

	return stats, nil
}

// Load returns the cached snapshot, recomputing (and caching) when the cache
// is missing or older than StaleAfter
func Load(db *gorm.DB, now time.Time) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := db.First(&stats).Error
	if err == nil && now.Sub(stats.RefreshedAt) < StaleAfter {
		return &stats, nil
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return Refresh(db, now)
}
