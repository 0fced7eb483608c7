package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dairychain-dev/dairychain/internal/analytics"
	"github.com/dairychain-dev/dairychain/internal/models"
)

// DashboardResponse is the staff-facing dashboard payload
type DashboardResponse struct {
	TotalFarmers      int64            `json:"total_farmers"`
	ActiveCollections int64            `json:"active_collections"`
	MonthlyRevenue    float64          `json:"monthly_revenue"`
	QualityDist       map[string]int64 `json:"quality_distribution"`
}

// AdminDashboardResponse is the admin dashboard payload
type AdminDashboardResponse struct {
	FarmerStats struct {
		Total      int64 `json:"total"`
		Active     int64 `json:"active"`
		PendingKYC int64 `json:"pending_kyc"`
	} `json:"farmer_stats"`
	CollectionStats struct {
		Today      float64 `json:"today"`
		ThisWeek   float64 `json:"this_week"`
		ThisMonth  float64 `json:"this_month"`
		AvgQuality float64 `json:"avg_quality"`
	} `json:"collection_stats"`
	PaymentStats struct {
		Pending     int64   `json:"pending"`
		Completed   int64   `json:"completed"`
		TotalAmount float64 `json:"total_amount"`
	} `json:"payment_stats"`
	QualityMetrics struct {
		GradeA int64 `json:"grade_a"`
		GradeB int64 `json:"grade_b"`
		GradeC int64 `json:"grade_c"`
	} `json:"quality_metrics"`
	SystemHealth struct {
		Database string `json:"database"`
		Queue    string `json:"queue"`
		API      string `json:"api"`
	} `json:"system_health"`
	LastUpdated time.Time `json:"last_updated"`
}

// @Summary Dashboard stats
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DashboardResponse
// @Router /api/v1/analytics/dashboard [get]
func (s *Server) getDashboard(c *gin.Context) {
	stats, err := analytics.Load(s.db, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load dashboard stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, DashboardResponse{
		TotalFarmers:      stats.TotalFarmers,
		ActiveCollections: stats.ActiveCollections,
		MonthlyRevenue:    stats.MonthlyRevenue,
		QualityDist: map[string]int64{
			models.GradeA: stats.GradeA,
			models.GradeB: stats.GradeB,
			models.GradeC: stats.GradeC,
		},
	})
}

// @Summary Admin dashboard stats
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AdminDashboardResponse
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/analytics/admin/dashboard [get]
func (s *Server) getAdminDashboard(c *gin.Context) {
	stats, err := analytics.Load(s.db, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load dashboard stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var resp AdminDashboardResponse
	resp.FarmerStats.Total = stats.TotalFarmers
	resp.FarmerStats.Active = stats.ActiveFarmers
	resp.FarmerStats.PendingKYC = stats.PendingKYC
	resp.CollectionStats.Today = stats.CollectionsToday
	resp.CollectionStats.ThisWeek = stats.CollectionsWeek
	resp.CollectionStats.ThisMonth = stats.CollectionsMonth
	resp.CollectionStats.AvgQuality = stats.AvgQuality
	resp.PaymentStats.Pending = stats.PendingPayments
	resp.PaymentStats.Completed = stats.CompletedPayments
	resp.PaymentStats.TotalAmount = stats.TotalPaymentsOut
	resp.QualityMetrics.GradeA = stats.GradeA
	resp.QualityMetrics.GradeB = stats.GradeB
	resp.QualityMetrics.GradeC = stats.GradeC
	resp.SystemHealth.Database = "ok"
	resp.SystemHealth.Queue = s.queueHealth()
	resp.SystemHealth.API = "ok"
	resp.LastUpdated = stats.RefreshedAt

	c.JSON(http.StatusOK, resp)
}

// queueHealth pings Redis through the asynq client
func (s *Server) queueHealth() string {
	if err := s.asynqClient.Ping(); err != nil {
		return "unreachable"
	}
	return "ok"
}

// @Summary Recent activity feed
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Activity
// @Router /api/v1/analytics/activity [get]
func (s *Server) listActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var activity []models.Activity
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&activity).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list activity")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, activity)
}
