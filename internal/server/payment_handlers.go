package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/tasks"
)

// CreatePaymentRequest represents a payout creation request
type CreatePaymentRequest struct {
	FarmerID      string  `json:"farmer_id" binding:"required"`
	PeriodMonth   string  `json:"period_month" binding:"required"`
	TotalLiters   float64 `json:"total_liters" binding:"required,gt=0"`
	RatePerLiter  float64 `json:"rate_per_liter" binding:"required,gt=0"`
	TotalAmount   float64 `json:"total_amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" binding:"required,oneof=mpesa bank cash"`
	PhoneNumber   string  `json:"phone_number"`
	AccountNumber string  `json:"account_number"`
}

// UpdatePaymentRequest represents a payment status change
type UpdatePaymentRequest struct {
	Status string     `json:"status" binding:"omitempty,oneof=pending completed failed cancelled"`
	PaidAt *time.Time `json:"paid_at"`
}

// @Summary List payments
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PaginatedResponse
// @Router /api/v1/payments [get]
func (s *Server) listPayments(c *gin.Context) {
	page, size := paginate(c)

	query := s.db.Model(&models.Payment{})
	if farmerID := c.Query("farmer_id"); farmerID != "" {
		query = query.Where("farmer_id = ?", farmerID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count payments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var payments []models.Payment
	if err := query.Order("period_month DESC, created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&payments).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list payments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(payments, page, size, total))
}

// @Summary Get payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} models.Payment
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/payments/{id} [get]
func (s *Server) getPayment(c *gin.Context) {
	var payment models.Payment
	if err := s.db.Where("id = ?", c.Param("id")).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// @Summary Create payment
// @Description Creates a pending payout and enqueues it for processing
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePaymentRequest true "Payout"
// @Success 201 {object} models.Payment
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/payments [post]
func (s *Server) createPayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Var(req.PeriodMonth, "periodmonth"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_month must be YYYY-MM"})
		return
	}
	if req.PaymentMethod == "mpesa" && req.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone_number is required for mpesa payments"})
		return
	}
	if req.PaymentMethod == "bank" && req.AccountNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_number is required for bank payments"})
		return
	}

	var farmer models.Farmer
	if err := s.db.Where("id = ?", req.FarmerID).First(&farmer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Farmer not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find farmer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	payment := &models.Payment{
		FarmerID:      req.FarmerID,
		PeriodMonth:   req.PeriodMonth,
		TotalLiters:   req.TotalLiters,
		RatePerLiter:  req.RatePerLiter,
		TotalAmount:   req.TotalAmount,
		Status:        models.PaymentPending,
		PaymentMethod: req.PaymentMethod,
		PhoneNumber:   req.PhoneNumber,
		AccountNumber: req.AccountNumber,
	}
	if err := s.db.Create(payment).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment"})
		return
	}

	// Hand off to the worker for disbursement
	task, err := tasks.NewProcessPaymentTask(payment.ID)
	if err == nil {
		_, err = s.asynqClient.Enqueue(task)
	}
	if err != nil {
		// The payment stays pending; the scheduler will pick it up later
		s.logger.Warn().Err(err).Str("payment_id", payment.ID).Msg("Failed to enqueue payment processing")
	}

	sessionData, _ := GetSessionData(c)
	s.recordActivity("payment", "Payout created for "+farmer.Name+" ("+payment.PeriodMonth+")", sessionData.UserID)

	c.JSON(http.StatusCreated, payment)
}

// @Summary Update payment
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param request body UpdatePaymentRequest true "Status change"
// @Success 200 {object} models.Payment
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/payments/{id} [put]
func (s *Server) updatePayment(c *gin.Context) {
	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payment models.Payment
	if err := s.db.Where("id = ?", c.Param("id")).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if payment.Status == models.PaymentCompleted && req.Status != "" && req.Status != models.PaymentCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Completed payments cannot change status"})
		return
	}

	if req.Status != "" {
		payment.Status = req.Status
	}
	if req.PaidAt != nil {
		payment.PaidAt = req.PaidAt
	}

	if err := s.db.Save(&payment).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment"})
		return
	}

	c.JSON(http.StatusOK, payment)
}
