package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/models"
)

// PaginatedResponse is the common envelope for list endpoints
type PaginatedResponse struct {
	Items   interface{} `json:"items"`
	Page    int         `json:"page"`
	Size    int         `json:"size"`
	Total   int64       `json:"total"`
	Pages   int64       `json:"pages"`
	HasNext bool        `json:"has_next"`
	HasPrev bool        `json:"has_prev"`
}

func paginate(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}

func paginatedResponse(items interface{}, page, size int, total int64) PaginatedResponse {
	pages := (total + int64(size) - 1) / int64(size)
	return PaginatedResponse{
		Items:   items,
		Page:    page,
		Size:    size,
		Total:   total,
		Pages:   pages,
		HasNext: int64(page) < pages,
		HasPrev: page > 1,
	}
}

// CreateFarmerRequest represents a farmer registration request
type CreateFarmerRequest struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Email      string `json:"email" binding:"omitempty,email"`
	Location   string `json:"location"`
	NationalID string `json:"national_id" binding:"required"`
}

// UpdateFarmerRequest represents a farmer update request (partial)
type UpdateFarmerRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Location *string `json:"location"`
}

// UpdateKYCRequest represents a KYC status change
type UpdateKYCRequest struct {
	KYCStatus      string `json:"kyc_status" binding:"required,oneof=pending approved rejected under_review"`
	RejectedReason string `json:"rejected_reason"`
}

// @Summary List farmers
// @Tags farmers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PaginatedResponse
// @Router /api/v1/farmers [get]
func (s *Server) listFarmers(c *gin.Context) {
	page, size := paginate(c)

	query := s.db.Model(&models.Farmer{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ? OR location LIKE ?", like, like, like)
	}
	if status := c.Query("status_filter"); status != "" {
		query = query.Where("kyc_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count farmers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var farmers []models.Farmer
	if err := query.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&farmers).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list farmers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(farmers, page, size, total))
}

// @Summary Get farmer
// @Tags farmers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Farmer ID"
// @Success 200 {object} models.Farmer
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/farmers/{id} [get]
func (s *Server) getFarmer(c *gin.Context) {
	var farmer models.Farmer
	if err := s.db.Where("id = ?", c.Param("id")).First(&farmer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Farmer not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find farmer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, farmer)
}

// @Summary Register farmer
// @Tags farmers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateFarmerRequest true "Farmer registration"
// @Success 201 {object} models.Farmer
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/farmers [post]
func (s *Server) createFarmer(c *gin.Context) {
	var req CreateFarmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := s.db.Model(&models.Farmer{}).
		Where("national_id = ?", req.NationalID).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing farmers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A farmer with this national ID already exists"})
		return
	}

	farmer := &models.Farmer{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Location:   req.Location,
		NationalID: req.NationalID,
		KYCStatus:  models.KYCPending,
	}
	if err := s.db.Create(farmer).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create farmer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create farmer"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.recordActivity("farmer", "Farmer "+farmer.Name+" registered", sessionData.UserID)

	s.logger.Info().Str("farmer_id", farmer.ID).Str("created_by", sessionData.UserID).Msg("Farmer registered")

	c.JSON(http.StatusCreated, farmer)
}

// @Summary Update farmer
// @Tags farmers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Farmer ID"
// @Param request body UpdateFarmerRequest true "Fields to update"
// @Success 200 {object} models.Farmer
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/farmers/{id} [put]
func (s *Server) updateFarmer(c *gin.Context) {
	var req UpdateFarmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var farmer models.Farmer
	if err := s.db.Where("id = ?", c.Param("id")).First(&farmer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Farmer not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find farmer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.Name != nil {
		farmer.Name = *req.Name
	}
	if req.Phone != nil {
		farmer.Phone = *req.Phone
	}
	if req.Email != nil {
		farmer.Email = *req.Email
	}
	if req.Location != nil {
		farmer.Location = *req.Location
	}

	if err := s.db.Save(&farmer).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update farmer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update farmer"})
		return
	}

	c.JSON(http.StatusOK, farmer)
}

// @Summary Update KYC status
// @Tags farmers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Farmer ID"
// @Param request body UpdateKYCRequest true "KYC status change"
// @Success 200 {object} models.Farmer
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/farmers/{id}/kyc [patch]
func (s *Server) updateKYCStatus(c *gin.Context) {
	var req UpdateKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.KYCStatus == models.KYCRejected && req.RejectedReason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rejected_reason is required when rejecting"})
		return
	}

	var farmer models.Farmer
	if err := s.db.Where("id = ?", c.Param("id")).First(&farmer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Farmer not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find farmer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	farmer.KYCStatus = req.KYCStatus
	if req.KYCStatus == models.KYCRejected {
		farmer.RejectedReason = req.RejectedReason
	} else {
		farmer.RejectedReason = ""
	}
	// Approval issues the collection card
	if req.KYCStatus == models.KYCApproved {
		farmer.CardIssued = true
	}

	if err := s.db.Save(&farmer).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update KYC status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update KYC status"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.recordActivity("kyc", "KYC for "+farmer.Name+" set to "+farmer.KYCStatus, sessionData.UserID)

	c.JSON(http.StatusOK, farmer)
}

// @Summary List a farmer's collections
// @Tags farmers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Farmer ID"
// @Success 200 {object} PaginatedResponse
// @Router /api/v1/farmers/{id}/collections [get]
func (s *Server) listFarmerCollections(c *gin.Context) {
	page, size := paginate(c)
	farmerID := c.Param("id")

	query := s.db.Model(&models.Collection{}).Where("farmer_id = ?", farmerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count collections")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var collections []models.Collection
	if err := query.Order("date DESC, created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&collections).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list collections")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(collections, page, size, total))
}

// @Summary List a farmer's payments
// @Tags farmers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Farmer ID"
// @Success 200 {object} PaginatedResponse
// @Router /api/v1/farmers/{id}/payments [get]
func (s *Server) listFarmerPayments(c *gin.Context) {
	page, size := paginate(c)
	farmerID := c.Param("id")

	query := s.db.Model(&models.Payment{}).Where("farmer_id = ?", farmerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count payments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var payments []models.Payment
	if err := query.Order("period_month DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&payments).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list payments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(payments, page, size, total))
}

// recordActivity appends an entry to the dashboard activity feed.
// Feed writes are best-effort and never fail the originating request.
func (s *Server) recordActivity(kind, message, actorID string) {
	activity := &models.Activity{
		Kind:    kind,
		Message: message,
		ActorID: actorID,
	}
	if err := s.db.Create(activity).Error; err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Msg("Failed to record activity")
	}
}
