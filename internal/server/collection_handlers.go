package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/quality"
)

// CreateCollectionRequest represents a milk collection entry
type CreateCollectionRequest struct {
	FarmerID       string   `json:"farmer_id" binding:"required"`
	StaffID        string   `json:"staff_id"`
	Date           string   `json:"date" binding:"required" validate:"isodate"`
	Liters         float64  `json:"liters" binding:"required,gt=0"`
	Temperature    float64  `json:"temperature" binding:"required"`
	FatContent     float64  `json:"fat_content" binding:"required,gt=0"`
	ProteinContent float64  `json:"protein_content" binding:"required,gt=0"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

// @Summary List collections
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PaginatedResponse
// @Router /api/v1/collections [get]
func (s *Server) listCollections(c *gin.Context) {
	page, size := paginate(c)

	query := s.db.Model(&models.Collection{})
	if farmerID := c.Query("farmer_id"); farmerID != "" {
		query = query.Where("farmer_id = ?", farmerID)
	}
	if staffID := c.Query("staff_id"); staffID != "" {
		query = query.Where("staff_id = ?", staffID)
	}

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

// @Summary Record collection
// @Description Records a milk pickup; the quality grade and payout amount are derived server-side
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCollectionRequest true "Collection entry"
// @Success 201 {object} models.Collection
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/collections [post]
func (s *Server) createCollection(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.StaffID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "staff_id is required"})
		return
	}

	collection, err := s.storeCollection(c, &req, req.StaffID)
	if err != nil {
		return // storeCollection has already responded
	}

	c.JSON(http.StatusCreated, collection)
}

// @Summary Record collection (mobile)
// @Description Same as the collections endpoint but the staff ID comes from the session
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCollectionRequest true "Collection entry"
// @Success 201 {object} models.Collection
// @Router /api/v1/collections/mobile [post]
func (s *Server) createMobileCollection(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)
	collection, err := s.storeCollection(c, &req, sessionData.UserID)
	if err != nil {
		return
	}

	c.JSON(http.StatusCreated, collection)
}

// @Summary Record collections in bulk
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []CreateCollectionRequest true "Collection entries"
// @Success 201 {object} map[string]interface{}
// @Router /api/v1/collections/bulk [post]
func (s *Server) createBulkCollections(c *gin.Context) {
	var reqs []CreateCollectionRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one collection is required"})
		return
	}

	created := make([]*models.Collection, 0, len(reqs))
	for i := range reqs {
		if reqs[i].StaffID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("entry %d is missing staff_id", i)})
			return
		}
		collection, err := s.storeCollection(c, &reqs[i], reqs[i].StaffID)
		if err != nil {
			return
		}
		created = append(created, collection)
	}

	c.JSON(http.StatusCreated, gin.H{"created": len(created), "items": created})
}

// storeCollection validates the farmer, derives grade and payout, persists the
// collection and updates the farmer's running totals. On failure it writes the
// HTTP error response itself and returns a non-nil error.
func (s *Server) storeCollection(c *gin.Context, req *CreateCollectionRequest, staffID string) (*models.Collection, error) {
	if err := s.validator.Var(req.Date, "isodate"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return nil, err
	}

	var farmer models.Farmer
	if err := s.db.Where("id = ?", req.FarmerID).First(&farmer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Farmer not found"})
			return nil, err
		}
		s.logger.Error().Err(err).Msg("Failed to find farmer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, err
	}

	if farmer.KYCStatus != models.KYCApproved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Farmer KYC is not approved"})
		return nil, fmt.Errorf("farmer %s kyc not approved", farmer.ID)
	}

	var depCfg models.DeploymentConfig
	if err := s.db.First(&depCfg).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load deployment config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, err
	}

	grade := quality.Grade(req.Temperature, req.FatContent, req.ProteinContent)
	rate := quality.Rate(grade, depCfg.DefaultRatePerLiter)

	collection := &models.Collection{
		FarmerID:       req.FarmerID,
		StaffID:        staffID,
		Date:           req.Date,
		Liters:         req.Liters,
		Temperature:    req.Temperature,
		FatContent:     req.FatContent,
		ProteinContent: req.ProteinContent,
		QualityGrade:   grade,
		PricePerLiter:  rate,
		TotalAmount:    rate * req.Liters,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(collection).Error; err != nil {
			return err
		}
		return tx.Model(&models.Farmer{}).Where("id = ?", farmer.ID).
			Updates(map[string]interface{}{
				"total_volume":   gorm.Expr("total_volume + ?", collection.Liters),
				"total_earnings": gorm.Expr("total_earnings + ?", collection.TotalAmount),
			}).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to record collection")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record collection"})
		return nil, err
	}

	s.recordActivity("collection",
		fmt.Sprintf("%.1fL grade %s collected from %s", collection.Liters, grade, farmer.Name),
		staffID)

	return collection, nil
}
