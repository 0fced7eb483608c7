package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/auth"
	"github.com/dairychain-dev/dairychain/internal/models"
)

// CreateStaffRequest represents an admin creating a staff account
type CreateStaffRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=admin staff field_agent"`
	Phone    string `json:"phone"`
}

// UpdateStaffRequest represents a partial staff update
type UpdateStaffRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

// @Summary List staff
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PaginatedResponse
// @Router /api/v1/staff [get]
func (s *Server) listStaff(c *gin.Context) {
	page, size := paginate(c)

	query := s.db.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("is_active = ?", status == "active")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count staff")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var staff []models.User
	if err := query.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&staff).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list staff")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(staff, page, size, total))
}

// @Summary Create staff member
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateStaffRequest true "Staff account"
// @Success 201 {object} models.User
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/staff [post]
func (s *Server) createStaff(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create staff member"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		Role:         req.Role,
		Phone:        req.Phone,
		IsActive:     true,
		IsAdmin:      req.Role == models.RoleAdmin,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create staff member")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create staff member"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", user.Role).
		Str("created_by", sessionData.UserID).
		Msg("Staff member created")

	c.JSON(http.StatusCreated, user)
}

// @Summary Get staff member
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/staff/{id} [get]
func (s *Server) getStaffMember(c *gin.Context) {
	var user models.User
	if err := s.db.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find staff member")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Update staff member
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateStaffRequest true "Fields to update"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/staff/{id} [put]
func (s *Server) updateStaff(c *gin.Context) {
	var req UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find staff member")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	sessionData, _ := GetSessionData(c)

	// Prevent deactivating yourself
	if req.IsActive != nil && !*req.IsActive && user.ID == sessionData.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot deactivate yourself"})
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		user.Role = *req.Role
		user.IsAdmin = *req.Role == models.RoleAdmin
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.db.Save(&user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update staff member")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update staff member"})
		return
	}

	c.JSON(http.StatusOK, user)
}
