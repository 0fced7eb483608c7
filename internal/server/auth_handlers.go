package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/auth"
	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/seed"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a staff self-registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success      bool         `json:"success"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         *models.User `json:"user"`
	RedirectURL  string       `json:"redirect_url,omitempty"`
}

// RefreshResponse represents a token refresh response
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// issueTokens generates an access/refresh token pair for a user and
// records the refresh token's jti so logout can revoke it
func (s *Server) issueTokens(user *models.User) (*LoginResponse, error) {
	accessToken, err := auth.GenerateAccessToken(
		user.ID, user.Username, user.Role, user.IsAdmin, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, jti, err := auth.GenerateRefreshToken(
		user.ID, user.Username, user.Role, user.IsAdmin, s.config.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.config.Auth.RefreshTokenTTL),
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, err
	}

	return &LoginResponse{
		Success:      true,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User:         user,
		RedirectURL:  redirectForUser(user),
	}, nil
}

// redirectForUser returns the post-login landing route for a user's portal
func redirectForUser(user *models.User) string {
	if user.Portal != "" {
		return "/" + user.Portal
	}
	switch user.Role {
	case models.RoleFarmer:
		return "/farmer-portal"
	case models.RoleFieldAgent:
		return "/collections"
	default:
		return "/"
	}
}

// @Summary Login
// @Description Authenticate with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Find user by username
	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
		return
	}

	// Verify password
	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	resp, err := s.issueTokens(&user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User logged in")

	c.JSON(http.StatusOK, resp)
}

// @Summary Development login
// @Description Authenticate against the seeded development credentials
// @Tags auth
// @Produce json
// @Param username query string true "Username"
// @Param password query string true "Password"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/login/dummy [post]
func (s *Server) dummyLogin(c *gin.Context) {
	// The web dashboard sends credentials as query parameters; a JSON body
	// is accepted as well for CLI use.
	username := c.Query("username")
	password := c.Query("password")
	if username == "" {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}
		username, password = req.Username, req.Password
	}

	var match *seed.DevUser
	for i := range s.devUsers {
		if s.devUsers[i].Username == username && s.devUsers[i].Password == password {
			match = &s.devUsers[i]
			break
		}
	}
	if match == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid development credentials"})
		return
	}

	// Seeded accounts exist in the users table; log in as that account
	var user models.User
	if err := s.db.Where("username = ?", match.Username).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("username", match.Username).Msg("Seeded user missing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp, err := s.issueTokens(&user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("username", user.Username).Str("role", user.Role).Msg("Development login")

	c.JSON(http.StatusOK, resp)
}

// @Summary List development credentials
// @Description Lists the seeded development users (dev mode only)
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]seed.DevUser
// @Router /api/v1/auth/dummy-credentials [get]
func (s *Server) dummyCredentials(c *gin.Context) {
	creds := make(map[string]seed.DevUser, len(s.devUsers))
	for _, u := range s.devUsers {
		creds[u.Username] = u
	}
	c.JSON(http.StatusOK, creds)
}

// @Summary Register
// @Description Staff self-registration
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		Role:         models.RoleStaff,
		IsActive:     true,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Logout
// @Description Revokes all refresh tokens for the current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := s.db.Where("user_id = ?", sessionData.UserID).
		Delete(&models.RefreshToken{}).Error; err != nil {
		// Revocation failure is logged but the logout still acks: the client
		// tears its session down regardless.
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to revoke refresh tokens")
	}

	s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// @Summary Refresh access token
// @Description Exchange a valid refresh token for a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh request"
// @Success 200 {object} RefreshResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/refresh [post]
func (s *Server) refreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := auth.ValidateToken(req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	// Reject revoked tokens (logout deletes the jti row)
	var record models.RefreshToken
	if err := s.db.Where("jti = ?", claims.ID).First(&record).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token has been revoked"})
		return
	}
	if time.Now().After(record.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token has expired"})
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
		return
	}

	accessToken, err := auth.GenerateAccessToken(
		user.ID, user.Username, user.Role, user.IsAdmin, s.config.Auth.AccessTokenTTL)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}
