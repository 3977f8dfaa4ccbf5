package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/truetread/truetread-api/auth"
	"github.com/truetread/truetread-api/middleware"
	"github.com/truetread/truetread-api/models"
)

// DealerController serves dealer registration, login, training and team
// management.
type DealerController struct {
	db     *gorm.DB
	secret []byte
	logger *zap.Logger
}

// NewDealerController creates a DealerController with its dependencies.
func NewDealerController(db *gorm.DB, secret []byte, logger *zap.Logger) *DealerController {
	return &DealerController{db: db, secret: secret, logger: logger}
}

// RegisterRequest represents the request body for registering a new dealer
type RegisterRequest struct {
	CompanyName  string `json:"company_name" binding:"required"`
	TaxID        string `json:"tax_id" binding:"required"`
	BusinessType string `json:"business_type"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
}

// Register handles POST /api/dealers/register - creates a dealer account and
// its primary profile in one transaction. Both start PENDING until the
// primary holder completes training.
func (dc *DealerController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account", "details": err.Error()})
		return
	}

	dealer := models.Dealer{
		CompanyName:  req.CompanyName,
		TaxID:        req.TaxID,
		BusinessType: req.BusinessType,
		Status:       models.AccountPending,
	}

	var profile models.Profile
	err = dc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dealer).Error; err != nil {
			return err
		}

		// The registering user is always the primary holder and can
		// always order once active.
		profile = models.Profile{
			DealerID:     dealer.ID,
			Email:        req.Email,
			PasswordHash: hash,
			FullName:     req.FullName,
			Phone:        req.Phone,
			Status:       models.AccountPending,
			IsPrimary:    true,
			CanOrder:     true,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "A dealer account with this Tax ID or email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create dealer account", "details": err.Error()})
		return
	}

	dc.logger.Info("dealer registered",
		zap.String("company", dealer.CompanyName),
		zap.String("dealer_id", dealer.ID))

	c.JSON(http.StatusCreated, gin.H{"dealer": dealer, "profile": profile})
}

// JoinRequest represents the request body for joining an existing dealer
type JoinRequest struct {
	TaxID    string `json:"tax_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Join handles POST /api/dealers/join - adds a non-primary profile to an
// existing dealer account located by tax id. The dealer must already be
// active, which requires the primary holder to have completed training.
func (dc *DealerController) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	var dealer models.Dealer
	if err := dc.db.First(&dealer, "tax_id = ?", req.TaxID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dealer account not found. Please check the Tax ID or contact the primary account holder."})
		return
	}

	if dealer.Status != models.AccountActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "This dealer account is not yet active. The primary account holder must complete the dealer training first."})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account", "details": err.Error()})
		return
	}

	profile := models.Profile{
		DealerID:     dealer.ID,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Status:       models.AccountPending,
		IsPrimary:    false,
		CanOrder:     false, // ordering rights are granted by the primary holder
	}

	if err := dc.db.Create(&profile).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists. Please log in instead."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"profile": profile})
}

// DealerLoginRequest represents the request body for dealer login
type DealerLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/dealer/login - verifies credentials against
// the profiles table and issues a bearer token.
func (dc *DealerController) Login(c *gin.Context) {
	var req DealerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required", "details": err.Error()})
		return
	}

	var profile models.Profile
	if err := dc.db.First(&profile, "email = ?", req.Email).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !auth.CheckPassword(profile.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.BuildToken(profile.ID, auth.AudienceDealer, dc.secret, auth.DefaultTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "profile": profile})
}

// CompleteTraining handles POST /api/dealers/training/complete - the one-time
// training gate. Activates the profile; when the primary holder completes it,
// the dealer account activates too.
func (dc *DealerController) CompleteTraining(c *gin.Context) {
	profile, err := middleware.CurrentProfile(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err = dc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Profile{}).
			Where("id = ?", profile.ID).
			Update("status", models.AccountActive).Error; err != nil {
			return err
		}

		if profile.IsPrimary {
			return tx.Model(&models.Dealer{}).
				Where("id = ?", profile.DealerID).
				Update("status", models.AccountActive).Error
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status", "details": err.Error()})
		return
	}

	dc.logger.Info("training completed",
		zap.String("profile_id", profile.ID),
		zap.Bool("is_primary", profile.IsPrimary))

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListTeam handles GET /api/dealers/team - lists all profiles under the
// caller's dealer account. Primary holder only.
func (dc *DealerController) ListTeam(c *gin.Context) {
	profile, err := middleware.CurrentProfile(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if !profile.IsPrimary {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the primary account holder can manage the team"})
		return
	}

	var team []models.Profile
	if err := dc.db.Where("dealer_id = ?", profile.DealerID).Order("created_at ASC").Find(&team).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load team", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"team": team})
}

// SetOrderingRequest represents the request body for toggling ordering rights
type SetOrderingRequest struct {
	CanOrder *bool `json:"can_order" binding:"required"`
}

// SetOrdering handles PATCH /api/dealers/team/:profileId/ordering - grants or
// revokes a teammate's ordering rights. Primary holder only; the primary's
// own implicit rights cannot be edited.
func (dc *DealerController) SetOrdering(c *gin.Context) {
	profile, err := middleware.CurrentProfile(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if !profile.IsPrimary {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the primary account holder can manage the team"})
		return
	}

	var req SetOrderingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "can_order is required", "details": err.Error()})
		return
	}

	targetID := c.Param("profileId")
	if targetID == profile.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot change your own ordering rights"})
		return
	}

	var target models.Profile
	if err := dc.db.First(&target, "id = ? AND dealer_id = ?", targetID, profile.DealerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team member not found"})
		return
	}

	if target.IsPrimary {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The primary account holder always has ordering rights"})
		return
	}

	if err := dc.db.Model(&target).Update("can_order", *req.CanOrder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ordering rights", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
