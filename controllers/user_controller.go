package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/truetread/truetread-api/auth"
	"github.com/truetread/truetread-api/middleware"
	"github.com/truetread/truetread-api/models"
)

// UserController serves the administrative identity endpoints.
type UserController struct {
	db     *gorm.DB
	secret []byte
	logger *zap.Logger
}

// NewUserController creates a UserController with its dependencies.
func NewUserController(db *gorm.DB, secret []byte, logger *zap.Logger) *UserController {
	return &UserController{db: db, secret: secret, logger: logger}
}

// AdminLoginRequest represents the request body for admin login
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/admin/login - verifies credentials, updates
// the last-login timestamp and issues a bearer token.
func (uc *UserController) Login(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required", "details": err.Error()})
		return
	}

	var adminUser models.AdminUser
	if err := uc.db.First(&adminUser, "email = ?", req.Email).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !auth.CheckPassword(adminUser.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	now := time.Now()
	if err := uc.db.Model(&adminUser).Update("last_login", now).Error; err != nil {
		uc.logger.Warn("failed to update last login", zap.String("email", adminUser.Email), zap.Error(err))
	}
	adminUser.LastLogin = &now

	token, err := auth.BuildToken(adminUser.ID, auth.AudienceAdmin, uc.secret, auth.DefaultTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": adminUser})
}

// CreateUserRequest represents the request body for creating an admin user
type CreateUserRequest struct {
	Email    string           `json:"email" binding:"required,email"`
	Password string           `json:"password" binding:"required,min=8"`
	FullName string           `json:"full_name"`
	Role     models.AdminRole `json:"role"`
}

// CreateUser handles POST /api/admin/users - creates a new administrative
// identity. Admin only (enforced by the route's middleware).
func (uc *UserController) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required", "details": err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleViewer
	}
	if !models.IsKnownRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": err.Error()})
		return
	}

	adminUser := models.AdminUser{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         role,
	}

	if err := uc.db.Create(&adminUser).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": err.Error()})
		return
	}

	uc.logger.Info("admin user created",
		zap.String("email", adminUser.Email),
		zap.String("role", string(adminUser.Role)))

	c.JSON(http.StatusCreated, gin.H{"user": adminUser})
}

// ListUsers handles GET /api/admin/users - lists administrative identities.
func (uc *UserController) ListUsers(c *gin.Context) {
	var users []models.AdminUser
	if err := uc.db.Order("created_at ASC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateRoleRequest represents the request body for changing a user's role
type UpdateRoleRequest struct {
	Role models.AdminRole `json:"role" binding:"required"`
}

// UpdateRole handles PATCH /api/admin/users/:userId - changes another
// user's role. A user can never change their own role.
func (uc *UserController) UpdateRole(c *gin.Context) {
	adminUser, err := middleware.CurrentAdmin(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userID := c.Param("userId")

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role is required", "details": err.Error()})
		return
	}

	if !models.IsKnownRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	// Self-protection rule: no user may change their own role
	if userID == adminUser.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot change your own role"})
		return
	}

	var target models.AdminUser
	if err := uc.db.First(&target, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := uc.db.Model(&target).Update("role", req.Role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeactivateUser handles DELETE /api/admin/users/:userId - deactivates
// another user (soft delete). A user can never deactivate themselves.
func (uc *UserController) DeactivateUser(c *gin.Context) {
	adminUser, err := middleware.CurrentAdmin(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userID := c.Param("userId")

	if userID == adminUser.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot deactivate yourself"})
		return
	}

	var target models.AdminUser
	if err := uc.db.First(&target, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := uc.db.Delete(&target).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate user", "details": err.Error()})
		return
	}

	uc.logger.Info("admin user deactivated",
		zap.String("email", target.Email),
		zap.String("by", adminUser.Email))

	c.JSON(http.StatusOK, gin.H{"success": true})
}
