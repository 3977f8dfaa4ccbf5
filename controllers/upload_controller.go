package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/truetread/truetread-api/middleware"
	"github.com/truetread/truetread-api/models"
	"github.com/truetread/truetread-api/services"
	"github.com/truetread/truetread-api/utils"
)

// UploadController serves project-image uploads for orders.
type UploadController struct {
	db      *gorm.DB
	storage services.Storage
	logger  *zap.Logger
}

// NewUploadController creates an UploadController with its dependencies.
func NewUploadController(db *gorm.DB, storage services.Storage, logger *zap.Logger) *UploadController {
	return &UploadController{db: db, storage: storage, logger: logger}
}

// UploadOrderImage handles POST /api/orders/:orderId/images - attaches a
// project image to one of the dealer's own orders. Expects a multipart form
// with an "image" field.
func (up *UploadController) UploadOrderImage(c *gin.Context) {
	profile, err := middleware.CurrentProfile(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var order models.Order
	if err := up.db.First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	// Dealers may only attach images to their own orders
	if order.DealerID != profile.DealerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required", "details": err.Error()})
		return
	}

	contentType, err := utils.ValidateImageFile(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s3Key, err := up.storage.UploadFile(fileHeader, contentType)
	if err != nil {
		up.logger.Error("image upload failed", zap.String("order_id", order.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image", "details": err.Error()})
		return
	}

	image := models.OrderImage{
		OrderID:     order.ID,
		S3Key:       s3Key,
		FileName:    fileHeader.Filename,
		FileSize:    fileHeader.Size,
		ContentType: contentType,
		UploadedBy:  profile.ID,
	}

	if err := up.db.Create(&image).Error; err != nil {
		// Best effort cleanup so the bucket does not accumulate orphans
		if deleteErr := up.storage.DeleteFile(s3Key); deleteErr != nil {
			up.logger.Warn("failed to remove orphaned upload", zap.String("s3_key", s3Key), zap.Error(deleteErr))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record image", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": image})
}
