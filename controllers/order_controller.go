package controllers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/truetread/truetread-api/middleware"
	"github.com/truetread/truetread-api/models"
	"github.com/truetread/truetread-api/services"
	"github.com/truetread/truetread-api/utils"
)

// OrderController serves the dealer-facing order endpoints.
type OrderController struct {
	db       *gorm.DB
	notifier services.Notifier
	logger   *zap.Logger
}

// NewOrderController creates an OrderController with its dependencies.
func NewOrderController(db *gorm.DB, notifier services.Notifier, logger *zap.Logger) *OrderController {
	return &OrderController{db: db, notifier: notifier, logger: logger}
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	// Basic information
	FirstName           string `json:"first_name" binding:"required"`
	LastName            string `json:"last_name" binding:"required"`
	Company             string `json:"company"`
	PurchaseOrderNumber string `json:"purchase_order_number" binding:"required"`
	Sidemark            string `json:"sidemark" binding:"required"`
	Phone               string `json:"phone" binding:"required"`
	Email               string `json:"email" binding:"required,email"`

	// Stair details
	StairType          string `json:"stair_type"`
	StepsNoOpenReturn  int    `json:"steps_no_open_return" binding:"gte=0"`
	StepsOneOpenReturn int    `json:"steps_one_open_return" binding:"gte=0"`
	StepsTwoOpenReturn int    `json:"steps_two_open_return" binding:"gte=0"`
	LongestPlankSize   string `json:"longest_plank_size" binding:"required"`
	StepsDetails       string `json:"steps_details" binding:"required"`

	// Flooring match information
	Manufacturer          string `json:"manufacturer" binding:"required"`
	Style                 string `json:"style" binding:"required"`
	Color                 string `json:"color" binding:"required"`
	FloorMatchDescription string `json:"floor_match_description"`

	// Rail cap trim
	RailCapTrimNeeded  bool   `json:"rail_cap_trim_needed"`
	RailCapTrimDetails string `json:"rail_cap_trim_details"`

	// Payment and shipping
	PaymentMethod    models.PaymentMethod    `json:"payment_method" binding:"required"`
	TotalAmountCents int64                   `json:"total_amount_cents" binding:"gte=0"`
	ShippingAddress  *models.ShippingAddress `json:"shipping_address"`
	ContactInfo      *models.ContactInfo     `json:"contact_info"`
	Notes            string                  `json:"notes"`

	// References to project images already uploaded to storage. More images
	// can be attached after creation via the images endpoint.
	ProjectImages []string `json:"project_images"`
}

// CreateOrder handles POST /api/orders/create - submits a new fabrication
// order for the authenticated dealer profile.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	profile, err := middleware.CurrentProfile(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	// An order may only be placed by an active profile that is either the
	// primary holder or explicitly granted ordering rights.
	if !profile.MayOrder() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to place orders"})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	if !models.IsKnownPaymentMethod(req.PaymentMethod) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment method"})
		return
	}

	if req.ShippingAddress != nil && !req.ShippingAddress.Complete() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please complete all required shipping address fields"})
		return
	}

	// Always require at least one step across the three layout options
	totalSteps := req.StepsNoOpenReturn + req.StepsOneOpenReturn + req.StepsTwoOpenReturn
	if totalSteps == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter the number of steps for at least one stair layout option"})
		return
	}

	contactInfo := req.ContactInfo
	if contactInfo == nil {
		contactInfo = &models.ContactInfo{
			Name:  req.FirstName + " " + req.LastName,
			Email: req.Email,
			Phone: req.Phone,
		}
	}

	order := models.Order{
		OrderNumber: utils.GenerateOrderNumber(),
		DealerID:    profile.DealerID,
		CreatedBy:   profile.ID,
		Status:      models.InitialStatus(req.PaymentMethod),

		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Company:             req.Company,
		PurchaseOrderNumber: req.PurchaseOrderNumber,
		Sidemark:            req.Sidemark,
		Phone:               req.Phone,
		Email:               req.Email,

		StairType:          req.StairType,
		StepsNoOpenReturn:  req.StepsNoOpenReturn,
		StepsOneOpenReturn: req.StepsOneOpenReturn,
		StepsTwoOpenReturn: req.StepsTwoOpenReturn,
		LongestPlankSize:   req.LongestPlankSize,
		StepsDetails:       req.StepsDetails,

		Manufacturer:          req.Manufacturer,
		Style:                 req.Style,
		Color:                 req.Color,
		FloorMatchDescription: req.FloorMatchDescription,

		RailCapTrimNeeded:  req.RailCapTrimNeeded,
		RailCapTrimDetails: req.RailCapTrimDetails,

		PaymentMethod:    req.PaymentMethod,
		TotalAmountCents: req.TotalAmountCents,
		ShippingAddress:  req.ShippingAddress,
		ContactInfo:      contactInfo,
		Notes:            req.Notes,
	}

	// Order and payment record are created atomically. The unique index on
	// order_number backs the generator; one regeneration retry covers the
	// rare same-second collision.
	err = oc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			if !isUniqueViolation(err) {
				return err
			}
			order.OrderNumber = utils.GenerateOrderNumber()
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
		}

		payment := models.OrderPayment{
			OrderID:         order.ID,
			PaymentMethod:   req.PaymentMethod,
			AmountCents:     req.TotalAmountCents,
			PaymentReceived: false,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		for _, s3Key := range req.ProjectImages {
			if s3Key == "" {
				continue
			}
			image := models.OrderImage{
				OrderID:    order.ID,
				S3Key:      s3Key,
				FileName:   path.Base(s3Key),
				UploadedBy: profile.ID,
			}
			if err := tx.Create(&image).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		oc.logger.Error("order creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order", "details": err.Error()})
		return
	}

	if err := oc.db.Preload("Payment").Preload("Images").First(&order, "id = ?", order.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order details", "details": err.Error()})
		return
	}

	oc.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("dealer_id", order.DealerID),
		zap.String("status", string(order.Status)))

	oc.notifier.OrderConfirmation(&order)
	oc.notifier.PaymentInstructions(&order)

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListOrders handles GET /api/orders - lists the authenticated dealer's
// orders, newest first.
func (oc *OrderController) ListOrders(c *gin.Context) {
	profile, err := middleware.CurrentProfile(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var orders []models.Order
	if err := oc.db.Preload("Payment").
		Where("dealer_id = ?", profile.DealerID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// isUniqueViolation reports whether err is a uniqueness-constraint failure.
// Matches both the postgres and sqlite driver error texts, the same way the
// gorm error surface is handled elsewhere in this codebase.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
