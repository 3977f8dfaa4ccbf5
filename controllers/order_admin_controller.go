package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/truetread/truetread-api/auth"
	"github.com/truetread/truetread-api/middleware"
	"github.com/truetread/truetread-api/models"
	"github.com/truetread/truetread-api/services"
)

// AdminOrderController serves the back-office order lifecycle endpoints.
type AdminOrderController struct {
	db       *gorm.DB
	storage  services.Storage
	notifier services.Notifier
	logger   *zap.Logger
}

// NewAdminOrderController creates an AdminOrderController with its dependencies.
func NewAdminOrderController(db *gorm.DB, storage services.Storage, notifier services.Notifier, logger *zap.Logger) *AdminOrderController {
	return &AdminOrderController{db: db, storage: storage, notifier: notifier, logger: logger}
}

// UpdateStatusRequest represents the request body for a status transition
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Notes  string             `json:"notes"`
}

// UpdateStatus handles POST /api/orders/:orderId/status - moves an order
// through its lifecycle. The transition must be legal per the status flow
// table and permitted for the caller's role.
func (ac *AdminOrderController) UpdateStatus(c *gin.Context) {
	adminUser, err := middleware.CurrentAdmin(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required", "details": err.Error()})
		return
	}

	if !models.IsKnownStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	var order models.Order
	if err := ac.db.First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if !models.IsValidTransition(order.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status transition"})
		return
	}

	if !auth.CanUpdateOrderStatus(adminUser.Role, order.Status, req.Status) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	oldStatus := order.Status

	err = ac.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Update("status", req.Status).Error; err != nil {
			return err
		}

		entry := models.OrderAuditLog{
			OrderID:     order.ID,
			AdminUserID: adminUser.ID,
			Action:      "status_change",
			OldValue:    models.Snapshot{"status": string(oldStatus)},
			NewValue:    models.Snapshot{"status": string(req.Status)},
			Notes:       req.Notes,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status", "details": err.Error()})
		return
	}

	ac.logger.Info("order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(req.Status)),
		zap.String("admin", adminUser.Email))

	ac.notifier.StatusUpdate(&order, req.Status, req.Notes)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RecordPaymentRequest represents the request body for marking payment received
type RecordPaymentRequest struct {
	TransactionReference string `json:"transaction_reference"`
	Notes                string `json:"notes"`
}

// RecordPayment handles POST /api/orders/:orderId/payment - marks the
// order's payment record as received. Orders still waiting on payment are
// advanced to MATERIALS_RECEIVED via the named payment-received rule in the
// status flow table. The received flag is monotonic: it is set here and
// cleared nowhere.
func (ac *AdminOrderController) RecordPayment(c *gin.Context) {
	adminUser, err := middleware.CurrentAdmin(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if !auth.CanManagePayments(adminUser.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var order models.Order
	if err := ac.db.Preload("Payment").First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if order.Payment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment record not found"})
		return
	}

	now := time.Now()
	auditNotes := req.Notes
	if auditNotes == "" {
		reference := req.TransactionReference
		if reference == "" {
			reference = "N/A"
		}
		auditNotes = fmt.Sprintf("Payment received. Reference: %s", reference)
	}

	newStatus, advanced := models.StatusOnPaymentReceived(order.Status)

	err = ac.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order.Payment).Updates(map[string]interface{}{
			"payment_received":      true,
			"received_date":         now,
			"received_by":           adminUser.ID,
			"transaction_reference": req.TransactionReference,
			"notes":                 req.Notes,
		}).Error; err != nil {
			return err
		}

		if advanced {
			if err := tx.Model(&order).Update("status", newStatus).Error; err != nil {
				return err
			}
		}

		entry := models.OrderAuditLog{
			OrderID:     order.ID,
			AdminUserID: adminUser.ID,
			Action:      "payment_received",
			OldValue:    models.Snapshot{"payment_received": false},
			NewValue:    models.Snapshot{"payment_received": true, "received_date": now.Format(time.RFC3339)},
			Notes:       auditNotes,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment", "details": err.Error()})
		return
	}

	ac.logger.Info("payment recorded",
		zap.String("order_number", order.OrderNumber),
		zap.Bool("status_advanced", advanced),
		zap.String("admin", adminUser.Email))

	ac.notifier.PaymentConfirmation(&order)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddNoteRequest represents the request body for appending an order note
type AddNoteRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// AddNote handles POST /api/orders/:orderId/notes - appends a timestamped
// line to the order's note log. Any authenticated admin identity may do this.
func (ac *AdminOrderController) AddNote(c *gin.Context) {
	adminUser, err := middleware.CurrentAdmin(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Notes are required", "details": err.Error()})
		return
	}

	var order models.Order
	if err := ac.db.First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	line := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), req.Notes)
	updatedNotes := line
	if order.Notes != "" {
		updatedNotes = order.Notes + "\n\n" + line
	}

	err = ac.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Update("notes", updatedNotes).Error; err != nil {
			return err
		}

		entry := models.OrderAuditLog{
			OrderID:     order.ID,
			AdminUserID: adminUser.ID,
			Action:      "note_added",
			NewValue:    models.Snapshot{"notes": req.Notes},
			Notes:       req.Notes,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notes", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteOrder handles DELETE /api/orders/:orderId - removes an order after
// writing a final audit entry holding the full pre-deletion snapshot.
// Payments and images cascade; audit rows survive.
func (ac *AdminOrderController) DeleteOrder(c *gin.Context) {
	adminUser, err := middleware.CurrentAdmin(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if !auth.CanManageUsers(adminUser.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden - Admin access required"})
		return
	}

	var order models.Order
	if err := ac.db.First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	err = ac.db.Transaction(func(tx *gorm.DB) error {
		entry := models.OrderAuditLog{
			OrderID:     order.ID,
			AdminUserID: adminUser.ID,
			Action:      "order_deleted",
			OldValue: models.Snapshot{
				"order_number":       order.OrderNumber,
				"dealer_id":          order.DealerID,
				"status":             string(order.Status),
				"payment_method":     string(order.PaymentMethod),
				"total_amount_cents": order.TotalAmountCents,
				"first_name":         order.FirstName,
				"last_name":          order.LastName,
				"sidemark":           order.Sidemark,
			},
			Notes: fmt.Sprintf("Order deleted by %s", adminUser.Email),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderPayment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order", "details": err.Error()})
		return
	}

	ac.logger.Info("order deleted",
		zap.String("order_number", order.OrderNumber),
		zap.String("admin", adminUser.Email))

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListAllOrders handles GET /api/admin/orders - all orders, newest first.
func (ac *AdminOrderController) ListAllOrders(c *gin.Context) {
	var orders []models.Order
	if err := ac.db.Preload("Payment").Order("created_at DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder handles GET /api/admin/orders/:orderId - one order with payment,
// images (presigned URLs attached) and audit trail.
func (ac *AdminOrderController) GetOrder(c *gin.Context) {
	var order models.Order
	if err := ac.db.Preload("Payment").Preload("Images").Preload("AuditLog").
		First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	for i := range order.Images {
		url, err := ac.storage.GetPresignedURL(order.Images[i].S3Key)
		if err != nil {
			ac.logger.Warn("presign failed", zap.String("s3_key", order.Images[i].S3Key), zap.Error(err))
			continue
		}
		order.Images[i].ImageURL = url
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ExportOrders handles GET /api/admin/orders/export - streams an xlsx
// workbook of all orders for the back office.
func (ac *AdminOrderController) ExportOrders(c *gin.Context) {
	var orders []models.Order
	if err := ac.db.Preload("Payment").Order("created_at DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders", "details": err.Error()})
		return
	}

	f := excelize.NewFile()
	sheetName := "Orders"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export", "details": err.Error()})
		return
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headers := []string{"Order Number", "Status", "Dealer ID", "Customer", "Company", "PO Number", "Sidemark", "Total Steps", "Payment Method", "Payment Received", "Amount (cents)", "Created"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for row, order := range orders {
		received := false
		if order.Payment != nil {
			received = order.Payment.PaymentReceived
		}
		values := []interface{}{
			order.OrderNumber,
			models.StatusLabel(order.Status),
			order.DealerID,
			order.FirstName + " " + order.LastName,
			order.Company,
			order.PurchaseOrderNumber,
			order.Sidemark,
			order.TotalSteps(),
			string(order.PaymentMethod),
			received,
			order.TotalAmountCents,
			order.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export", "details": err.Error()})
		return
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
