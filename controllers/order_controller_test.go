package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/truetread/truetread-api/auth"
	"github.com/truetread/truetread-api/middleware"
	"github.com/truetread/truetread-api/models"
	"github.com/truetread/truetread-api/services"
)

var testSecret = []byte("test-secret")

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Dealer{},
		&models.Profile{},
		&models.AdminUser{},
		&models.Order{},
		&models.OrderPayment{},
		&models.OrderAuditLog{},
		&models.OrderImage{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func seedDealer(t *testing.T, db *gorm.DB, status models.AccountStatus) *models.Dealer {
	dealer := &models.Dealer{
		CompanyName: "Summit Flooring",
		TaxID:       "TAX-" + time.Now().Format("150405.000000"),
		Status:      status,
	}
	if err := db.Create(dealer).Error; err != nil {
		t.Fatalf("Failed to seed dealer: %v", err)
	}
	return dealer
}

func seedProfile(t *testing.T, db *gorm.DB, dealer *models.Dealer, email string, status models.AccountStatus, isPrimary, canOrder bool) *models.Profile {
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	profile := &models.Profile{
		DealerID:     dealer.ID,
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test Dealer",
		Status:       status,
		IsPrimary:    isPrimary,
		CanOrder:     canOrder,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}
	return profile
}

func seedAdmin(t *testing.T, db *gorm.DB, email string, role models.AdminRole) *models.AdminUser {
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	adminUser := &models.AdminUser{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FullName:     "Test Operator",
	}
	if err := db.Create(adminUser).Error; err != nil {
		t.Fatalf("Failed to seed admin user: %v", err)
	}
	return adminUser
}

func dealerToken(t *testing.T, profileID string) string {
	token, err := auth.BuildToken(profileID, auth.AudienceDealer, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to build dealer token: %v", err)
	}
	return token
}

func adminToken(t *testing.T, userID string) string {
	token, err := auth.BuildToken(userID, auth.AudienceAdmin, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to build admin token: %v", err)
	}
	return token
}

func performJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"first_name":            "Pat",
		"last_name":             "Riley",
		"company":               "Riley Interiors",
		"purchase_order_number": "PO-1001",
		"sidemark":              "Maple Residence",
		"phone":                 "555-0100",
		"email":                 "pat@rileyinteriors.com",
		"steps_no_open_return":  5,
		"steps_one_open_return": 0,
		"steps_two_open_return": 0,
		"longest_plank_size":    "48in",
		"steps_details":         "Straight staircase, 5 treads",
		"manufacturer":          "Shaw",
		"style":                 "Heritage Oak",
		"color":                 "Natural",
		"payment_method":        "check",
		"total_amount_cents":    125000,
	}
}

func newOrderRouter(db *gorm.DB) *gin.Engine {
	router := setupTestRouter()
	notifier := services.NewLogNotifier(zap.NewNop())
	oc := NewOrderController(db, notifier, zap.NewNop())
	router.POST("/api/orders/create", middleware.RequireDealer(db, testSecret), oc.CreateOrder)
	router.GET("/api/orders", middleware.RequireDealer(db, testSecret), oc.ListOrders)
	return router
}

func TestCreateOrder_CheckPayment(t *testing.T) {
	db := setupTestDB(t)
	dealer := seedDealer(t, db, models.AccountActive)
	profile := seedProfile(t, db, dealer, "primary@summit.com", models.AccountActive, true, true)
	router := newOrderRouter(db)

	w := performJSON(router, http.MethodPost, "/api/orders/create", dealerToken(t, profile.ID), validOrderBody())
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["order"].(map[string]interface{})

	// Check payments are considered arranged immediately
	assert.Equal(t, "PAYMENT_ARRANGED", data["status"])
	assert.Regexp(t, `^ORD-\d{8}-\d{6}-[A-Z0-9]{6}$`, data["order_number"])
	assert.Equal(t, dealer.ID, data["dealer_id"])
	assert.Equal(t, profile.ID, data["created_by"])

	payment := data["payment"].(map[string]interface{})
	assert.Equal(t, false, payment["payment_received"])
	assert.Equal(t, "check", payment["payment_method"])
	assert.Equal(t, float64(125000), payment["amount_cents"])

	// Creation writes no audit row; only later lifecycle actions do
	var auditCount int64
	db.Model(&models.OrderAuditLog{}).Count(&auditCount)
	assert.Equal(t, int64(0), auditCount)
}

func TestCreateOrder_CardPayment(t *testing.T) {
	db := setupTestDB(t)
	dealer := seedDealer(t, db, models.AccountActive)
	profile := seedProfile(t, db, dealer, "primary@summit.com", models.AccountActive, true, true)
	router := newOrderRouter(db)

	body := validOrderBody()
	body["payment_method"] = "card"

	w := performJSON(router, http.MethodPost, "/api/orders/create", dealerToken(t, profile.ID), body)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["order"].(map[string]interface{})

	// Card payments need manual follow-up
	assert.Equal(t, "PENDING_PAYMENT", data["status"])
}

func TestCreateOrder_Validation(t *testing.T) {
	db := setupTestDB(t)
	dealer := seedDealer(t, db, models.AccountActive)
	active := seedProfile(t, db, dealer, "primary@summit.com", models.AccountActive, true, true)
	pending := seedProfile(t, db, dealer, "pending@summit.com", models.AccountPending, false, true)
	noRights := seedProfile(t, db, dealer, "norights@summit.com", models.AccountActive, false, false)
	router := newOrderRouter(db)

	tests := []struct {
		name           string
		profileID      string
		mutate         func(map[string]interface{})
		expectedStatus int
	}{
		{
			name:      "zero steps across all layouts",
			profileID: active.ID,
			mutate: func(body map[string]interface{}) {
				body["steps_no_open_return"] = 0
				body["steps_one_open_return"] = 0
				body["steps_two_open_return"] = 0
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "missing manufacturer",
			profileID: active.ID,
			mutate: func(body map[string]interface{}) {
				delete(body, "manufacturer")
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "unknown payment method",
			profileID: active.ID,
			mutate: func(body map[string]interface{}) {
				body["payment_method"] = "barter"
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "incomplete shipping address",
			profileID: active.ID,
			mutate: func(body map[string]interface{}) {
				body["shipping_address"] = map[string]interface{}{
					"name": "Pat Riley",
					"city": "Denver",
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "pending profile cannot order",
			profileID:      pending.ID,
			mutate:         func(map[string]interface{}) {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "profile without ordering rights",
			profileID:      noRights.ID,
			mutate:         func(map[string]interface{}) {},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validOrderBody()
			tt.mutate(body)

			w := performJSON(router, http.MethodPost, "/api/orders/create", dealerToken(t, tt.profileID), body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.NotEmpty(t, response["error"])
		})
	}

	// None of the rejected requests should have left an order behind
	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateOrder_WithProjectImages(t *testing.T) {
	db := setupTestDB(t)
	dealer := seedDealer(t, db, models.AccountActive)
	profile := seedProfile(t, db, dealer, "primary@summit.com", models.AccountActive, true, true)
	router := newOrderRouter(db)

	body := validOrderBody()
	body["project_images"] = []string{"uploads/stairs-front.jpg", "uploads/stairs-side.jpg", ""}

	w := performJSON(router, http.MethodPost, "/api/orders/create", dealerToken(t, profile.ID), body)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["order"].(map[string]interface{})
	images := data["images"].([]interface{})
	assert.Len(t, images, 2)

	var rows []models.OrderImage
	assert.NoError(t, db.Where("order_id = ?", data["id"]).Order("s3_key ASC").Find(&rows).Error)
	assert.Len(t, rows, 2)
	assert.Equal(t, "uploads/stairs-front.jpg", rows[0].S3Key)
	assert.Equal(t, "stairs-front.jpg", rows[0].FileName)
	assert.Equal(t, profile.ID, rows[0].UploadedBy)
}

func TestCreateOrder_TeamMemberWithOrderingRights(t *testing.T) {
	db := setupTestDB(t)
	dealer := seedDealer(t, db, models.AccountActive)
	member := seedProfile(t, db, dealer, "member@summit.com", models.AccountActive, false, true)
	router := newOrderRouter(db)

	w := performJSON(router, http.MethodPost, "/api/orders/create", dealerToken(t, member.ID), validOrderBody())
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestListOrders_ScopedToDealer(t *testing.T) {
	db := setupTestDB(t)
	dealerA := seedDealer(t, db, models.AccountActive)
	dealerB := seedDealer(t, db, models.AccountActive)
	profileA := seedProfile(t, db, dealerA, "a@summit.com", models.AccountActive, true, true)
	profileB := seedProfile(t, db, dealerB, "b@ridge.com", models.AccountActive, true, true)
	router := newOrderRouter(db)

	for _, p := range []*models.Profile{profileA, profileA, profileB} {
		w := performJSON(router, http.MethodPost, "/api/orders/create", dealerToken(t, p.ID), validOrderBody())
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := performJSON(router, http.MethodGet, "/api/orders", dealerToken(t, profileA.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	orders := response["orders"].([]interface{})
	assert.Len(t, orders, 2)
	for _, raw := range orders {
		order := raw.(map[string]interface{})
		assert.Equal(t, dealerA.ID, order["dealer_id"])
	}
}

func TestCreateOrder_Unauthenticated(t *testing.T) {
	db := setupTestDB(t)
	router := newOrderRouter(db)

	w := performJSON(router, http.MethodPost, "/api/orders/create", "", validOrderBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
