package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/truetread/truetread-api/auth"
	"github.com/truetread/truetread-api/models"
)

var testSecret = []byte("test-secret")

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.AdminUser{}, &models.Dealer{}, &models.Profile{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func buildToken(t *testing.T, subjectID, kind string, secret []byte, ttl time.Duration) string {
	token, err := auth.BuildToken(subjectID, kind, secret, ttl)
	if err != nil {
		t.Fatalf("Failed to build token: %v", err)
	}
	return token
}

func perform(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	adminUser := models.AdminUser{Email: "ops@truetread.com", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&adminUser).Error)
	viewer := models.AdminUser{Email: "viewer@truetread.com", PasswordHash: "x", Role: models.RoleViewer}
	require.NoError(t, db.Create(&viewer).Error)

	router := gin.New()
	router.GET("/open", RequireAdmin(db, testSecret), func(c *gin.Context) {
		identity, err := CurrentAdmin(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"email": identity.Email})
	})
	router.GET("/restricted", RequireAdmin(db, testSecret, models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	tests := []struct {
		name           string
		path           string
		header         string
		expectedStatus int
	}{
		{
			name:           "missing header",
			path:           "/open",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed header",
			path:           "/open",
			header:         "Token abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "garbage token",
			path:           "/open",
			header:         "Bearer not-a-token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong signing secret",
			path:           "/open",
			header:         "Bearer " + buildToken(t, adminUser.ID, auth.AudienceAdmin, []byte("other-secret"), time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired token",
			path:           "/open",
			header:         "Bearer " + buildToken(t, adminUser.ID, auth.AudienceAdmin, testSecret, -time.Minute),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "dealer token rejected at the admin gate",
			path:           "/open",
			header:         "Bearer " + buildToken(t, adminUser.ID, auth.AudienceDealer, testSecret, time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "token for a deleted identity",
			path:           "/open",
			header:         "Bearer " + buildToken(t, "00000000-0000-0000-0000-000000000000", auth.AudienceAdmin, testSecret, time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			path:           "/open",
			header:         "Bearer " + buildToken(t, adminUser.ID, auth.AudienceAdmin, testSecret, time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "role outside the allowed set",
			path:           "/restricted",
			header:         "Bearer " + buildToken(t, viewer.ID, auth.AudienceAdmin, testSecret, time.Hour),
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "role inside the allowed set",
			path:           "/restricted",
			header:         "Bearer " + buildToken(t, adminUser.ID, auth.AudienceAdmin, testSecret, time.Hour),
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, tt.path, tt.header)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("resolved identity is available to the handler", func(t *testing.T) {
		w := perform(router, "/open", "Bearer "+buildToken(t, adminUser.ID, auth.AudienceAdmin, testSecret, time.Hour))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ops@truetread.com")
	})
}

func TestRequireDealer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	dealer := models.Dealer{CompanyName: "Summit Flooring", TaxID: "86-1234567", Status: models.AccountActive}
	require.NoError(t, db.Create(&dealer).Error)
	profile := models.Profile{DealerID: dealer.ID, Email: "primary@summit.com", PasswordHash: "x", Status: models.AccountActive, IsPrimary: true}
	require.NoError(t, db.Create(&profile).Error)

	router := gin.New()
	router.GET("/portal", RequireDealer(db, testSecret), func(c *gin.Context) {
		resolved, err := CurrentProfile(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"email": resolved.Email})
	})

	t.Run("valid token resolves the profile", func(t *testing.T) {
		w := perform(router, "/portal", "Bearer "+buildToken(t, profile.ID, auth.AudienceDealer, testSecret, time.Hour))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "primary@summit.com")
	})

	t.Run("admin token rejected at the dealer gate", func(t *testing.T) {
		w := perform(router, "/portal", "Bearer "+buildToken(t, profile.ID, auth.AudienceAdmin, testSecret, time.Hour))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown profile", func(t *testing.T) {
		w := perform(router, "/portal", "Bearer "+buildToken(t, "00000000-0000-0000-0000-000000000000", auth.AudienceDealer, testSecret, time.Hour))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		w := perform(router, "/portal", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCurrentAdmin_OutsideMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := CurrentAdmin(c)
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "MISSING_ADMIN", authErr.Code)

	_, err = CurrentProfile(c)
	require.Error(t, err)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "MISSING_PROFILE", authErr.Code)
}
