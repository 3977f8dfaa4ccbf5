package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/truetread/truetread-api/auth"
	"github.com/truetread/truetread-api/models"
)

const (
	adminUserKey = "admin_user"
	profileKey   = "dealer_profile"
)

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireAdmin resolves the request's bearer token against the admin_users
// table and fails closed: 401 when the token is missing, invalid, or matches
// no administrative identity; 403 when allowedRoles is non-empty and the
// resolved role is not a member. On success the identity is stored in the
// context for handlers to read via CurrentAdmin.
func RequireAdmin(db *gorm.DB, secret []byte, allowedRoles ...models.AdminRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		userID, err := auth.ParseToken(token, auth.AudienceAdmin, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var adminUser models.AdminUser
		if err := db.First(&adminUser, "id = ?", userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if len(allowedRoles) > 0 {
			allowed := false
			for _, role := range allowedRoles {
				if adminUser.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
				return
			}
		}

		c.Set(adminUserKey, &adminUser)
		c.Next()
	}
}

// RequireDealer resolves the request's bearer token against the profiles
// table. Dealer/profile status checks belong to the handlers; this only
// establishes who is asking.
func RequireDealer(db *gorm.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		profileID, err := auth.ParseToken(token, auth.AudienceDealer, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var profile models.Profile
		if err := db.First(&profile, "id = ?", profileID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(profileKey, &profile)
		c.Next()
	}
}

// CurrentAdmin returns the administrative identity resolved by RequireAdmin.
func CurrentAdmin(c *gin.Context) (*models.AdminUser, error) {
	value, exists := c.Get(adminUserKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_ADMIN", Message: "Admin identity not found in context"}
	}

	adminUser, ok := value.(*models.AdminUser)
	if !ok {
		return nil, &AuthError{Code: "INVALID_ADMIN", Message: "Admin identity is not in the expected format"}
	}

	return adminUser, nil
}

// CurrentProfile returns the dealer profile resolved by RequireDealer.
func CurrentProfile(c *gin.Context) (*models.Profile, error) {
	value, exists := c.Get(profileKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_PROFILE", Message: "Dealer profile not found in context"}
	}

	profile, ok := value.(*models.Profile)
	if !ok {
		return nil, &AuthError{Code: "INVALID_PROFILE", Message: "Dealer profile is not in the expected format"}
	}

	return profile, nil
}
