package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testSecret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	token, err := BuildToken("user-123", AudienceAdmin, testSecret, time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	subject, err := ParseToken(token, AudienceAdmin, testSecret)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := BuildToken("user-123", AudienceAdmin, testSecret, time.Hour)
	assert.NoError(t, err)

	_, err = ParseToken(token, AudienceAdmin, []byte("other-secret"))
	assert.Error(t, err)
}

func TestParseToken_WrongAudience(t *testing.T) {
	// A dealer token must not pass the admin gate and vice versa
	token, err := BuildToken("profile-1", AudienceDealer, testSecret, time.Hour)
	assert.NoError(t, err)

	_, err = ParseToken(token, AudienceAdmin, testSecret)
	assert.Error(t, err)

	subject, err := ParseToken(token, AudienceDealer, testSecret)
	assert.NoError(t, err)
	assert.Equal(t, "profile-1", subject)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := BuildToken("user-123", AudienceAdmin, testSecret, -time.Minute)
	assert.NoError(t, err)

	_, err = ParseToken(token, AudienceAdmin, testSecret)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("not-a-token", AudienceAdmin, testSecret)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	assert.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
	assert.False(t, CheckPassword("", "hunter2hunter2"))
}
