package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookstore/internal/models"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func signToken(t *testing.T, secret, userID, role string, ttl time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"exp":    time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runGuard(t *testing.T, guard gin.HandlerFunc, authHeader string) (int, *gin.Context) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}

	guard(c)
	return w.Code, c
}

func TestAuthGuardAcceptsValidToken(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, testSecret, userID.Hex(), models.RoleUser, time.Hour)

	code, c := runGuard(t, AuthGuard(testSecret), "Bearer "+token)

	require.Equal(t, http.StatusOK, code)
	assert.False(t, c.IsAborted())

	got, ok := c.Get("userId")
	require.True(t, ok)
	assert.Equal(t, userID, got)

	role, _ := c.Get("role")
	assert.Equal(t, models.RoleUser, role)
}

func TestAuthGuardMissingHeader(t *testing.T) {
	code, c := runGuard(t, AuthGuard(testSecret), "")

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.True(t, c.IsAborted())
}

func TestAuthGuardMalformedHeader(t *testing.T) {
	code, _ := runGuard(t, AuthGuard(testSecret), "Token abcdef")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthGuardWrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", primitive.NewObjectID().Hex(), models.RoleUser, time.Hour)

	code, _ := runGuard(t, AuthGuard(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthGuardExpiredToken(t *testing.T) {
	token := signToken(t, testSecret, primitive.NewObjectID().Hex(), models.RoleUser, -time.Minute)

	code, _ := runGuard(t, AuthGuard(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthGuardInvalidUserIDClaim(t *testing.T) {
	token := signToken(t, testSecret, "not-an-object-id", models.RoleUser, time.Hour)

	code, _ := runGuard(t, AuthGuard(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthGuardRoleGate(t *testing.T) {
	userToken := signToken(t, testSecret, primitive.NewObjectID().Hex(), models.RoleUser, time.Hour)
	adminToken := signToken(t, testSecret, primitive.NewObjectID().Hex(), models.RoleAdmin, time.Hour)

	guard := AuthGuard(testSecret, models.RoleAdmin)

	code, _ := runGuard(t, guard, "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = runGuard(t, guard, "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, code)
}
