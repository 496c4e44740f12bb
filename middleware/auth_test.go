package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/sketchblog/config"
	"github.com/inkwell/sketchblog/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.SetForTesting(config.AppConfig{
		JWTSecret:     "middleware-test-secret",
		AdminPassword: "pw",
	})
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/guarded", AdminRequired(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"admin": IsAdmin(ctx)})
	})
	r.GET("/open", OptionalAdmin(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"admin": IsAdmin(ctx)})
	})
	return r
}

func get(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRequiredRejectsMissingHeader(t *testing.T) {
	r := protectedRouter()

	assert.Equal(t, http.StatusUnauthorized, get(r, "/guarded", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/guarded", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/guarded", "Bearer ").Code)
}

func TestAdminRequiredRejectsInvalidToken(t *testing.T) {
	r := protectedRouter()

	assert.Equal(t, http.StatusUnauthorized, get(r, "/guarded", "Bearer not-a-token").Code)
}

func TestAdminRequiredAcceptsValidToken(t *testing.T) {
	token, err := utils.GenerateAdminToken(time.Hour)
	require.NoError(t, err)

	r := protectedRouter()
	w := get(r, "/guarded", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":true`)
}

func TestAdminRequiredRejectsRevokedToken(t *testing.T) {
	token, err := utils.GenerateAdminToken(time.Hour)
	require.NoError(t, err)
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	r := protectedRouter()
	assert.Equal(t, http.StatusUnauthorized, get(r, "/guarded", "Bearer "+token).Code)
}

func TestOptionalAdminNeverRejects(t *testing.T) {
	r := protectedRouter()

	w := get(r, "/open", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":false`)

	w = get(r, "/open", "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":false`)

	token, err := utils.GenerateAdminToken(time.Hour)
	require.NoError(t, err)
	w = get(r, "/open", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":true`)
}
