package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkwell/sketchblog/utils"
)

const (
	// ContextIsAdminKey marks a request carrying a valid admin token.
	ContextIsAdminKey = "is_admin"
	// ContextTokenKey stores the raw bearer token for logout handling.
	ContextTokenKey = "admin_token"
)

// AdminRequired ensures the request carries a valid, non-revoked admin JWT.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing or malformed")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(token) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		if _, err := utils.ParseAdminToken(token); err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextIsAdminKey, true)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// OptionalAdmin marks the request as admin when a valid token is present but
// never rejects. Public listings use it to decide whether scheduled posts
// are visible.
func OptionalAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token, ok := bearerToken(ctx); ok && !utils.IsTokenBlacklisted(token) {
			if _, err := utils.ParseAdminToken(token); err == nil {
				ctx.Set(ContextIsAdminKey, true)
				ctx.Set(ContextTokenKey, token)
			}
		}
		ctx.Next()
	}
}

// IsAdmin reports whether the current request was authenticated as admin.
func IsAdmin(ctx *gin.Context) bool {
	v, exists := ctx.Get(ContextIsAdminKey)
	if !exists {
		return false
	}
	b, _ := v.(bool)
	return b
}

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
