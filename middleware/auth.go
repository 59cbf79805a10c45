package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/miniblog/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextTokenKey stores the raw bearer token inside Gin context.
	ContextTokenKey = "access_token"
)

// IdentityResolver maps a bearer token to a user id.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (uint, error)
}

// AuthRequired ensures the request carries a valid bearer token.
func AuthRequired(resolver IdentityResolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, "Missing authorization header!")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, "Invalid authorization header!")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			utils.Error(ctx, http.StatusUnauthorized, "Empty bearer token!")
			return
		}

		userID, err := resolver.ResolveIdentity(ctx.Request.Context(), token)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, "Invalid or expired token!")
			return
		}

		ctx.Set(ContextUserIDKey, userID)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// UserID returns the identity set by AuthRequired.
func UserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
