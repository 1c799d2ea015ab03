package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"showcase/internal/auth"
)

// UserIDKey 是 gin.Context 中保存当前用户 ID 的键。
const UserIDKey = "userID"

// TokenValidator 校验访问令牌；由 auth.Verifier 实现。
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.TokenClaims, error)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌并将 userID 注入上下文。
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, validator)
		if !ok {
			abortUnauthorized(c)
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuthMiddleware 用于公开页面：令牌有效时注入 userID，否则按匿名访问放行。
func OptionalAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, validator); ok {
			c.Set(UserIDKey, claims.UserID)
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, validator TokenValidator) (*auth.TokenClaims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims, err := validator.ValidateAccessToken(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}
