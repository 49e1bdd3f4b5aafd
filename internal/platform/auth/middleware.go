package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apierr"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

func abort(c *gin.Context, status int, code apierr.Code, msg string) {
	c.AbortWithStatusJSON(status, apierr.Body(code, msg))
}

// RequireAuth: Authorization: Bearer <token> を検証して context に sub/role を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			abort(c, http.StatusUnauthorized, apierr.CodeUnauthenticated, "missing Authorization header")
			return
		}
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, apierr.CodeUnauthenticated, "invalid Authorization header")
			return
		}

		claims, err := ParseToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.BodyFrom(err))
			return
		}

		c.Set(CtxUserIDKey, claims.Subject)
		c.Set(CtxRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole は RequireAuth の後ろに置く。
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if r != "" {
			allowed[r] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == "" {
			abort(c, http.StatusForbidden, apierr.CodeForbidden, "missing role")
			return
		}
		if _, ok := allowed[role]; !ok {
			abort(c, http.StatusForbidden, apierr.CodeForbidden, "forbidden")
			return
		}
		c.Next()
	}
}
