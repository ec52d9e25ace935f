package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/pkg/helpers"
	"github.com/oksasatya/go-library-management/pkg/response"
)

const (
	PrincipalKey   = "principal"
	SessionCSRFKey = "session_csrf"
)

// Principal resolves the caller from the access token (cookie or Bearer
// header) and, when Redis is configured, the live session it names. A
// missing or invalid token leaves the anonymous principal in place.
func Principal(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(PrincipalKey, entity.Anonymous())

		token := accessToken(c)
		if token == "" || jwt == nil {
			c.Next()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			c.Next()
			return
		}
		role, ok := entity.ParseRole(claims.Role)
		if !ok {
			c.Next()
			return
		}

		email := claims.Email
		if rdb != nil {
			key := helpers.SessionKey(strconv.FormatInt(claims.UserID, 10))
			data, err := rdb.HGetAll(c.Request.Context(), key).Result()
			if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
				c.Next()
				return
			}
			if e := data["email"]; e != "" {
				email = e
			}
			c.Set(SessionCSRFKey, data["csrf"])
		}

		c.Set(PrincipalKey, entity.NewPrincipal(claims.UserID, email, role))
		c.Next()
	}
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !PrincipalFrom(c).Authenticated {
			response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal set by Principal, or the anonymous one.
func PrincipalFrom(c *gin.Context) entity.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(entity.Principal); ok {
			return p
		}
	}
	return entity.Anonymous()
}

func accessToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if tok, err := c.Cookie(helpers.AccessTokenCookie); err == nil {
		return tok
	}
	return ""
}
