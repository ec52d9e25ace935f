package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-library-management/pkg/helpers"
	"github.com/oksasatya/go-library-management/pkg/response"
)

const CSRFHeader = "X-CSRF-Token"

// CSRF requires X-CSRF-Token on every unsafe method. The expected value is
// the token stored in the caller's session, or for callers without one the
// csrf_token cookie (double submit). Run after Principal.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := c.GetString(SessionCSRFKey)
		if expected != "" {
			c.Header(CSRFHeader, expected)
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if expected == "" {
			expected, _ = c.Cookie(helpers.CSRFCookie)
		}
		got := c.GetHeader(CSRFHeader)
		if expected == "" || got == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
			response.Error[any](c, http.StatusForbidden, "invalid csrf token", nil)
			return
		}
		c.Next()
	}
}
