package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
	"github.com/oksasatya/go-library-management/pkg/helpers"
	"github.com/oksasatya/go-library-management/pkg/response"
)

// anonymousCSRFTTL bounds the double-submit cookie handed to anonymous callers.
const anonymousCSRFTTL = 24 * time.Hour

type AuthHandler struct {
	Svc     AuthService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	sess, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.setSession(c, sess)
	response.Success(c, http.StatusOK, gin.H{
		"user":       toUserView(sess.User),
		"csrf_token": sess.CSRFToken,
	}, "login successful", gin.H{
		"access_expires_at":  sess.Tokens.AccessTokenExpiry,
		"refresh_expires_at": sess.Tokens.RefreshTokenExpiry,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshTokenCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	sess, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.setSession(c, sess)
	response.Success(c, http.StatusOK, gin.H{"refreshed": true, "csrf_token": sess.CSRFToken}, "token refreshed", gin.H{
		"access_expires_at":  sess.Tokens.AccessTokenExpiry,
		"refresh_expires_at": sess.Tokens.RefreshTokenExpiry,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), principalFrom(c)); err != nil {
		helpers.LogError(h.Logger, "logout: session delete failed", err, nil)
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// CSRFToken returns the session token of a logged-in caller, or issues an
// anonymous double-submit token and sets it as the csrf_token cookie.
func (h *AuthHandler) CSRFToken(c *gin.Context) {
	if tok := c.GetString(middleware.SessionCSRFKey); tok != "" {
		response.Success(c, http.StatusOK, gin.H{"csrf_token": tok}, "csrf token", nil)
		return
	}
	tok, err := helpers.RandomToken(32)
	if err != nil {
		helpers.LogError(h.Logger, "csrf token generation failed", err, nil)
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	h.Cookies.SetCSRF(c, tok, time.Now().Add(anonymousCSRFTTL))
	c.Header(middleware.CSRFHeader, tok)
	response.Success(c, http.StatusOK, gin.H{"csrf_token": tok}, "csrf token", nil)
}

// setSession writes the token cookies and mirrors the session CSRF token
// into the double-submit cookie so it survives an expired access token.
func (h *AuthHandler) setSession(c *gin.Context, sess *application.Session) {
	t := sess.Tokens
	h.Cookies.SetPair(c, t.AccessToken, t.AccessTokenExpiry, t.RefreshToken, t.RefreshTokenExpiry)
	if sess.CSRFToken != "" {
		h.Cookies.SetCSRF(c, sess.CSRFToken, t.RefreshTokenExpiry)
		c.Header(middleware.CSRFHeader, sess.CSRFToken)
	}
}
