package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
)

// EmailModule exposes the endpoints that only queue notification emails.
// Protected: POST /api/loans/reminders (ADMIN)
type EmailModule struct {
	Handler *handlers.LoanHandler
	Redis   *redis.Client
}

func NewEmailModule(h *handlers.LoanHandler, rdb *redis.Client) *EmailModule {
	return &EmailModule{Handler: h, Redis: rdb}
}

func (m *EmailModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.RequireAuth())
	auth.Use(
		middleware.RateLimit(m.Redis, 6, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/loans/reminders", m.Handler.Reminders)
	}
}
