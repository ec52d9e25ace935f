package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
)

// UserModule wires account routes.
// Public: POST /api/users (registration; ADMIN role still needs an ADMIN caller)
// Account: GET /api/users, GET /api/users/:id, GET /api/users/email/:email, DELETE /api/users/:id
// (the services answer 403 to anonymous callers here, not 401)
type UserModule struct {
	Handler *handlers.UserHandler
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(m.Redis, 20, time.Minute, middleware.KeyByIP(), nil)
	rg.POST("/users", registerLimiter, m.Handler.Register)

	accounts := rg.Group("/users")
	accounts.Use(limits(m.Redis)...)
	{
		accounts.GET("", m.Handler.List)
		accounts.GET("/:id", m.Handler.Get)
		accounts.GET("/email/:email", m.Handler.ByEmail)
		accounts.DELETE("/:id", m.Handler.Delete)
	}
}

// limits is a per-IP and a per-user limiter.
func limits(rdb *redis.Client) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	}
}

// protected is limits behind RequireAuth: 401 for anonymous callers.
func protected(rdb *redis.Client) []gin.HandlerFunc {
	return append([]gin.HandlerFunc{middleware.RequireAuth()}, limits(rdb)...)
}
