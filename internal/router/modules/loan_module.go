package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
)

// LoanModule serves the borrow/return/extend workflow. Every route needs a
// logged-in caller; ownership is checked by the service.
type LoanModule struct {
	Handler *handlers.LoanHandler
	Redis   *redis.Client
}

func NewLoanModule(h *handlers.LoanHandler, rdb *redis.Client) *LoanModule {
	return &LoanModule{Handler: h, Redis: rdb}
}

func (m *LoanModule) Register(rg *gin.RouterGroup) {
	loans := rg.Group("/loans")
	loans.Use(protected(m.Redis)...)
	{
		loans.GET("", m.Handler.List)
		loans.GET("/:id", m.Handler.Get)
		loans.POST("", m.Handler.Create)
		loans.PUT("/:id/return", m.Handler.Return)
		loans.PUT("/:id/extend", m.Handler.Extend)
		loans.GET("/users/:userId/loans", m.Handler.ByUser)
	}
}
