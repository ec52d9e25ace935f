package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
)

// CatalogModule serves authors and books. Book reads are open to anyone and
// shaped by the caller's tier; everything else is ADMIN-only, which the
// services enforce so anonymous callers get 403 rather than 401.
type CatalogModule struct {
	Authors *handlers.AuthorHandler
	Books   *handlers.BookHandler
	Redis   *redis.Client
}

func NewCatalogModule(a *handlers.AuthorHandler, b *handlers.BookHandler, rdb *redis.Client) *CatalogModule {
	return &CatalogModule{Authors: a, Books: b, Redis: rdb}
}

func (m *CatalogModule) Register(rg *gin.RouterGroup) {
	limiter := middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())

	authors := rg.Group("/authors", limiter)
	{
		authors.GET("", m.Authors.List)
		authors.GET("/:id", m.Authors.Get)
		authors.GET("/name/:lastName", m.Authors.ByLastName)
		authors.POST("", m.Authors.Create)
		authors.DELETE("/:id", m.Authors.Delete)
	}

	books := rg.Group("/books", limiter)
	{
		books.GET("", m.Books.List)
		books.GET("/search", m.Books.Search)
		books.GET("/:id", m.Books.Get)
		books.POST("", m.Books.Create)
		books.PUT("/:id/cover", m.Books.UploadCover)
	}
}
