package router

import "github.com/gin-gonic/gin"

// Module is one feature area (auth, users, catalog, loans, ...). Register
// mounts its routes under /api after the registry middlewares.
type Module interface {
	Register(rg *gin.RouterGroup)
}
