package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tastebook.io/tastebook/internal/api/handlers"
	"tastebook.io/tastebook/internal/api/middleware"
)

func newRouter(server *handlers.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())

	// The API is consumed by a companion app during development; keep CORS
	// permissive until a deployment origin policy exists.
	router.Use(cors.Default())

	server.RegisterRoutes(router)
	return router
}
