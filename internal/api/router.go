package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/catknow/internal/api/handler"
	"github.com/timmy/catknow/internal/api/middleware"
	"github.com/timmy/catknow/internal/config"
	"github.com/timmy/catknow/internal/logger"
	"github.com/timmy/catknow/internal/ratelimit"
	"github.com/timmy/catknow/internal/service"
)

// RouterDeps holds everything the HTTP layer needs.
type RouterDeps struct {
	Catalog    *service.CatalogService
	Limiter    *ratelimit.SlidingWindow
	Identity   ratelimit.IdentityFunc
	CacheStore string
	Server     config.ServerConfig
	Logger     *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps RouterDeps) *gin.Engine {
	// Set Gin mode
	switch deps.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Logger))
	r.Use(middleware.CORS(deps.Server.CORS))
	if deps.Server.Compress {
		r.Use(middleware.Compress())
	}

	healthHandler := handler.NewHealthHandler(deps.CacheStore)
	catalogHandler := handler.NewCatalogHandler(deps.Catalog)

	// Health check
	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(deps.Limiter, deps.Identity))
	{
		api.GET("/categories", catalogHandler.ListCategories)
		api.GET("/cats", catalogHandler.ListCats)
		api.GET("/cats/:id", catalogHandler.GetCat)
	}

	return r
}
