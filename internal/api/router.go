package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yizhiakuya/MemeStore/internal/api/handler"
	"github.com/yizhiakuya/MemeStore/internal/api/middleware"
	"github.com/yizhiakuya/MemeStore/internal/config"
	"github.com/yizhiakuya/MemeStore/internal/logger"
	"github.com/yizhiakuya/MemeStore/internal/service"
	"gorm.io/gorm"
)

// RouterDeps bundles everything the HTTP layer needs.
type RouterDeps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *gorm.DB
	Memes    *service.MemeService
	Importer *service.Importer
	Auth     *service.AuthService
	Taxonomy *service.TaxonomyService
	Stats    *service.StatsService
}

// NewRouter builds the Gin engine with all routes and middleware wired.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  deps.Config.Server.CORS.AllowedOrigins,
		AllowAllOrigins: deps.Config.Server.CORS.AllowAllOrigins,
	}))

	memes := handler.NewMemeHandler(deps.Memes, deps.Importer, deps.Config.Upload.MaxFileSizeMB)
	auth := handler.NewAuthHandler(deps.Auth)
	taxonomy := handler.NewTaxonomyHandler(deps.Taxonomy)
	stats := handler.NewStatsHandler(deps.Stats)
	health := handler.NewHealthHandler(deps.DB)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/register", auth.Register)
		v1.POST("/auth/login", auth.Login)
		v1.POST("/auth/refresh", auth.Refresh)

		v1.GET("/memes", memes.List)
		v1.GET("/memes/:id", memes.Get)
		v1.POST("/memes/:id/download", memes.Download)

		v1.GET("/tags", taxonomy.ListTags)
		v1.GET("/categories", taxonomy.ListCategories)

		v1.GET("/stats", stats.Get)

		authed := v1.Group("")
		authed.Use(middleware.RequireAuth(deps.Auth))
		{
			authed.POST("/auth/logout", auth.Logout)
			authed.POST("/memes", memes.Create)
			authed.PUT("/memes/:id", memes.Update)
			authed.DELETE("/memes/:id", memes.Delete)
			authed.POST("/memes/import", memes.Import)
			authed.POST("/categories", taxonomy.CreateCategory)
		}
	}

	return r
}
