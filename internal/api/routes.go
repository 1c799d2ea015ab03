package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"showcase/internal/api/middleware"
	"showcase/internal/config"
	"showcase/internal/storage"
)

// Deps 汇总路由注册所需的外部依赖。
type Deps struct {
	DB          *gorm.DB
	Queue       taskEnqueuer
	Validator   middleware.TokenValidator
	RedisClient redis.UniversalClient
	Storage     storage.ObjectStore
	Logger      *slog.Logger
}

// RegisterRoutes 注册业务路由。
func RegisterRoutes(router *gin.Engine, cfg *config.Config, deps Deps) {
	resumeHandler := NewResumeHandler(deps.DB, deps.Queue, deps.Storage, cfg.Export.StaleAfter)
	profileHandler := NewProfileHandler(deps.DB, deps.Storage, deps.RedisClient, cfg.ClamAV.Addr)
	publicHandler := NewPublicHandler(deps.DB, deps.Storage, deps.RedisClient, cfg.Export.BackgroundKey)
	printHandler := NewPrintHandler(deps.DB, deps.Storage)
	wsHandler := NewWsHandler(deps.DB, deps.RedisClient, deps.Validator, deps.Logger, cfg.API.AllowedOrigins, cfg.Export.StaleAfter)

	authMiddleware := middleware.AuthMiddleware(deps.Validator)
	optionalAuth := middleware.OptionalAuthMiddleware(deps.Validator)

	router.GET("/r/:id", optionalAuth, publicHandler.GetPublicPage)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		v1.GET("/public/resumes/:id", optionalAuth, publicHandler.GetPublicResume)

		profileGroup := v1.Group("/profile")
		profileGroup.Use(authMiddleware)
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PUT("", profileHandler.UpdateProfile)
			profileGroup.POST("/photo", profileHandler.UploadPhoto)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PUT("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.POST("/:id/publish", resumeHandler.PublishResume)
			resumeGroup.POST("/:id/unpublish", resumeHandler.UnpublishResume)
			resumeGroup.POST("/:id/export", resumeHandler.ExportResume)
			resumeGroup.GET("/:id/download-link", resumeHandler.GetDownloadLink)
		}
	}

	internal := router.Group("/internal/v1")
	internal.Use(middleware.InternalSecretMiddleware(cfg.API.InternalSecret))
	{
		internal.GET("/resumes/:id/print", printHandler.GetPrintPage)
	}
}
