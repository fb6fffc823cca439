package handler

import (
	"net/http"
	"time"

	"webweaver/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 注册全部路由
func NewRouter(cfg *config.Config, siteHandler *SiteHandler, historyHandler *HistoryHandler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     cfg.CORS.AllowedMethods,
			AllowHeaders:     cfg.CORS.AllowedHeaders,
			ExposeHeaders:    cfg.CORS.ExposedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
		}))
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		site := api.Group("/site")
		{
			site.POST("/generate", siteHandler.Generate)
			site.POST("/generate/stream", siteHandler.GenerateStream)
			site.GET("/download", siteHandler.Download)
			site.GET("/files/*path", siteHandler.Files)
			site.POST("/reset", siteHandler.Reset)
			site.GET("/hints", siteHandler.Hints)
		}

		history := api.Group("/history")
		{
			history.GET("", historyHandler.List)
			history.GET("/:index", historyHandler.Get)
			history.GET("/:index/preview", historyHandler.Preview)
			history.DELETE("/:index", historyHandler.Delete)
		}
	}

	return router
}
