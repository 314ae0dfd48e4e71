package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paletteml/artstyle-api/internal/config"
	"github.com/paletteml/artstyle-api/internal/handlers"
	"github.com/paletteml/artstyle-api/internal/metrics"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// NewRouter assembles the engine: recovery, request logging, CORS, metrics,
// then the API routes.
func NewRouter(cfg config.Config, h *handlers.Handler) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(corsMiddleware())
	router.Use(metrics.Middleware())

	router.MaxMultipartMemory = cfg.MaxUploadBytes

	router.GET("/health", h.Health)
	router.GET("/styles", h.Styles)
	router.POST("/predict-style", h.PredictStyle)
	router.GET("/gallery", h.Gallery)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
