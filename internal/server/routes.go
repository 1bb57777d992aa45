// Package server exposes classification, follow-up, feedback and tariff
// updates over HTTP.
package server

import (
	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds request bodies, which may carry a base64 image.
const maxBodyBytes = 16 << 20

// SetupRouter creates and configures the Gin router.
func SetupRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(handler.logger))
	router.Use(CORSMiddleware(allowedOrigins))
	router.Use(limitBody(maxBodyBytes))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/classify", handler.Classify)
		v1.POST("/followup", handler.FollowUp)
		v1.POST("/feedback", handler.Feedback)
		v1.GET("/tariff-updates", handler.TariffUpdates)
	}

	return router
}
