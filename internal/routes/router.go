package routes

import (
	"net/http"

	"digipiggy-hub/internal/config"
	"digipiggy-hub/internal/delivery/http/handler"
	"digipiggy-hub/internal/logger"
	"digipiggy-hub/internal/middleware"
	"digipiggy-hub/internal/notify"
	"digipiggy-hub/internal/onboarding"
	"digipiggy-hub/internal/store"
	"digipiggy-hub/internal/usecase/piggy"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, st *store.Store, notifier notify.Notifier) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	if cfg.RateLimit.GeneralRPS > 0 {
		router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))
	}

	router.GET("/health", func(c *gin.Context) {
		if !st.Hydrated() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "starting",
				"message": "Store has not been hydrated yet",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":       "healthy",
			"device_count": st.DeviceCount(),
		})
	})

	service := piggy.NewService(st, notifier)
	deviceHandler := handler.NewDeviceHandler(service)
	goalHandler := handler.NewGoalHandler(service)
	onboardingHandler := handler.NewOnboardingHandler(
		onboarding.NewBleScanner(),
		onboarding.NewWifiScanner(),
	)
	streamHandler := handler.NewStreamHandler(st)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(cfg.Server.APIToken))
	{
		deviceHandler.RegisterRoutes(v1)
		goalHandler.RegisterRoutes(v1)
		onboardingHandler.RegisterRoutes(v1)
		streamHandler.RegisterRoutes(v1)
	}

	logger.Info("All routes initialized")
	return router
}
