// Package api wires the HTTP surface: routes, middleware, and the metrics endpoint.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mfi-alm/internal/api/handlers"
	"mfi-alm/internal/api/middleware"
	"mfi-alm/internal/data"
	"mfi-alm/internal/logging"
	"mfi-alm/internal/metrics"
)

type Options struct {
	Logger         *zap.Logger
	Metrics        *metrics.Collector
	Store          *data.ResultStore[handlers.StoredRun]
	ScenariosFile  string
	AllowedOrigins []string
}

func NewRouter(opts Options) *gin.Engine {
	logger := logging.OrNop(opts.Logger)
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Store == nil {
		opts.Store = data.NewResultStore[handlers.StoredRun](data.DefaultResultTTL)
	}

	router := gin.New()
	router.Use(middleware.CORS(opts.AllowedOrigins...))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))

	calibration := handlers.NewCalibrationHandler(opts.Store, logger, opts.Metrics)
	scenarios := handlers.NewScenarioHandler(opts.ScenariosFile, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/calibrate", calibration.Calibrate)
		v1.GET("/calibrate/:id/ledger", calibration.GetLedger)
		v1.POST("/calibrate/compare", calibration.Compare)

		v1.POST("/lifetime", handlers.Lifetime)

		v1.GET("/methods", handlers.ListMethods)
		v1.GET("/scenarios", scenarios.ListScenarios)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
