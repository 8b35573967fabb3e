package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mfi-alm/internal/api"
	"mfi-alm/internal/api/handlers"
	"mfi-alm/internal/data"
	"mfi-alm/internal/logging"
	"mfi-alm/internal/metrics"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	logCfg := logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: "json"}
	if os.Getenv("API_ENV") != "production" {
		logCfg.Format = "console"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ttl := data.DefaultResultTTL
	if v := os.Getenv("RESULT_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			ttl = parsed
		} else {
			logger.Warn("ignoring RESULT_TTL", zap.String("value", v), zap.Error(err))
		}
	}
	store := data.NewResultStore[handlers.StoredRun](ttl)
	stop := make(chan struct{})
	defer close(stop)
	go store.RunCleanup(5*time.Minute, stop)

	var origins []string
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}

	router := api.NewRouter(api.Options{
		Logger:         logger,
		Metrics:        metrics.New(),
		Store:          store,
		ScenariosFile:  os.Getenv("SCENARIOS_FILE"),
		AllowedOrigins: origins,
	})

	// Start server
	addr := fmt.Sprintf(":%s", port)
	logger.Info("starting API server", zap.String("addr", addr), zap.Duration("result_ttl", ttl))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
