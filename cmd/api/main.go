package main

import (
	"fmt"
	"net/http"
	"time"

	"database/sql"

	"github.com/dkrylov/finplan/internal/config"
	"github.com/dkrylov/finplan/internal/engine"
	"github.com/dkrylov/finplan/internal/handler"
	"github.com/dkrylov/finplan/internal/integrations/cbr"
	"github.com/dkrylov/finplan/internal/notify"
	"github.com/dkrylov/finplan/internal/service"
	"github.com/dkrylov/finplan/internal/store"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	st := store.NewPostgres(db)
	cbrClient := cbr.NewClient(cfg, logger)
	limits := engine.Limits{
		MaxOccurrences:   cfg.MaxOccurrences,
		MaxPayoffPeriods: cfg.MaxPayoffPeriods,
		StagnantPeriods:  cfg.StagnantPeriods,
	}
	svc := service.NewService(st, logger, limits, cfg.WarningThreshold, cbrClient)
	h := handler.NewHandler(svc, cbrClient, logger)

	// Setup router
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	// Daily forecast check
	sender := notify.NewSender(cfg, logger)
	scheduler := service.NewScheduler(svc, sender, logger, cfg.ForecastSchedule, cfg.ForecastDays)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
