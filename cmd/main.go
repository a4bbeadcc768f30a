package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"moveops/internal/api"
	"moveops/internal/audit"
	"moveops/internal/auth"
	"moveops/internal/config"
	"moveops/internal/manager"
	"moveops/internal/metrics"
	"moveops/internal/signin"
	"moveops/internal/storage"
	"moveops/internal/tenant"
)

// @title MoveOps Platform API
// @version 1.0
// @description Access-control and multi-tenancy core of the MoveOps platform
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	metrics.Init()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	logrus.Info("configuration loaded")

	db, err := storage.NewStorage(cfg.Database.URL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to init DB")
	}
	defer db.DB.Close()
	if err := db.EnsureSchema(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ensure schema")
	}
	logrus.Info("PostgreSQL connected")

	publisher, err := audit.NewPublisher(cfg.RabbitMQ.URL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to RabbitMQ")
	}
	defer publisher.Close()
	logrus.Info("RabbitMQ connected")

	consumer, err := audit.StartConsumer(publisher.Connection(), db, cfg.Workers)
	if err != nil {
		logrus.WithError(err).Fatal("failed to start audit consumer")
	}

	keys := auth.NewSigningKeyCache(cfg.Auth.JWKSURL)
	verifier := auth.NewVerifier(keys, cfg.Auth.Issuer)
	admin := auth.NewAdminAuthorizer(verifier, cfg.Auth.AdminGroup)

	gate := signin.NewGate(signin.NewHTTPDirectory(cfg.Directory.BaseURL), cfg.Auth.AdminGroup)
	tenants := manager.NewTenantService(db, publisher)
	resolver := tenant.NewResolver(db, db)

	apiHandler := api.NewAPI(tenants, resolver, admin, gate, db)
	server := &http.Server{
		Addr:    ":8080",
		Handler: apiHandler.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.Info("starting API server on port 8080")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP shutdown error")
	}
	consumer.Stop()

	logrus.Info("graceful shutdown complete")
}
