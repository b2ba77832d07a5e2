package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HansOheneba/celerey-api/pkg/auth"
	"github.com/HansOheneba/celerey-api/pkg/common/config"
	"github.com/HansOheneba/celerey-api/pkg/common/database"
	"github.com/HansOheneba/celerey-api/pkg/common/kafka"
	"github.com/HansOheneba/celerey-api/pkg/common/logger"
	"github.com/HansOheneba/celerey-api/pkg/leads"
	"github.com/HansOheneba/celerey-api/pkg/middleware"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := leads.NewRepository(db, cfg.LeadDefaultSource, cfg.LeadDefaultStatus)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate lead tables")
	}

	statuses, err := leads.LoadStatusConfig(cfg.LeadStatusConfig)
	if err != nil {
		logger.Log.WithError(err).Warn("falling back to default lead statuses")
	}

	producer := kafka.NewProducer(cfg.LeadEventTopic)
	defer producer.Close()

	cache := database.GetRedis()
	defer database.CloseRedis()

	service := leads.NewService(leads.NewValidator(), repo, producer, cache, statuses, cfg.StatsCacheTTL)
	handler := leads.NewHandler(service)

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.CORS, middleware.BodyLimit(cfg.MaxRequestBody))
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	public := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(public)

	operator := router.PathPrefix("/api/v1").Subrouter()
	if authenticator, err := auth.NewOIDCAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret); err == nil {
		operator.Use(middleware.Authenticate(authenticator))
	} else {
		logger.Log.WithError(err).Warn("operator API running without authentication")
	}
	handler.RegisterOperator(operator)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Leads service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start leads service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down leads service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Leads service forced to shutdown")
	}
	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Error("failed to close postgres connection")
	}
	logger.Log.Info("Leads service stopped")
}
