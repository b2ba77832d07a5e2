package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/HansOheneba/celerey-api/pkg/common/config"
	"github.com/HansOheneba/celerey-api/pkg/common/kafka"
	"github.com/HansOheneba/celerey-api/pkg/common/logger"
	"github.com/HansOheneba/celerey-api/pkg/notify"
)

func main() {
	logger.Init()
	cfg := config.Load()

	email := notify.NewEmailClient(cfg.ResendAPIKey, cfg.ResendBaseURL, cfg.ResendFromEmail, cfg.NotifyTimeout)
	service := notify.NewService(email, cfg.AdminEmails)

	consumer := kafka.NewConsumer(cfg.LeadEventTopic, cfg.KafkaGroupID+"-notifier")
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down lead notifier...")
		cancel()
	}()

	logger.Log.WithField("topic", cfg.LeadEventTopic).Info("Lead notifier consuming")
	if err := consumer.Consume(ctx, service.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.WithError(err).Fatal("lead notifier stopped unexpectedly")
	}
	logger.Log.Info("Lead notifier stopped")
}
