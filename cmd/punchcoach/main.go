package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"punchcoach-server/pkg/config"
	"punchcoach-server/pkg/drill"
	http_server "punchcoach-server/pkg/http"
	"punchcoach-server/pkg/messaging"
	"punchcoach-server/pkg/metrics"
	"punchcoach-server/pkg/session"
)

var logger = logrus.New()

func main() {
	appConfig, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	setupLogger(appConfig.Logging)
	metrics.Init(logger)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	hub := http_server.NewEventHub(logger)

	sinks := []drill.EventSink{hub, metrics.Sink()}
	var amqpPublisher *messaging.AMQPPublisher
	if appConfig.Messaging.Enabled {
		amqpPublisher = messaging.NewAMQPPublisher(logger, messaging.AMQPConfig{
			URL:       appConfig.Messaging.URL,
			QueueName: appConfig.Messaging.QueueName,
		})
		if err := amqpPublisher.Connect(); err != nil {
			logger.WithError(err).Warn("AMQP unavailable at startup, events will not be queued until it reconnects")
		}
		sinks = append(sinks, amqpPublisher)
	}

	registry := session.NewRegistry(session.RegistryParams{
		Logger:     logger,
		Drill:      appConfig.Scheduler,
		Classifier: appConfig.Classifier.Rules,
		Scoring:    appConfig.Scoring,
		Stance:     appConfig.Classifier.Stance,
		Sink:       drill.MultiSink(sinks...),
		Seed:       appConfig.Session.Seed,
	})

	server := http_server.NewServer(logger, appConfig.HTTP, registry, hub)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(rootCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	case err := <-errChan:
		if err != nil {
			logger.WithError(err).Error("HTTP server failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	registry.StopAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if amqpPublisher != nil {
		amqpPublisher.Disconnect()
	}
	rootCancel()

	logger.Info("Shutdown complete")
}

// setupLogger applies the configured level and format
func setupLogger(cfg config.LoggingConfig) {
	logger.SetLevel(cfg.LogrusLevel())

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
