package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/transit-monitor/internal/config"
	"github.com/magabrotheeeer/transit-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/transit-monitor/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/transit-monitor/internal/services/sender"
	"github.com/magabrotheeeer/transit-monitor/internal/smsgateway"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting notification-sender", slog.String("env", cfg.Env))

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to connect to RabbitMQ", slog.String("URL", cfg.RabbitMQURL))
	defer func() {
		_ = conn.Close()
	}()

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.DefaultQueues())
	if err != nil {
		logger.Error("failed to setup RabbitMQ channel", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to setup RabbitMQ channel")
	defer func() {
		_ = ch.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway := smsgateway.NewClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSender)
	sender := senderservice.NewSenderService(logger, gateway)

	if err = rabbitmq.ConsumerMessage(ctx, ch, rabbitmq.QueueWelcome, sender.SendWelcomeSMS); err != nil {
		logger.Error("failed to start consumer", sl.Err(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("notification-sender shutting down gracefully")
}
