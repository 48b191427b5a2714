package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/AppleZ1995/CalendarAssistant/internal/amqp"
	"github.com/AppleZ1995/CalendarAssistant/internal/cli"
	"github.com/AppleZ1995/CalendarAssistant/internal/config"
	apphttp "github.com/AppleZ1995/CalendarAssistant/internal/http"
	applog "github.com/AppleZ1995/CalendarAssistant/internal/log"
	"github.com/AppleZ1995/CalendarAssistant/internal/services"
	"github.com/AppleZ1995/CalendarAssistant/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	cli.ValidateOrExit(logger, cfg.Validate())

	store := cli.OpenStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	// Change events are optional: without a broker the API still serves,
	// it just publishes nothing.
	var publisher services.ChangePublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(applog.ComponentAMQP).Error("AMQP unavailable, change events disabled",
				applog.FieldError, err)
		} else {
			amqpClient = client
			publisher = client
			logger.Info("Change events enabled",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP_URL not set, change events disabled")
	}

	srv := apphttp.NewServer(cfg.Addr(),
		services.NewMomentService(storage.NewMomentRepository(store), publisher),
		services.NewMoneyService(storage.NewMoneyRepository(store), publisher),
		apphttp.Options{
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			Logger:             logger,
			Ready:              store,
		},
	)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	logger.Info("Starting calendar server", "addr", cfg.Addr(), "db", store.Path())

	err := cli.Run(ctx, logger, cfg.ShutdownTimeout,
		func(context.Context) error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		srv.Shutdown,
	)

	if amqpClient != nil {
		if cerr := amqpClient.Close(); cerr != nil {
			logger.Warn("AMQP close error", applog.FieldError, cerr)
		}
	}

	if err != nil {
		logger.Error("Server error", applog.FieldError, err, "addr", cfg.Addr())
		store.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
