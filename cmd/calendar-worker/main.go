package main

import (
	"context"
	"os"

	"github.com/AppleZ1995/CalendarAssistant/internal/amqp"
	"github.com/AppleZ1995/CalendarAssistant/internal/cli"
	"github.com/AppleZ1995/CalendarAssistant/internal/config"
	applog "github.com/AppleZ1995/CalendarAssistant/internal/log"
	"github.com/AppleZ1995/CalendarAssistant/internal/sheets"
	gsheet "github.com/AppleZ1995/CalendarAssistant/internal/sheets/google"
	"github.com/AppleZ1995/CalendarAssistant/internal/sheets/memory"
	"github.com/AppleZ1995/CalendarAssistant/internal/storage"
	"github.com/AppleZ1995/CalendarAssistant/internal/worker"
)

// memoryRecorderLimit bounds the log-only recorder used without a spreadsheet.
const memoryRecorderLimit = 1000

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	cli.ValidateOrExit(logger, cfg.ValidateWorker())

	logger.Info("Starting calendar-worker")

	store := cli.OpenStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	var recorder sheets.ChangeRecorder
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.WithComponent(applog.ComponentSheets).Error("Failed to initialize Google Sheets client",
				applog.FieldError, err)
			store.Close()
			os.Exit(1)
		}
		recorder = client
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, changes are logged only")
		recorder = memory.New(memoryRecorderLimit)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WithComponent(applog.ComponentAMQP).Error("Failed to initialize AMQP client",
			applog.FieldError, err)
		store.Close()
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(
		storage.NewMomentRepository(store),
		storage.NewMoneyRepository(store),
		recorder,
	)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	err = cli.Run(ctx, logger, cfg.ShutdownTimeout,
		func(ctx context.Context) error {
			return amqpClient.ConsumeChanges(ctx, mirror.HandleChange)
		},
		nil,
	)
	if err != nil {
		logger.Error("Message consumption failed", applog.FieldError, err)
		amqpClient.Close()
		store.Close()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
