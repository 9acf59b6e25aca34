package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"family_schedule_bot/internal/app"
	"family_schedule_bot/internal/infra/config"
	idb "family_schedule_bot/internal/infra/database"
	"family_schedule_bot/internal/infra/httpapi"
	"family_schedule_bot/internal/infra/logger"
	"family_schedule_bot/internal/infra/scheduler"
	"family_schedule_bot/internal/infra/secrets"
	"family_schedule_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("bot")

	// The admin id is re-read from the environment once the cache ttl has passed.
	credentials := secrets.NewCache(secrets.EnvSource{}, cfg.CredentialsTTL)
	adminID, err := credentials.AdminID(context.Background())
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not load credentials")
	}
	mainLogger.WithFields(logrus.Fields{
		"environment":     cfg.Environment,
		"admin_id":        adminID,
		"http_addr":       cfg.HTTPAddr,
		"credentials_ttl": cfg.CredentialsTTL,
	}).Info("Configuration loaded")

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.RunMigrations(db, mainLogger); err != nil {
		mainLogger.WithError(err).Fatal("Could not migrate database")
	}
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	inputRepo := idb.NewPostgresInputRepository(db)
	finalizedRepo := idb.NewPostgresFinalizedRepository(db)
	pointsRepo := idb.NewPostgresPointsRepository(db)
	settingsRepo := idb.NewPostgresSettingsRepository(db)
	recordRepo := idb.NewPostgresRecordRepository(db)
	medicationRepo := idb.NewPostgresMedicationRepository(db)
	hitokotoRepo := idb.NewPostgresHitokotoRepository(db)

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := mainLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("Telebot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	client := telegram.NewTelebotAdapter(bot)

	// Initialize Services
	links := app.Links{BaseURL: cfg.DashboardBaseURL}
	serviceLogger := logrus.NewEntry(logger.Get())
	finalizationService := app.NewFinalizationService(inputRepo, finalizedRepo, pointsRepo, links, serviceLogger)
	notificationService := app.NewNotificationService(finalizedRepo, settingsRepo, client, links, serviceLogger)
	submissionService := app.NewSubmissionService(inputRepo, settingsRepo, client, links, serviceLogger)
	historyService := app.NewHistoryService(inputRepo, finalizedRepo, pointsRepo, cfg.HistoryStartWeek, serviceLogger)
	petService := app.NewPetService(recordRepo, medicationRepo, hitokotoRepo, serviceLogger)
	adminService := app.NewAdminService(settingsRepo, client, links, credentials, cfg.Timezone, serviceLogger)

	// Initialize WeeklyScheduler
	weeklyScheduler := scheduler.NewWeeklyScheduler(finalizationService, notificationService, scheduler.Specs{
		Finalize: cfg.CronSpecFinalize,
		Notify:   cfg.CronSpecNotify,
		Reminder: cfg.CronSpecReminder,
	}, serviceLogger)
	weeklyScheduler.Start()

	// Register Handlers
	telegram.RegisterBotCommands(bot, telegram.NewBotHandlers(adminService, links.Dashboard(""), serviceLogger))
	mainLogger.Info("Bot command handlers registered.")

	handler := httpapi.NewHandler(submissionService, historyService, petService, adminService, serviceLogger)
	server := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: cfg.AllowedOrigins,
		Environment:    cfg.Environment,
	}, handler, serviceLogger).HTTPServer()

	go func() {
		mainLogger.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()
	mainLogger.Info("Application setup complete. Bot, HTTP server and scheduler are running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		mainLogger.WithError(err).Error("HTTP server shutdown failed")
	}
	bot.Stop()
	weeklyScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
