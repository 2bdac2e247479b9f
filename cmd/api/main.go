package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aqar-tech/realestate-ai-platform/internal/api/router"
	appconfig "github.com/aqar-tech/realestate-ai-platform/internal/config"
	"github.com/aqar-tech/realestate-ai-platform/internal/dashboard"
	"github.com/aqar-tech/realestate-ai-platform/internal/http/handlers"
	"github.com/aqar-tech/realestate-ai-platform/internal/notify"
	"github.com/aqar-tech/realestate-ai-platform/internal/observability/metrics"
	"github.com/aqar-tech/realestate-ai-platform/internal/orchestrator"
	"github.com/aqar-tech/realestate-ai-platform/internal/responder"
	"github.com/aqar-tech/realestate-ai-platform/internal/session"
	"github.com/aqar-tech/realestate-ai-platform/internal/store"
	"github.com/aqar-tech/realestate-ai-platform/internal/xlsxlog"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

func main() {
	// Load .env if present, then configuration.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting realestate-ai-platform",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	m := metrics.New(nil)

	st, err := store.New(cfg.DataDir, logger,
		store.WithPhoneDefaults(cfg.DefaultCountryCode, cfg.AdminFallbackNumber))
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	recorder, err := xlsxlog.New(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open spreadsheet logs", "error", err)
		os.Exit(1)
	}

	// Chat session manager over the messaging wire.
	sessionCfg := session.Config{
		QRMaxRetries:      cfg.SessionQRMaxRetries,
		MaxReconnects:     cfg.SessionMaxReconnects,
		ReconnectBase:     cfg.SessionReconnectBase,
		ReconnectCap:      cfg.SessionReconnectCap,
		KeepaliveInterval: cfg.SessionKeepaliveInterval,
		TypingDelay:       cfg.SessionTypingDelay,
	}
	wireFactory := func(ctx context.Context) (session.WireClient, error) {
		return session.NewWire(ctx, cfg.AuthDir, logger)
	}
	manager := session.NewManager(wireFactory, sessionCfg, cfg.AuthDir, logger, m)

	// AI responder. The history survives provider switches so ongoing
	// conversations keep their context.
	history := responder.NewHistory(cfg.AIMaxHistory, cfg.AIMaxConversations)
	factory := func(ctx context.Context, view orchestrator.AISettingsView) (orchestrator.ReplyGenerator, error) {
		client, err := newLLMClient(ctx, view)
		if err != nil {
			return nil, err
		}
		return responder.NewService(client, view.Model, history, logger), nil
	}

	settings := orchestrator.NewAISettings(orchestrator.AISettingsView{
		Enabled:      cfg.AIEnabled,
		Provider:     cfg.AIProvider,
		Model:        cfg.AIModel,
		APIKey:       cfg.AIAPIKey,
		SystemPrompt: cfg.AISystemPrompt,
	})
	var generator orchestrator.ReplyGenerator
	if cfg.AIEnabled && cfg.AIAPIKey != "" {
		generator, err = factory(context.Background(), settings.Snapshot())
		if err != nil {
			logger.Error("ai responder unavailable, falling back to canned replies", "error", err)
		}
	}

	// Admin notifications over chat, optionally mirrored to email.
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	notifier := notify.New(manager, st, emailSender, cfg.AdminEmail, logger)

	dash := dashboard.NewHandler(manager, nil, logger)

	orch := orchestrator.New(orchestrator.Options{
		Store:     st,
		Activity:  recorder,
		Sender:    manager,
		Settings:  settings,
		Factory:   factory,
		Generator: generator,
		Sink:      dash,
		Notifier:  notifier,
		Metrics:   m,
		Logger:    logger,
	})
	dash.SetAIController(orch)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go orch.Run(runCtx, manager.Events())

	// HTTP surface.
	routerCfg := router.Config{
		Logger:             logger,
		Health:             handlers.NewHealthHandler(manager),
		Business:           handlers.NewBusinessHandler(st, logger),
		Listings:           handlers.NewListingsHandler(st, logger),
		Schedule:           handlers.NewScheduleHandler(st, orch, logger),
		Stats:              handlers.NewStatsHandler(st, recorder, logger),
		Export:             handlers.NewExportHandler(recorder, logger),
		Dashboard:          dash,
		AdminJWTSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PublicDir:          cfg.PublicDir,
		EnableRequestLogs:  !strings.EqualFold(cfg.Env, "test"),
	}
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-runCtx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	manager.Disconnect()

	logger.Info("server stopped")
}

// newLLMClient picks the provider client for the given settings.
func newLLMClient(ctx context.Context, view orchestrator.AISettingsView) (responder.LLMClient, error) {
	switch strings.ToLower(view.Provider) {
	case "openai", "gpt":
		return responder.NewOpenAILLMClient(view.APIKey, view.Model)
	case "", "gemini":
		return responder.NewGeminiLLMClient(ctx, view.APIKey, view.Model)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", view.Provider)
	}
}
