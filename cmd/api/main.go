// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"paycheck-tracker/internal/app"
	"paycheck-tracker/internal/bot"
	"paycheck-tracker/internal/config"
	"paycheck-tracker/internal/handler"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.Deps{
		Auth:     a.Auth,
		Finance:  a.Finance,
		Store:    a.Store,
		Location: cfg.Location,
	})

	if cfg.TelegramToken != "" {
		b, err := setupWebhook(router, a, cfg)
		if err != nil {
			slog.Error("Telegram setup failed", "error", err)
			os.Exit(1)
		}
		defer b.Close()
	}

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(ctx) })
	g.Go(func() error {
		slog.Info("🚀 Server started", "addr", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

// setupWebhook points telegram at a path under PUBLIC_URL that only the
// token holder can compute, and answers updates posted there.
func setupWebhook(router *gin.Engine, a *app.App, cfg config.Config) (*bot.Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b := bot.New(api, a.Auth, a.Finance, a.Store, bot.WithLocation(cfg.Location))

	if cfg.PublicURL == "" {
		slog.Warn("PUBLIC_URL not set, telegram webhook not registered")
	} else {
		wh, err := tgbotapi.NewWebhook(strings.TrimSuffix(cfg.PublicURL, "/") + handler.WebhookPath(cfg.TelegramToken))
		if err != nil {
			return nil, err
		}
		if _, err := api.Request(wh); err != nil {
			return nil, err
		}
		slog.Info("Telegram webhook set", "public_url", cfg.PublicURL)
	}

	handler.RegisterTelegram(router, cfg.TelegramToken, b)
	return b, nil
}
