package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kitchen-assistant/internal/api"
	"kitchen-assistant/internal/app"
	"kitchen-assistant/internal/config"
	"kitchen-assistant/internal/telegram"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatalf("AUTH_JWT_SECRET environment variable not set")
	}

	ctx := context.Background()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	server := api.New(api.Config{
		Sessions:       application.Sessions,
		Verifier:       application.Verifier,
		Chef:           application.Chef,
		Clipper:        application.Clipper,
		Usage:          application.Metrics,
		InventoryLimit: cfg.InventoryPromptLimit,
		DataPath:       application.DataDir(),
	})

	var bot *telegram.Bot
	if cfg.TelegramBotToken != "" {
		bot, err = telegram.NewBot(cfg.TelegramBotToken, cfg.TelegramWebhookURL, telegram.Config{
			Sessions:       application.Sessions,
			Chef:           application.Chef,
			Clipper:        application.Clipper,
			Usage:          application.Metrics,
			AllowedUserIDs: cfg.TelegramAllowedUserIDs,
			AdminID:        cfg.AdminTelegramID,
			InventoryLimit: cfg.InventoryPromptLimit,
			DataPath:       application.DataDir(),
			WebhookSecret:  cfg.TelegramWebhookSecret,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Telegram Bot: %v", err)
		}
		server.Router().Post("/telegram/webhook", bot.HandleWebhook)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server,
	}

	go func() {
		log.Printf("Kitchen server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if bot != nil {
		bot.Wait()
	}

	log.Println("Server exiting")
}
