package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/revtrack/internal/database"
	"github.com/example/revtrack/internal/notify"
	"github.com/example/revtrack/internal/review"
	"github.com/example/revtrack/internal/scheduler"
	"github.com/example/revtrack/internal/server"
)

func main() {
	// Загружаем переменные окружения из .env, если он есть
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Создаем канал для сигналов
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Подключаемся к базе данных
	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	items := database.NewReviewItemRepository()
	sheets := database.NewSheetRepository()
	settings := database.NewUserSettingsRepository()

	registry := review.NewRegistry(sheets)
	service := review.NewService(items, registry)

	// Notifier включается только при наличии токена
	var notifier scheduler.Notifier
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		tg, err := notify.NewTelegramNotifier(token)
		if err != nil {
			log.Printf("Warning: telegram notifier disabled: %v", err)
		} else {
			notifier = tg
		}
	}

	var sched *scheduler.Scheduler
	if os.Getenv("ENABLE_SCHEDULER") != "false" {
		sched = scheduler.New(service, items, settings, notifier)
		sched.Start()
		log.Println("Sweep scheduler started")
	}

	srv := server.New(service, sheets, settings)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	go func() {
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s. Press Ctrl+C to stop.", addr)

	// Ждем сигнала завершения
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	if sched != nil {
		sched.Stop()
	}

	// Даем время на graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped successfully")
}
