package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/chat"
	"gastos/internal/config"
	"gastos/internal/core"
	apphttp "gastos/internal/http"
	"gastos/internal/ledger"
	"gastos/internal/services"
	gsheet "gastos/internal/sheets/google"
	"gastos/internal/storage"
	"gastos/pkg/logging"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	manager, err := ledger.NewExpenseManager(ctx, repo, repo)
	if err != nil {
		slog.Error("Failed to initialize expense manager", "error", err)
		os.Exit(1)
	}

	// The AMQP publisher is optional: without it expense events are only
	// logged and the notifier never hears about them.
	var publisher services.EventPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Warn("AMQP unavailable, expense events will not be published", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
		slog.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	var exporter services.ReportExporter
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			slog.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = sheetsClient
		slog.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		slog.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var sessions chat.SessionStore
	var memoryStore *chat.MemoryStore
	switch cfg.SessionBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Error("Failed to connect to Redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		defer client.Close()
		sessions = chat.NewRedisStore(client, cfg.SessionTTL)
		slog.Info("Redis session store initialized", "addr", cfg.RedisAddr)
	default:
		memoryStore = chat.NewMemoryStore(cfg.SessionCacheSize, cfg.SessionTTL)
		sessions = memoryStore
		slog.Info("In-memory session store initialized", "size", cfg.SessionCacheSize, "ttl", cfg.SessionTTL)
	}

	registry := core.NewCategoryRegistry()
	expenses := services.NewExpenseService(manager, registry, publisher)
	members := services.NewMemberService(manager, repo)
	reports := services.NewReportService(manager, exporter)
	machine := chat.NewMachine(sessions, expenses, members, reports)

	srv := apphttp.NewServer(":"+cfg.Port, expenses, members, reports, machine)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if memoryStore != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.SessionTTL)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if n := memoryStore.CleanExpired(); n > 0 {
						slog.Info("Expired chat sessions removed", "count", n)
					}
				}
			}
		})
	}

	slog.Info("Starting gastos server", "port", cfg.Port, "session_backend", cfg.SessionBackend)
	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}
