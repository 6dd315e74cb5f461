package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"

	"loco-dispatcher/config"
	"loco-dispatcher/internal/api"
	"loco-dispatcher/internal/db"
	"loco-dispatcher/internal/dispatch"
	"loco-dispatcher/internal/lifecycle"
	"loco-dispatcher/internal/lock"
	"loco-dispatcher/internal/metrics"
	"loco-dispatcher/internal/notification"
	"loco-dispatcher/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "locod ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	if cfg.Database.Seed {
		seeded, err := db.Bootstrap(gormDB)
		if err != nil {
			logger.Fatalf("failed to seed reference data: %v", err)
		}
		if seeded {
			logger.Println("reference data seeded")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	locker, err := newLocker(ctx, cfg.Lock)
	if err != nil {
		logger.Fatalf("failed to initialize %s locker: %v", cfg.Lock.Backend, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatalf("failed to access database handle: %v", err)
	}
	metrics.Init(sqlDB, logger)

	appStore := store.NewGormStore(gormDB, locker)
	logger.Println("data store initialized")

	opts := api.Options{
		Rules:          dispatch.RulesFromConfig(cfg.Dispatch),
		MaxUploadBytes: int64(cfg.Import.MaxUploadMB) << 20,
	}
	if cfg.Push.Enabled() {
		opts.WebPush = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, opts.WebPush)
		pool.Start(ctx)
		opts.Dispatcher = pool
		logger.Printf("notification worker pool started with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Println("VAPID keys not configured; conflict notifications disabled")
	}

	lifecycleSvc := lifecycle.NewService(cfg.Lifecycle, appStore)
	go lifecycleSvc.Run(ctx)

	router := api.NewRouter(cfg.Server, appStore, opts)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

// newLocker picks the per-locomotive lock backend.
func newLocker(ctx context.Context, cfg config.LockConfig) (lock.Locker, error) {
	switch cfg.Backend {
	case "", "memory":
		return lock.NewMemoryLocker(), nil
	case "redis":
		client, err := lock.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return lock.NewRedisLocker(client,
			time.Duration(cfg.TTLSeconds)*time.Second,
			time.Duration(cfg.RetryMillis)*time.Millisecond), nil
	}
	return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
}
