package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/adi-253/parley/backend/internal/admission"
	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/config"
	"github.com/adi-253/parley/backend/internal/handlers"
	"github.com/adi-253/parley/backend/internal/observers"
	"github.com/adi-253/parley/backend/internal/ratelimit/application"
	"github.com/adi-253/parley/backend/internal/ratelimit/domain"
	"github.com/adi-253/parley/backend/internal/ratelimit/infra"
	"github.com/adi-253/parley/backend/internal/services"
	"github.com/adi-253/parley/backend/internal/store"
	"github.com/adi-253/parley/backend/internal/supabase"
	"github.com/adi-253/parley/backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration from environment
	cfg := config.Load()

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabasePath,
		store.WithUpdateHooks(observers.EditDiff{}),
		store.WithCreateHooks(observers.NotifyRecipient{}),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}

	limiter := application.Service{
		Policy: domain.Policy{Limit: policy.RateLimit.Limit, Window: policy.RateLimit.Window},
	}
	var memory *infra.MemoryStore
	if policy.RateLimit.Backend == config.BackendRedis {
		if rdb == nil {
			return errors.New("rate limit backend is redis but REDIS_ADDR is not set")
		}
		limiter.Store = infra.NewRedisStore(rdb)
	} else {
		memory = infra.NewMemoryStore(
			infra.WithMaxKeys(policy.RateLimit.MaxKeys),
			infra.WithIdleTTL(policy.RateLimit.IdleTTL),
		)
		limiter.Store = memory
	}
	if cfg.RateStatsEnabled {
		if rdb == nil {
			return errors.New("RATE_STATS_ENABLED requires REDIS_ADDR")
		}
		limiter.Stats = infra.NewRedisStatsStore(rdb)
	}

	requestLog, err := admission.OpenRequestLog(cfg.RequestLogPath)
	if err != nil {
		return err
	}
	defer requestLog.Close()

	chain, err := admission.Build(policy, requestLog, limiter)
	if err != nil {
		return err
	}

	// Live notification delivery
	notifications := services.NewNotificationService(db)
	hub := websocket.NewHub(notifications)
	go hub.Run()

	publishers := []services.Publisher{hub}
	if relay := supabase.NewClient(cfg); relay.Enabled() {
		publishers = append(publishers, relay)
		log.Printf("Supabase relay enabled (%s)", cfg.SupabaseURL)
	}
	dispatcher := services.NewDispatcher(256, publishers...)
	db.AddCommitHook(dispatcher.OnCommit)
	go dispatcher.Start()
	defer dispatcher.Stop()

	// Idle windows only live in the in-process store
	if memory != nil {
		janitor := services.NewCleanupService(memory, cfg.JanitorInterval)
		go janitor.Start()
		defer janitor.Stop()
	}

	router := handlers.NewRouter(handlers.Deps{
		Store:       db,
		Issuer:      auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTRefreshTTL),
		Admission:   chain,
		Hub:         hub,
		CORSOrigins: cfg.CORSOrigins,
	})
	log.Printf("CORS allowed origins: %v", cfg.CORSOrigins)
	log.Printf("Rate limit: %d requests per %s (%s backend)",
		policy.RateLimit.Limit, policy.RateLimit.Window, policy.RateLimit.Backend)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Parley backend starting on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
