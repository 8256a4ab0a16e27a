package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	mongoadapter "github.com/robertarktes/event-registrations/internal/adapters/mongo"
	"github.com/robertarktes/event-registrations/internal/adapters/postgres"
	redisadapter "github.com/robertarktes/event-registrations/internal/adapters/redis"
	"github.com/robertarktes/event-registrations/internal/cache"
	"github.com/robertarktes/event-registrations/internal/config"
	httphandler "github.com/robertarktes/event-registrations/internal/http"
	"github.com/robertarktes/event-registrations/internal/idempotency"
	"github.com/robertarktes/event-registrations/internal/observability"
	"github.com/robertarktes/event-registrations/internal/rateLimit"
	"github.com/robertarktes/event-registrations/internal/service"
	"github.com/robertarktes/event-registrations/internal/service/ports"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "event-registrations-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	repo := postgres.NewRepository(pool)

	redisClient := redisclient.NewClient(&redisclient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	redisCache := redisadapter.NewCache(redisClient)
	store := cache.New(repo, repo, redisCache, logger, cache.Options{
		EventTTL: cfg.EventCacheTTL,
		ListTTL:  cfg.ListCacheTTL,
	})

	checks := map[string]httphandler.Check{
		"postgres": repo.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	var auditor ports.Auditor
	var tickets ports.TicketStore
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())
		mongoDB := mongoClient.Database(cfg.MongoDB)
		auditor = mongoadapter.NewAuditLogger(mongoDB, logger)
		tickets = mongoadapter.NewTicketRepository(mongoDB, logger)
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	} else {
		logger.Warn("MONGO_URI not set: audit log and nft ticket storage disabled")
	}

	events := service.NewEventService(store, store, auditor, logger)
	registrations := service.NewRegistrationService(store, store, tickets, auditor, logger)

	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), cfg.IdempotencyTTL)
	rl := rateLimit.NewRateLimiter(redisCache)

	handlers := httphandler.NewHandlers(events, registrations, idemp, checks, logger)
	r := httphandler.SetupRouter(handlers, logger, httphandler.RouterOptions{
		Limiter:   rl,
		RateLimit: cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	logger.WithField("addr", cfg.HTTPAddr).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server Shutdown")
	}
	logger.Info("Server exiting")
}
