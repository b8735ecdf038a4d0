package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionengine/internal/config"
	"auctionengine/internal/database/db_client"
	"auctionengine/internal/engine"
	"auctionengine/internal/events"
	"auctionengine/internal/http/http_server"
	"auctionengine/internal/redis/redis_client"
	"auctionengine/internal/store"
	"auctionengine/internal/watcher"
	"auctionengine/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (bid event fanout + finalisation dedup lock)
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Durable store
	var st store.Store
	switch cfg.StoreBackend {
	case "memory":
		st = store.NewMemStore()
	default:
		pgDb, err := db_client.Open(ctx, cfg.PostgresHost, cfg.PostgresPort,
			cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
		if err != nil {
			Log.Fatal("pg-open", zap.Error(err))
		}
		defer pgDb.Close()

		pg := store.NewPgStore(pgDb)
		if err := pg.EnsureSchema(ctx); err != nil {
			Log.Fatal("pg-schema", zap.Error(err))
		}
		st = pg
	}

	// 5. Bidding engine
	eng := engine.New(st, events.NewRedis(redisClient), engine.Params{
		LockWait:       time.Duration(cfg.BidLockWaitMs) * time.Millisecond,
		CommitAttempts: cfg.CommitMaxAttempts,
	})

	// 6. Background deadline watcher, resolves due auctions
	watcher.Run(ctx, time.Duration(cfg.ResolvePollMs)*time.Millisecond, redisClient, st, eng)

	// 7. WebSockets hub + Redis fan-out
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, eng)

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, eng)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
