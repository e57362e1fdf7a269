package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go-gin-qms/config"
	"go-gin-qms/internal/cache"
	"go-gin-qms/internal/database"
	"go-gin-qms/internal/handler"
	"go-gin-qms/internal/hub"
	"go-gin-qms/internal/model"
	"go-gin-qms/internal/queue"
	"go-gin-qms/internal/repository"
	"go-gin-qms/internal/service"
	"go-gin-qms/internal/telemetry"
	"go-gin-qms/internal/worker"
	"go-gin-qms/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and realtime server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if port != "" {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	logger.SetLevel(cfg.LogLevel)
	log := logger.WithComponent("server")

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, cfg.Telemetry.ServiceName)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(sctx)
	}()

	deps, cleanup, err := buildBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	h := hub.New(cfg.Engine.HubSendBuffer)
	notifier, closeRelay, err := buildNotifier(ctx, cfg, deps.redis, h)
	if err != nil {
		return err
	}
	defer closeRelay()

	defaultPolicy := model.QueuePolicy{
		Strategy:           model.PriorityStrategy(cfg.Engine.DefaultStrategy),
		InterleaveInterval: cfg.Engine.DefaultInterleave,
	}
	callingService := service.NewCallingService(deps.tickets, deps.rooms, deps.locker, notifier, service.CallingServiceConfig{
		MaxAttempts:   cfg.Engine.MaxAttempts,
		DefaultPolicy: defaultPolicy,
	})
	ticketService := service.NewTicketService(deps.tickets, deps.rooms, notifier)
	roomService := service.NewRoomService(deps.rooms, notifier)
	viewService := service.NewQueueViewService(deps.tickets, deps.rooms, defaultPolicy)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/healthz", func(c *gin.Context) {
		if err := deps.ping(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handler.NewCallingHandler(callingService).RegisterRoutes(router)
	handler.NewQueueHandler(ticketService, roomService, viewService).RegisterRoutes(router)
	handler.NewRealtimeHandler(h, cfg.Realtime.Prefix).RegisterRoutes(router)

	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     otelhttp.NewHandler(router, cfg.Telemetry.ServiceName),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.Engine.StoreBackend),
			zap.String("lock", cfg.Engine.LockBackend),
			zap.String("relay", cfg.Engine.EventRelay),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
		return err
	}
	return nil
}

type backends struct {
	tickets repository.TicketStore
	rooms   repository.RoomRepository
	locker  cache.RoomLocker
	pool    *pgxpool.Pool
	redis   *redis.Client
}

func (b *backends) ping(ctx context.Context) error {
	if b.pool != nil {
		if err := b.pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// buildBackends 依設定選擇 memory/postgres 儲存與 local/redis 鎖
func buildBackends(ctx context.Context, cfg *config.Config) (*backends, func(), error) {
	b := &backends{}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Engine.StoreBackend {
	case config.BackendPostgres:
		pool, err := database.InitDatabase(&cfg.Database)
		if err != nil {
			return nil, cleanup, fmt.Errorf("init database: %w", err)
		}
		closers = append(closers, pool.Close)
		if cfg.Engine.AutoMigrate {
			if err := database.Migrate(ctx, pool); err != nil {
				cleanup()
				return nil, func() {}, fmt.Errorf("migrate: %w", err)
			}
		}
		b.pool = pool
		b.tickets = repository.NewPostgresTicketStore(pool)
		b.rooms = repository.NewPostgresRoomRepository(pool)
	case config.BackendMemory, "":
		rooms := repository.NewMemoryRoomRepository()
		b.tickets = repository.NewMemoryTicketStore(rooms)
		b.rooms = rooms
	default:
		return nil, cleanup, fmt.Errorf("unknown store backend %q", cfg.Engine.StoreBackend)
	}

	if cfg.Engine.LockBackend == config.BackendRedis || cfg.Engine.EventRelay == config.BackendRedis {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("init redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		b.redis = rdb
	}

	switch cfg.Engine.LockBackend {
	case config.BackendRedis:
		b.locker = cache.NewRedisRoomLocker(b.redis, &cache.RedisRoomLockerConfig{
			TTL:  cfg.Engine.LockTTL,
			Wait: cfg.Engine.LockWait,
		})
	case config.BackendLocal, "":
		b.locker = cache.NewLocalRoomLocker()
	default:
		cleanup()
		return nil, func() {}, fmt.Errorf("unknown lock backend %q", cfg.Engine.LockBackend)
	}

	return b, cleanup, nil
}

// buildNotifier direct 直接推到 hub；memory/redis 經由隊列與 EventWorker
func buildNotifier(ctx context.Context, cfg *config.Config, rdb *redis.Client, h *hub.Hub) (service.Notifier, func(), error) {
	var q queue.EventQueue
	closeRelay := func() {}
	switch cfg.Engine.EventRelay {
	case config.RelayDirect, "":
		return h, closeRelay, nil
	case config.BackendMemory:
		q = queue.NewMemoryEventQueue(cfg.Engine.EventQueueBuffer)
	case config.BackendRedis:
		var err error
		q, err = queue.NewRedisStreamEventQueue(ctx, rdb, cfg.Engine.StreamConsumerID, &queue.RedisStreamEventQueueConfig{
			ClaimMinIdleTime: cfg.Engine.StreamClaimMinIdle,
			MaxRetryCount:    cfg.Engine.StreamMaxRetry,
		})
		if err != nil {
			return nil, closeRelay, fmt.Errorf("init event stream: %w", err)
		}
		// 沒有固定 consumer id 時 group 只屬於這次啟動，關閉時移除
		if closer, ok := q.(interface{ Close(context.Context) error }); ok && cfg.Engine.StreamConsumerID == "" {
			closeRelay = func() {
				cctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := closer.Close(cctx); err != nil {
					logger.WithComponent("mq").Warn("destroy consumer group failed", zap.Error(err))
				}
			}
		}
	default:
		return nil, closeRelay, fmt.Errorf("unknown event relay %q", cfg.Engine.EventRelay)
	}

	if err := worker.NewEventWorker(h, q).Start(ctx); err != nil {
		return nil, closeRelay, fmt.Errorf("start event worker: %w", err)
	}
	return queue.NewNotifier(q), closeRelay, nil
}
