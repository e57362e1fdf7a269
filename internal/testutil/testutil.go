// Package testutil 提供整合測試用的 Postgres/Redis 連線，服務不存在時讓測試 skip。
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-gin-qms/config"
	"go-gin-qms/internal/database"
	"go-gin-qms/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Setup 連線測試 DB 並套用 schema
func Setup() (*pgxpool.Pool, func(), error) {
	cfg := config.LoadTestConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize test database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to migrate test database: %w", err)
	}
	return pool, pool.Close, nil
}

// SetupRedisOnly 僅初始化 Redis，用於只依賴 Redis 的測試
func SetupRedisOnly() (*redis.Client, func(), error) {
	cfg := config.LoadTestConfig()
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	cleanup := func() { _ = rdb.Close() }
	return rdb, cleanup, nil
}

// RequirePostgres 無法連線時 skip
func RequirePostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, cleanup, err := Setup()
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(cleanup)
	return pool
}

// RequireRedis 無法連線時 skip
func RequireRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb, cleanup, err := SetupRedisOnly()
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(cleanup)
	return rdb
}

// TruncateAll 清空 tickets/rooms/services
func TruncateAll(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), "TRUNCATE tickets, rooms, services")
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

// NewTicket 建立 Pending 號碼牌，issuedAt 以 base 加上 offset 分鐘
func NewTicket(number, roomID string, priority model.PriorityType, base time.Time, offsetMinutes int) *model.Ticket {
	return &model.Ticket{
		TicketID:     uuid.NewString(),
		TicketNumber: number,
		ServiceID:    "svc-1",
		RoomID:       roomID,
		Status:       model.TicketStatusPending,
		PriorityType: priority,
		IssuedAt:     base.Add(time.Duration(offsetMinutes) * time.Minute),
		Version:      1,
	}
}
