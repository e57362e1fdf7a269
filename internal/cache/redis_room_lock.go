package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "go-gin-qms/pkg/app_errors"
	"go-gin-qms/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

/*
*

	釋放鎖 (使用Lua腳本確保原子性)
	只有持有相同 token 的一方可以刪除，避免 TTL 過期後誤刪別人的鎖
*/
var releaseScript = redis.NewScript(`
	local lock_key = KEYS[1]
	local token = ARGV[1]

	if redis.call('GET', lock_key) == token then
		return redis.call('DEL', lock_key)
	end
	return 0
`)

// RedisRoomLockerConfig TTL 為鎖的最長持有時間；Wait 為取鎖最長等待時間
type RedisRoomLockerConfig struct {
	TTL          time.Duration
	Wait         time.Duration
	RetryBackoff time.Duration
}

func defaultRedisRoomLockerConfig() RedisRoomLockerConfig {
	return RedisRoomLockerConfig{
		TTL:          5 * time.Second,
		Wait:         2 * time.Second,
		RetryBackoff: 20 * time.Millisecond,
	}
}

// RedisRoomLocker 多個引擎實例共用的診間鎖
type RedisRoomLocker struct {
	client *redis.Client
	cfg    RedisRoomLockerConfig
}

// NewRedisRoomLocker config 可為 nil，則使用預設值
func NewRedisRoomLocker(client *redis.Client, config *RedisRoomLockerConfig) RoomLocker {
	cfg := defaultRedisRoomLockerConfig()
	if config != nil {
		if config.TTL > 0 {
			cfg.TTL = config.TTL
		}
		if config.Wait > 0 {
			cfg.Wait = config.Wait
		}
		if config.RetryBackoff > 0 {
			cfg.RetryBackoff = config.RetryBackoff
		}
	}
	return &RedisRoomLocker{client: client, cfg: cfg}
}

func (l *RedisRoomLocker) getLockKey(roomID string) string {
	return fmt.Sprintf("qms:room:%s:lock", roomID)
}

func (l *RedisRoomLocker) Lock(ctx context.Context, roomID string) (func(), error) {
	key := l.getLockKey(roomID)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.Wait)
	defer cancel()

	ticker := time.NewTicker(l.cfg.RetryBackoff)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.cfg.TTL).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("setnx room lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-waitCtx.Done():
			return nil, apperrors.ErrLockNotAcquired
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 請求 ctx 可能已取消，釋放鎖一律用 Background
			if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil {
				logger.WithComponent("lock").Error("release room lock failed", zap.String("room_id", roomID), zap.Error(err))
			}
		})
	}, nil
}
