package cache

import (
	"context"
	"sync"

	apperrors "go-gin-qms/pkg/app_errors"
)

// RoomLocker 序列化同一診間的叫號流程；不同診間互不影響
type RoomLocker interface {
	// Lock 取得診間鎖，回傳的 unlock 必須呼叫且只呼叫一次
	Lock(ctx context.Context, roomID string) (unlock func(), err error)
}

// LocalRoomLocker 單一程序內的診間鎖。每個診間一個容量為 1 的 channel，取鎖可被 ctx 取消
type LocalRoomLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalRoomLocker() RoomLocker {
	return &LocalRoomLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalRoomLocker) slot(roomID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[roomID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[roomID] = ch
	}
	return ch
}

func (l *LocalRoomLocker) Lock(ctx context.Context, roomID string) (func(), error) {
	ch := l.slot(roomID)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, apperrors.ErrLockNotAcquired
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}
