package repository

import (
	"context"
	"sort"
	"sync"

	"go-gin-qms/internal/model"
	apperrors "go-gin-qms/pkg/app_errors"
)

type MemoryRoomRepository struct {
	mu       sync.RWMutex
	rooms    map[string]*model.Room
	services map[string]*model.Service
}

func NewMemoryRoomRepository() *MemoryRoomRepository {
	return &MemoryRoomRepository{
		rooms:    make(map[string]*model.Room),
		services: make(map[string]*model.Service),
	}
}

func (r *MemoryRoomRepository) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (r *MemoryRoomRepository) ListRooms(ctx context.Context) ([]*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*model.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room.Clone())
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomCode < rooms[j].RoomCode })
	return rooms, nil
}

func (r *MemoryRoomRepository) GetService(ctx context.Context, serviceID string) (*model.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[serviceID]
	if !ok {
		return nil, apperrors.ErrServiceNotFound
	}
	c := *svc
	return &c, nil
}

func (r *MemoryRoomRepository) SaveRoom(ctx context.Context, room *model.Room) (*model.Room, error) {
	if room.RoomID == "" {
		return nil, apperrors.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := room.Clone()
	if existing, ok := r.rooms[room.RoomID]; ok {
		// 設定更新不覆蓋計數器
		stored.NormalServedSinceLastPriority = existing.NormalServedSinceLastPriority
		stored.Version = existing.Version + 1
	} else if stored.Version == 0 {
		stored.Version = 1
	}
	r.rooms[stored.RoomID] = stored
	return stored.Clone(), nil
}

func (r *MemoryRoomRepository) SaveService(ctx context.Context, service *model.Service) (*model.Service, error) {
	if service.ServiceID == "" {
		return nil, apperrors.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *service
	r.services[c.ServiceID] = &c
	out := c
	return &out, nil
}

// applyCounterLocked 呼叫端必須持有 r.mu
func (r *MemoryRoomRepository) applyCounterLocked(update *CounterUpdate) error {
	room, ok := r.rooms[update.RoomID]
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	if room.Version != update.ExpectedVersion {
		return apperrors.ErrVersionConflict
	}
	next := room.Clone()
	next.NormalServedSinceLastPriority = update.Counter
	next.Version++
	r.rooms[update.RoomID] = next
	return nil
}
