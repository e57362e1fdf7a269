package service

import (
	"context"
	"strings"

	"go-gin-qms/internal/model"
	"go-gin-qms/internal/repository"
	apperrors "go-gin-qms/pkg/app_errors"
)

// RoomService 診間與服務項目的設定，以及電視看板刷新
type RoomService interface {
	SaveService(ctx context.Context, svc *model.Service) (*model.Service, error)
	SaveRoom(ctx context.Context, room *model.Room) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	RefreshTVProfile(ctx context.Context, tvProfileID string) error
}

type RoomServiceImpl struct {
	rooms    repository.RoomRepository
	notifier Notifier
}

func NewRoomService(rooms repository.RoomRepository, notifier Notifier) RoomService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &RoomServiceImpl{rooms: rooms, notifier: notifier}
}

func (s *RoomServiceImpl) SaveService(ctx context.Context, svc *model.Service) (*model.Service, error) {
	if svc == nil || svc.ServiceID == "" || svc.ServiceCode == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if svc.PriorityStrategy == "" {
		svc.PriorityStrategy = model.StrategyStrict
	}
	if !svc.PriorityStrategy.IsValid() || svc.InterleaveInterval < 0 {
		return nil, apperrors.ErrInvalidInput
	}
	return s.rooms.SaveService(ctx, svc)
}

func (s *RoomServiceImpl) SaveRoom(ctx context.Context, room *model.Room) (*model.Room, error) {
	if room == nil || room.RoomID == "" || room.RoomCode == "" || room.ServiceID == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if room.PriorityStrategy != "" && !room.PriorityStrategy.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	if room.InterleaveInterval < 0 {
		return nil, apperrors.ErrInvalidInput
	}
	if _, err := s.rooms.GetService(ctx, room.ServiceID); err != nil {
		return nil, err
	}
	return s.rooms.SaveRoom(ctx, room)
}

func (s *RoomServiceImpl) ListRooms(ctx context.Context) ([]*model.Room, error) {
	return s.rooms.ListRooms(ctx)
}

func (s *RoomServiceImpl) RefreshTVProfile(ctx context.Context, tvProfileID string) error {
	tvProfileID = strings.TrimSpace(tvProfileID)
	if tvProfileID == "" {
		return apperrors.ErrInvalidInput
	}
	s.notifier.Notify(ctx, model.NewTVProfileUpdatedEvent(tvProfileID))
	return nil
}
