package service_test

import (
	"context"
	"testing"

	"go-gin-qms/internal/model"
	"go-gin-qms/internal/repository"
	"go-gin-qms/internal/service"
	apperrors "go-gin-qms/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService_SaveServiceAndRoom(t *testing.T) {
	ctx := context.Background()
	rooms := repository.NewMemoryRoomRepository()
	svc := service.NewRoomService(rooms, nil)

	saved, err := svc.SaveService(ctx, &model.Service{ServiceID: "lab", ServiceCode: "L"})
	require.NoError(t, err)
	assert.Equal(t, model.StrategyStrict, saved.PriorityStrategy)

	_, err = svc.SaveService(ctx, &model.Service{ServiceID: "x", ServiceCode: "X", PriorityStrategy: "random"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.SaveRoom(ctx, &model.Room{RoomID: "r9", RoomCode: "909", ServiceID: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrServiceNotFound)

	_, err = svc.SaveRoom(ctx, &model.Room{RoomID: "r9", RoomCode: "909", ServiceID: "lab", InterleaveInterval: -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	room, err := svc.SaveRoom(ctx, &model.Room{RoomID: "r9", RoomCode: "909", ServiceID: "lab", PriorityStrategy: model.StrategyInterleaved, InterleaveInterval: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(1), room.Version)

	list, err := svc.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "909", list[0].RoomCode)
}

func TestRoomService_RefreshTVProfile(t *testing.T) {
	ctx := context.Background()
	var got []model.Event
	svc := service.NewRoomService(repository.NewMemoryRoomRepository(), service.NotifierFunc(func(ctx context.Context, event model.Event) {
		got = append(got, event)
	}))

	assert.ErrorIs(t, svc.RefreshTVProfile(ctx, "  "), apperrors.ErrInvalidInput)
	assert.Empty(t, got)

	require.NoError(t, svc.RefreshTVProfile(ctx, "tv-lobby"))
	require.Len(t, got, 1)
	assert.Equal(t, model.EventTVProfileUpdated, got[0].Type)
	assert.Equal(t, []string{model.TVTopic("tv-lobby")}, got[0].Topics)
}
