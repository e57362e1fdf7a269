package mocks

import (
	"context"

	"go-gin-qms/internal/model"

	"github.com/stretchr/testify/mock"
)

type TicketServiceMock struct {
	mock.Mock
}

func NewTicketServiceMock() *TicketServiceMock {
	return &TicketServiceMock{}
}

func (m *TicketServiceMock) Admit(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) Get(ctx context.Context, ref string) (*model.Ticket, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

type RoomServiceMock struct {
	mock.Mock
}

func NewRoomServiceMock() *RoomServiceMock {
	return &RoomServiceMock{}
}

func (m *RoomServiceMock) SaveService(ctx context.Context, svc *model.Service) (*model.Service, error) {
	args := m.Called(ctx, svc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *RoomServiceMock) SaveRoom(ctx context.Context, room *model.Room) (*model.Room, error) {
	args := m.Called(ctx, room)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *RoomServiceMock) ListRooms(ctx context.Context) ([]*model.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Room), args.Error(1)
}

func (m *RoomServiceMock) RefreshTVProfile(ctx context.Context, tvProfileID string) error {
	return m.Called(ctx, tvProfileID).Error(0)
}

type QueueViewServiceMock struct {
	mock.Mock
}

func NewQueueViewServiceMock() *QueueViewServiceMock {
	return &QueueViewServiceMock{}
}

func (m *QueueViewServiceMock) RoomState(ctx context.Context, roomID string) (*model.RoomQueueState, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RoomQueueState), args.Error(1)
}

func (m *QueueViewServiceMock) CurrentTicket(ctx context.Context, roomID string) (*model.Ticket, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *QueueViewServiceMock) ListQueue(ctx context.Context, roomID string) ([]model.WaitingTicket, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WaitingTicket), args.Error(1)
}

func (m *QueueViewServiceMock) DeskState(ctx context.Context, roomID string) (*model.DeskState, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeskState), args.Error(1)
}

func (m *QueueViewServiceMock) AllRooms(ctx context.Context) ([]*model.RoomQueueState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RoomQueueState), args.Error(1)
}
