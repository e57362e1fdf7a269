package mocks

import (
	"context"

	"go-gin-qms/internal/model"

	"github.com/stretchr/testify/mock"
)

type CallingServiceMock struct {
	mock.Mock
}

func NewCallingServiceMock() *CallingServiceMock {
	return &CallingServiceMock{}
}

func (m *CallingServiceMock) callResult(args mock.Arguments) (*model.CallResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CallResult), args.Error(1)
}

func (m *CallingServiceMock) ticket(args mock.Arguments) (*model.Ticket, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *CallingServiceMock) CallNext(ctx context.Context, roomID, deskToken string) (*model.CallResult, error) {
	return m.callResult(m.Called(ctx, roomID, deskToken))
}

func (m *CallingServiceMock) Recall(ctx context.Context, roomID, deskToken string) (*model.CallResult, error) {
	return m.callResult(m.Called(ctx, roomID, deskToken))
}

func (m *CallingServiceMock) StartServing(ctx context.Context, ticketID, deskToken string) (*model.Ticket, error) {
	return m.ticket(m.Called(ctx, ticketID, deskToken))
}

func (m *CallingServiceMock) Pass(ctx context.Context, ticketID, deskToken string) (*model.Ticket, error) {
	return m.ticket(m.Called(ctx, ticketID, deskToken))
}

func (m *CallingServiceMock) Done(ctx context.Context, ticketID, deskToken string) (*model.Ticket, error) {
	return m.ticket(m.Called(ctx, ticketID, deskToken))
}

func (m *CallingServiceMock) ReturnToQueue(ctx context.Context, ticketID string) (*model.Ticket, error) {
	return m.ticket(m.Called(ctx, ticketID))
}

func (m *CallingServiceMock) TogglePriority(ctx context.Context, ticketID string) (*model.Ticket, error) {
	return m.ticket(m.Called(ctx, ticketID))
}

func (m *CallingServiceMock) Transfer(ctx context.Context, ticketID, newRoomID string) (*model.Ticket, error) {
	return m.ticket(m.Called(ctx, ticketID, newRoomID))
}

func (m *CallingServiceMock) Cancel(ctx context.Context, ticketID string) (*model.Ticket, error) {
	return m.ticket(m.Called(ctx, ticketID))
}
