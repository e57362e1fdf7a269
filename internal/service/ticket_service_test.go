package service_test

import (
	"context"
	"testing"

	"go-gin-qms/internal/model"
	"go-gin-qms/internal/service"
	apperrors "go-gin-qms/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketService_Admit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.StrategyStrict, 0)
	tickets := service.NewTicketService(f.tickets, f.rooms, f.events)

	created, err := tickets.Admit(ctx, &model.Ticket{
		TicketNumber: " A001 ",
		ServiceID:    "svc-1",
		RoomID:       "r1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.TicketID)
	assert.Equal(t, "A001", created.TicketNumber)
	assert.Equal(t, model.TicketStatusPending, created.Status)
	assert.Equal(t, model.PriorityNormal, created.PriorityType)
	assert.False(t, created.IssuedAt.IsZero())
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, []model.EventType{model.EventQueueUpdated}, f.events.Types())

	got, err := tickets.Get(ctx, "A001")
	require.NoError(t, err)
	assert.Equal(t, created.TicketID, got.TicketID)

	_, err = tickets.Admit(ctx, &model.Ticket{TicketNumber: "A001", ServiceID: "svc-1", RoomID: "r1"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateTicket)
}

func TestTicketService_AdmitRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.StrategyStrict, 0)
	tickets := service.NewTicketService(f.tickets, f.rooms, f.events)

	cases := []struct {
		name   string
		ticket *model.Ticket
		want   error
	}{
		{"nil", nil, apperrors.ErrInvalidInput},
		{"no_number", &model.Ticket{ServiceID: "svc-1"}, apperrors.ErrInvalidInput},
		{"no_service", &model.Ticket{TicketNumber: "A1"}, apperrors.ErrInvalidInput},
		{"bad_priority", &model.Ticket{TicketNumber: "A1", ServiceID: "svc-1", PriorityType: "vip"}, apperrors.ErrInvalidInput},
		{"not_pending", &model.Ticket{TicketNumber: "A1", ServiceID: "svc-1", Status: model.TicketStatusDone}, apperrors.ErrInvalidTransition},
		{"unknown_room", &model.Ticket{TicketNumber: "A1", ServiceID: "svc-1", RoomID: "nope"}, apperrors.ErrRoomNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tickets.Admit(ctx, tc.ticket)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.events.Types())

	_, err := tickets.Get(ctx, " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTicketService_AdmittedTicketIsCallable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.StrategyStrict, 0)
	tickets := service.NewTicketService(f.tickets, f.rooms, nil)

	_, err := tickets.Admit(ctx, &model.Ticket{
		TicketNumber: "P001",
		ServiceID:    "svc-1",
		RoomID:       "r1",
		PriorityType: model.PriorityPriority,
		IssuedAt:     base,
	})
	require.NoError(t, err)

	result, err := f.calling.CallNext(ctx, "r1", "desk-1")
	require.NoError(t, err)
	assert.Equal(t, "P001", result.Ticket.TicketNumber)
}
