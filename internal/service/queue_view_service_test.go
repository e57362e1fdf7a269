package service_test

import (
	"context"
	"testing"
	"time"

	"go-gin-qms/internal/model"
	apperrors "go-gin-qms/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(waiting []model.WaitingTicket) []string {
	out := make([]string, 0, len(waiting))
	for _, w := range waiting {
		out = append(out, w.TicketNumber)
	}
	return out
}

func TestQueueView_RoomStateFollowsCallOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.StrategyInterleaved, 2)
	f.add(t, "P1", "r1", model.PriorityPriority, 0)
	f.add(t, "N1", "r1", model.PriorityNormal, 1)
	f.add(t, "N2", "r1", model.PriorityNormal, 2)
	f.add(t, "N3", "r1", model.PriorityNormal, 3)
	f.add(t, "P2", "r1", model.PriorityPriority, 4)

	state, err := f.view.RoomState(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "101", state.RoomCode)
	assert.Equal(t, model.StrategyInterleaved, state.Policy.Strategy)
	assert.Equal(t, 5, state.QueueLength)
	assert.Equal(t, 2, state.TotalPriority)
	assert.Equal(t, 3, state.TotalNormal)
	assert.Nil(t, state.CurrentTicket)
	assert.Equal(t, []string{"N1", "N2", "P1", "N3", "P2"}, numbers(state.Waiting))
	for i, w := range state.Waiting {
		assert.Equal(t, i+1, w.EstimatedWaitPosition)
	}

	// 估計順序要與實際叫號一致
	for _, want := range numbers(state.Waiting) {
		assert.Equal(t, want, f.callAndFinish(t, "r1", "desk-1"))
	}
}

func TestQueueView_CurrentTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.StrategyStrict, 0)
	f.add(t, "N1", "r1", model.PriorityNormal, 0)

	current, err := f.view.CurrentTicket(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = f.calling.CallNext(ctx, "r1", "desk-1")
	require.NoError(t, err)
	current, err = f.view.CurrentTicket(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "N1", current.TicketNumber)

	_, err = f.view.CurrentTicket(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestQueueView_DeskState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.StrategyStrict, 0)
	for i, n := range []string{"N1", "N2", "N3", "N4", "N5"} {
		f.add(t, n, "r1", model.PriorityNormal, i)
	}

	step := func(action string) {
		t.Helper()
		f.clock.Advance(time.Minute)
		result, err := f.calling.CallNext(ctx, "r1", "desk-1")
		require.NoError(t, err)
		switch action {
		case "pass":
			_, err = f.calling.Pass(ctx, result.Ticket.TicketID, "desk-1")
		case "done":
			_, err = f.calling.Done(ctx, result.Ticket.TicketID, "desk-1")
		}
		require.NoError(t, err)
	}
	step("pass") // N1
	step("done") // N2
	step("pass") // N3
	step("hold") // N4 留在 Calling

	desk, err := f.view.DeskState(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, desk.CurrentTicket)
	assert.Equal(t, "N4", desk.CurrentTicket.TicketNumber)
	assert.Equal(t, []string{"N5"}, numbers(desk.Waiting))
	require.Len(t, desk.Passed, 2)
	assert.Equal(t, "N3", desk.Passed[0].TicketNumber)
	assert.Equal(t, "N1", desk.Passed[1].TicketNumber)
	require.Len(t, desk.Done, 1)
	assert.Equal(t, "N2", desk.Done[0].TicketNumber)
	assert.Equal(t, 1, desk.WaitingCount)
	assert.Equal(t, 2, desk.PassedCount)
	assert.Equal(t, 1, desk.DoneCount)
}

func TestQueueView_AllRooms(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.StrategyStrict, 0)
	f.add(t, "A1", "r1", model.PriorityNormal, 0)
	f.add(t, "B1", "r2", model.PriorityNormal, 0)
	f.add(t, "B2", "r2", model.PriorityPriority, 1)

	states, err := f.view.AllRooms(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "r1", states[0].RoomID)
	assert.Equal(t, 1, states[0].QueueLength)
	assert.Equal(t, "r2", states[1].RoomID)
	assert.Equal(t, []string{"B2", "B1"}, numbers(states[1].Waiting))
}
