package service

import (
	"context"
	"sort"
	"time"

	"go-gin-qms/internal/model"
	"go-gin-qms/internal/repository"
	"go-gin-qms/internal/selector"
)

// QueueViewService 唯讀的診間佇列彙總，不修改任何號碼牌
type QueueViewService interface {
	RoomState(ctx context.Context, roomID string) (*model.RoomQueueState, error)
	CurrentTicket(ctx context.Context, roomID string) (*model.Ticket, error)
	ListQueue(ctx context.Context, roomID string) ([]model.WaitingTicket, error)
	DeskState(ctx context.Context, roomID string) (*model.DeskState, error)
	AllRooms(ctx context.Context) ([]*model.RoomQueueState, error)
}

type QueueViewServiceImpl struct {
	tickets       repository.TicketStore
	rooms         repository.RoomRepository
	defaultPolicy model.QueuePolicy
}

func NewQueueViewService(tickets repository.TicketStore, rooms repository.RoomRepository, defaultPolicy model.QueuePolicy) QueueViewService {
	return &QueueViewServiceImpl{tickets: tickets, rooms: rooms, defaultPolicy: normalizePolicy(defaultPolicy)}
}

// waiting 依模擬叫號順序排列待叫號碼
func (s *QueueViewServiceImpl) waiting(ctx context.Context, room *model.Room) ([]model.WaitingTicket, model.QueuePolicy, error) {
	pending, err := s.tickets.ListPending(ctx, room.RoomID)
	if err != nil {
		return nil, model.QueuePolicy{}, err
	}
	policy, err := resolvePolicy(ctx, s.rooms, room, s.defaultPolicy)
	if err != nil {
		return nil, model.QueuePolicy{}, err
	}
	order := selector.Order(pending, policy, room.NormalServedSinceLastPriority)
	waiting := make([]model.WaitingTicket, 0, len(order))
	for i, t := range order {
		waiting = append(waiting, model.WaitingTicket{Ticket: t, EstimatedWaitPosition: i + 1})
	}
	return waiting, policy, nil
}

func (s *QueueViewServiceImpl) RoomState(ctx context.Context, roomID string) (*model.RoomQueueState, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.roomState(ctx, room)
}

func (s *QueueViewServiceImpl) roomState(ctx context.Context, room *model.Room) (*model.RoomQueueState, error) {
	waiting, policy, err := s.waiting(ctx, room)
	if err != nil {
		return nil, err
	}
	current, err := s.tickets.CurrentServing(ctx, room.RoomID)
	if err != nil {
		return nil, err
	}
	state := &model.RoomQueueState{
		RoomID:        room.RoomID,
		RoomCode:      room.RoomCode,
		RoomName:      room.RoomName,
		ServiceID:     room.ServiceID,
		Policy:        policy,
		QueueLength:   len(waiting),
		CurrentTicket: current,
		Waiting:       waiting,
	}
	for _, w := range waiting {
		if w.IsPriority() {
			state.TotalPriority++
		} else {
			state.TotalNormal++
		}
	}
	return state, nil
}

func (s *QueueViewServiceImpl) CurrentTicket(ctx context.Context, roomID string) (*model.Ticket, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.tickets.CurrentServing(ctx, roomID)
}

func (s *QueueViewServiceImpl) ListQueue(ctx context.Context, roomID string) ([]model.WaitingTicket, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	waiting, _, err := s.waiting(ctx, room)
	return waiting, err
}

func (s *QueueViewServiceImpl) DeskState(ctx context.Context, roomID string) (*model.DeskState, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	waiting, _, err := s.waiting(ctx, room)
	if err != nil {
		return nil, err
	}
	all, err := s.tickets.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	state := &model.DeskState{
		RoomID:   room.RoomID,
		RoomCode: room.RoomCode,
		Waiting:  waiting,
		Passed:   []*model.Ticket{},
		Done:     []*model.Ticket{},
	}
	for _, t := range all {
		switch {
		case t.Status.IsActive():
			state.CurrentTicket = t
		case t.Status == model.TicketStatusPassed:
			state.Passed = append(state.Passed, t)
		case t.Status == model.TicketStatusDone:
			state.Done = append(state.Done, t)
		}
	}
	// 過號清單最近叫的在前
	sort.SliceStable(state.Passed, func(i, j int) bool {
		return lastCalled(state.Passed[i]).After(lastCalled(state.Passed[j]))
	})
	sort.SliceStable(state.Done, func(i, j int) bool {
		return lastCalled(state.Done[i]).After(lastCalled(state.Done[j]))
	})
	state.WaitingCount = len(state.Waiting)
	state.PassedCount = len(state.Passed)
	state.DoneCount = len(state.Done)
	return state, nil
}

func (s *QueueViewServiceImpl) AllRooms(ctx context.Context) ([]*model.RoomQueueState, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	states := make([]*model.RoomQueueState, 0, len(rooms))
	for _, room := range rooms {
		state, err := s.roomState(ctx, room)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

func lastCalled(t *model.Ticket) time.Time {
	switch {
	case t.CompletedAt != nil:
		return *t.CompletedAt
	case t.CalledAt != nil:
		return *t.CalledAt
	default:
		return t.IssuedAt
	}
}
