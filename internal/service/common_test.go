package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-gin-qms/internal/cache"
	"go-gin-qms/internal/model"
	"go-gin-qms/internal/repository"
	"go-gin-qms/internal/service"
	"go-gin-qms/internal/testutil"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *eventRecorder) Notify(ctx context.Context, event model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) Types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]model.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func (r *eventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	tickets repository.TicketStore
	rooms   *repository.MemoryRoomRepository
	clock   *fakeClock
	events  *eventRecorder
	calling service.CallingService
	view    service.QueueViewService
}

// newFixture 建立 svc-1 與 r1、r2 兩個診間；strategy 套用在 svc-1
func newFixture(t *testing.T, strategy model.PriorityStrategy, interval int) *fixture {
	t.Helper()
	ctx := context.Background()
	rooms := repository.NewMemoryRoomRepository()
	f := &fixture{
		tickets: repository.NewMemoryTicketStore(rooms),
		rooms:   rooms,
		clock:   &fakeClock{now: base.Add(time.Hour)},
		events:  &eventRecorder{},
	}
	_, err := f.rooms.SaveService(ctx, &model.Service{
		ServiceID:          "svc-1",
		ServiceCode:        "A",
		PriorityStrategy:   strategy,
		InterleaveInterval: interval,
	})
	require.NoError(t, err)
	for _, room := range []*model.Room{
		{RoomID: "r1", RoomCode: "101", RoomName: "Room 101", ServiceID: "svc-1"},
		{RoomID: "r2", RoomCode: "102", RoomName: "Room 102", ServiceID: "svc-1"},
	} {
		_, err := f.rooms.SaveRoom(ctx, room)
		require.NoError(t, err)
	}

	f.calling = f.newCalling(f.tickets, f.rooms)
	f.view = service.NewQueueViewService(f.tickets, f.rooms, model.QueuePolicy{Strategy: model.StrategyStrict})
	return f
}

func (f *fixture) newCalling(tickets repository.TicketStore, rooms repository.RoomRepository) service.CallingService {
	return service.NewCallingService(tickets, rooms, cache.NewLocalRoomLocker(), f.events, service.CallingServiceConfig{
		MaxAttempts:   3,
		DefaultPolicy: model.QueuePolicy{Strategy: model.StrategyStrict, InterleaveInterval: 5},
		Now:           f.clock.Now,
	})
}

// add 新增 Pending 號碼牌，issuedAt = base + minute 分鐘
func (f *fixture) add(t *testing.T, number, roomID string, priority model.PriorityType, minute int) *model.Ticket {
	t.Helper()
	created, err := f.tickets.Insert(context.Background(), testutil.NewTicket(number, roomID, priority, base, minute))
	require.NoError(t, err)
	return created
}

func (f *fixture) get(t *testing.T, ref string) *model.Ticket {
	t.Helper()
	ticket, err := f.tickets.Get(context.Background(), ref)
	require.NoError(t, err)
	return ticket
}

// callAndFinish 叫號後立即完成，回傳叫到的號碼
func (f *fixture) callAndFinish(t *testing.T, roomID, desk string) string {
	t.Helper()
	ctx := context.Background()
	result, err := f.calling.CallNext(ctx, roomID, desk)
	require.NoError(t, err)
	_, err = f.calling.Done(ctx, result.Ticket.TicketID, desk)
	require.NoError(t, err)
	return result.Ticket.TicketNumber
}
