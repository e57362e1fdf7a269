package repository

import (
	"context"
	"sort"
	"sync"

	"go-gin-qms/internal/model"
	apperrors "go-gin-qms/pkg/app_errors"
)

// MemoryTicketStore 單一程序內的 TicketStore，適合單機部署與測試。
// Claim 需要同時寫入 rooms 的計數器，鎖順序固定為 s.mu → rooms.mu
type MemoryTicketStore struct {
	mu       sync.RWMutex
	tickets  map[string]*model.Ticket
	byNumber map[string]string
	rooms    *MemoryRoomRepository
}

func NewMemoryTicketStore(rooms *MemoryRoomRepository) *MemoryTicketStore {
	return &MemoryTicketStore{
		tickets:  make(map[string]*model.Ticket),
		byNumber: make(map[string]string),
		rooms:    rooms,
	}
}

func (s *MemoryTicketStore) Insert(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byNumber[ticket.TicketNumber]; ok {
		return nil, apperrors.ErrDuplicateTicket
	}
	if _, ok := s.tickets[ticket.TicketID]; ok {
		return nil, apperrors.ErrDuplicateTicket
	}
	stored := ticket.Clone()
	s.tickets[stored.TicketID] = stored
	s.byNumber[stored.TicketNumber] = stored.TicketID
	return stored.Clone(), nil
}

func (s *MemoryTicketStore) Get(ctx context.Context, ref string) (*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.lookup(ref)
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryTicketStore) lookup(ref string) (*model.Ticket, bool) {
	if t, ok := s.tickets[ref]; ok {
		return t, true
	}
	if id, ok := s.byNumber[ref]; ok {
		t, ok := s.tickets[id]
		return t, ok
	}
	return nil, false
}

func (s *MemoryTicketStore) ListPending(ctx context.Context, roomID string) ([]*model.Ticket, error) {
	return s.list(roomID, func(t *model.Ticket) bool { return t.Status == model.TicketStatusPending }), nil
}

func (s *MemoryTicketStore) ListByRoom(ctx context.Context, roomID string) ([]*model.Ticket, error) {
	return s.list(roomID, func(*model.Ticket) bool { return true }), nil
}

func (s *MemoryTicketStore) list(roomID string, keep func(*model.Ticket) bool) []*model.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make([]*model.Ticket, 0)
	for _, t := range s.tickets {
		if t.RoomID == roomID && keep(t) {
			tickets = append(tickets, t.Clone())
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].IssuedAt.Equal(tickets[j].IssuedAt) {
			return tickets[i].IssuedAt.Before(tickets[j].IssuedAt)
		}
		return tickets[i].TicketNumber < tickets[j].TicketNumber
	})
	return tickets
}

func (s *MemoryTicketStore) CurrentServing(ctx context.Context, roomID string) (*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tickets {
		if t.RoomID == roomID && t.Status.IsActive() {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

func (s *MemoryTicketStore) CompareAndSwap(ctx context.Context, ticketID string, expectedVersion int64, mutate Mutation) (*model.Ticket, error) {
	return s.Claim(ctx, ticketID, expectedVersion, mutate, nil)
}

func (s *MemoryTicketStore) Claim(ctx context.Context, ticketID string, expectedVersion int64, mutate Mutation, counter *CounterUpdate) (*model.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tickets[ticketID]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	if current.Version != expectedVersion {
		return nil, apperrors.ErrVersionConflict
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	// 識別欄位不可變
	next.TicketID = current.TicketID
	next.TicketNumber = current.TicketNumber
	next.Version = current.Version + 1

	if counter != nil {
		if s.rooms == nil {
			return nil, apperrors.ErrRoomNotFound
		}
		s.rooms.mu.Lock()
		defer s.rooms.mu.Unlock()
		if err := s.rooms.applyCounterLocked(counter); err != nil {
			return nil, err
		}
	}

	s.tickets[ticketID] = next
	return next.Clone(), nil
}
