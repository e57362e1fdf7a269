package service

import (
	"context"
	"strings"
	"time"

	"go-gin-qms/internal/model"
	"go-gin-qms/internal/repository"
	apperrors "go-gin-qms/pkg/app_errors"
	"go-gin-qms/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketService interface {
	// 接收外部發號系統產生的號碼牌
	Admit(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	Get(ctx context.Context, ref string) (*model.Ticket, error)
}

type TicketServiceImpl struct {
	tickets  repository.TicketStore
	rooms    repository.RoomRepository
	notifier Notifier
	now      func() time.Time
}

func NewTicketService(tickets repository.TicketStore, rooms repository.RoomRepository, notifier Notifier) TicketService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &TicketServiceImpl{tickets: tickets, rooms: rooms, notifier: notifier, now: time.Now}
}

func (s *TicketServiceImpl) Admit(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	if ticket == nil {
		return nil, apperrors.ErrInvalidInput
	}
	t := ticket.Clone()
	t.TicketNumber = strings.TrimSpace(t.TicketNumber)
	if t.TicketNumber == "" || t.ServiceID == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if t.Status == "" {
		t.Status = model.TicketStatusPending
	}
	if t.Status != model.TicketStatusPending {
		return nil, apperrors.ErrInvalidTransition
	}
	if t.PriorityType == "" {
		t.PriorityType = model.PriorityNormal
	}
	if !t.PriorityType.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	if t.RoomID != "" {
		if _, err := s.rooms.GetRoom(ctx, t.RoomID); err != nil {
			return nil, err
		}
	}
	if t.TicketID == "" {
		t.TicketID = uuid.New().String()
	}
	if t.IssuedAt.IsZero() {
		t.IssuedAt = s.now().UTC()
	}
	t.DeskToken = ""
	t.CalledAt, t.ServedAt, t.CompletedAt = nil, nil, nil
	t.WaitTimeSeconds, t.ServiceTimeSeconds = nil, nil
	t.PassCount = 0
	t.Version = 1

	created, err := s.tickets.Insert(ctx, t)
	if err != nil {
		return nil, err
	}

	if created.RoomID != "" {
		payload, err := queueSnapshot(ctx, s.tickets, s.rooms, created.RoomID)
		if err != nil {
			logger.WithComponent("ticket").Warn("queue snapshot failed", zap.String("room_id", created.RoomID), zap.Error(err))
		} else {
			s.notifier.Notify(ctx, model.NewQueueUpdatedEvent(payload))
		}
	}
	logger.WithComponent("ticket").Info("ticket admitted",
		zap.String("ticket_number", created.TicketNumber),
		zap.String("room_id", created.RoomID),
		zap.String("priority_type", string(created.PriorityType)),
	)
	return created, nil
}

func (s *TicketServiceImpl) Get(ctx context.Context, ref string) (*model.Ticket, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, apperrors.ErrInvalidInput
	}
	return s.tickets.Get(ctx, ref)
}
