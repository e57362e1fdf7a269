package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-gin-qms/internal/cache"
	"go-gin-qms/internal/model"
	"go-gin-qms/internal/repository"
	"go-gin-qms/internal/selector"
	apperrors "go-gin-qms/pkg/app_errors"
	"go-gin-qms/pkg/logger"

	"go.uber.org/zap"
)

type CallingService interface {
	// 叫下一號
	CallNext(ctx context.Context, roomID, deskToken string) (*model.CallResult, error)
	// 重新廣播診間目前的號碼
	Recall(ctx context.Context, roomID, deskToken string) (*model.CallResult, error)
	// 桌台確認病人到場：Calling → Serving
	StartServing(ctx context.Context, ticketID, deskToken string) (*model.Ticket, error)
	Pass(ctx context.Context, ticketID, deskToken string) (*model.Ticket, error)
	Done(ctx context.Context, ticketID, deskToken string) (*model.Ticket, error)
	ReturnToQueue(ctx context.Context, ticketID string) (*model.Ticket, error)
	TogglePriority(ctx context.Context, ticketID string) (*model.Ticket, error)
	Transfer(ctx context.Context, ticketID, newRoomID string) (*model.Ticket, error)
	Cancel(ctx context.Context, ticketID string) (*model.Ticket, error)
}

const DefaultInterleaveInterval = 5

type CallingServiceConfig struct {
	MaxAttempts   int
	DefaultPolicy model.QueuePolicy
	Now           func() time.Time
}

type CallingServiceImpl struct {
	tickets  repository.TicketStore
	rooms    repository.RoomRepository
	locker   cache.RoomLocker
	notifier Notifier
	cfg      CallingServiceConfig
}

func NewCallingService(
	tickets repository.TicketStore,
	rooms repository.RoomRepository,
	locker cache.RoomLocker,
	notifier Notifier,
	cfg CallingServiceConfig,
) CallingService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	cfg.DefaultPolicy = normalizePolicy(cfg.DefaultPolicy)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if locker == nil {
		locker = cache.NewLocalRoomLocker()
	}
	return &CallingServiceImpl{
		tickets:  tickets,
		rooms:    rooms,
		locker:   locker,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (s *CallingServiceImpl) now() time.Time {
	return s.cfg.Now().UTC()
}

// withRetry 版本衝突時從頭重新讀取再執行，超過次數回傳 ErrConflict
func (s *CallingServiceImpl) withRetry(ctx context.Context, op string, fn func() error) error {
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := fn()
		if !errors.Is(err, apperrors.ErrVersionConflict) {
			return err
		}
		logger.WithComponent("calling").Debug("version conflict, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
		)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	logger.WithComponent("calling").Warn("retries exhausted", zap.String("op", op), zap.Int("attempts", s.cfg.MaxAttempts))
	return apperrors.ErrConflict
}

func (s *CallingServiceImpl) policyFor(ctx context.Context, room *model.Room) (model.QueuePolicy, error) {
	return resolvePolicy(ctx, s.rooms, room, s.cfg.DefaultPolicy)
}

// resolvePolicy 只有服務項目不存在時才退回預設策略，其他讀取錯誤直接回傳
func resolvePolicy(ctx context.Context, rooms repository.RoomRepository, room *model.Room, fallback model.QueuePolicy) (model.QueuePolicy, error) {
	var svc *model.Service
	if room.ServiceID != "" {
		found, err := rooms.GetService(ctx, room.ServiceID)
		switch {
		case err == nil:
			svc = found
		case errors.Is(err, apperrors.ErrServiceNotFound):
		default:
			return model.QueuePolicy{}, fmt.Errorf("load service %s: %w", room.ServiceID, err)
		}
	}
	return model.EffectivePolicy(room, svc, fallback), nil
}

// normalizePolicy interval 小於 1 時 Interleaved 會退化成 Strict，改用預設間隔
func normalizePolicy(policy model.QueuePolicy) model.QueuePolicy {
	if !policy.Strategy.IsValid() {
		policy.Strategy = model.StrategyStrict
	}
	if policy.InterleaveInterval < 1 {
		policy.InterleaveInterval = DefaultInterleaveInterval
	}
	return policy
}

func (s *CallingServiceImpl) CallNext(ctx context.Context, roomID, deskToken string) (*model.CallResult, error) {
	if deskToken == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	result, err := s.callNextLocked(ctx, roomID, deskToken)
	if err != nil {
		s.logFailure("call_next", roomID, "", deskToken, err)
		return nil, err
	}

	t := result.Ticket
	s.notifier.Notify(ctx, model.NewTicketCalledEvent(model.TicketCalledPayload{
		TicketID:     t.TicketID,
		TicketNumber: t.TicketNumber,
		RoomID:       result.RoomID,
		RoomCode:     result.RoomCode,
		RoomName:     result.RoomName,
		PriorityType: t.PriorityType,
	}))
	s.notifier.Notify(ctx, model.NewQueueUpdatedEvent(model.QueueUpdatedPayload{
		RoomID:              result.RoomID,
		RoomCode:            result.RoomCode,
		QueueLength:         result.RemainingInQueue,
		CurrentTicketNumber: t.TicketNumber,
	}))
	logger.WithComponent("calling").Info("ticket called",
		zap.String("room_id", roomID),
		zap.String("ticket_number", t.TicketNumber),
		zap.String("priority_type", string(t.PriorityType)),
		zap.String("desk", deskToken),
		zap.Int("remaining", result.RemainingInQueue),
	)
	return result, nil
}

// callNextLocked 持有診間鎖完成 讀取 → 選號 → 認領；認領與計數器由 Claim 一起提交
func (s *CallingServiceImpl) callNextLocked(ctx context.Context, roomID, deskToken string) (*model.CallResult, error) {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *model.CallResult
	err = s.withRetry(ctx, "call_next", func() error {
		room, err := s.rooms.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		pending, err := s.tickets.ListPending(ctx, roomID)
		if err != nil {
			return err
		}
		policy, err := s.policyFor(ctx, room)
		if err != nil {
			return err
		}
		sel, ok := selector.Select(pending, policy, room.NormalServedSinceLastPriority)
		if !ok {
			return apperrors.ErrNoTicketsAvailable
		}
		active, err := s.tickets.CurrentServing(ctx, roomID)
		if err != nil {
			return err
		}
		if active != nil {
			return apperrors.ErrRoomBusy
		}

		candidate := sel.Ticket
		now := s.now()
		var counter *repository.CounterUpdate
		if sel.Counter != room.NormalServedSinceLastPriority {
			counter = &repository.CounterUpdate{
				RoomID:          roomID,
				ExpectedVersion: room.Version,
				Counter:         sel.Counter,
			}
		}
		claimed, err := s.tickets.Claim(ctx, candidate.TicketID, candidate.Version, func(t *model.Ticket) error {
			if t.RoomID != roomID {
				return apperrors.ErrVersionConflict
			}
			next, ok := t.Status.Next(model.ActionCall)
			if !ok {
				return apperrors.ErrInvalidTransition
			}
			t.Status = next
			t.DeskToken = deskToken
			t.CalledAt = &now
			t.ServedAt = nil
			if t.WaitTimeSeconds == nil {
				wait := int(now.Sub(t.IssuedAt).Seconds())
				if wait < 0 {
					wait = 0
				}
				t.WaitTimeSeconds = &wait
			}
			return nil
		}, counter)
		if err != nil {
			return err
		}

		result = &model.CallResult{
			Ticket:           claimed,
			RoomID:           room.RoomID,
			RoomCode:         room.RoomCode,
			RoomName:         room.RoomName,
			RemainingInQueue: len(pending) - 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *CallingServiceImpl) Recall(ctx context.Context, roomID, deskToken string) (*model.CallResult, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var recalled *model.Ticket
	err = s.withRetry(ctx, "recall", func() error {
		active, err := s.tickets.CurrentServing(ctx, roomID)
		if err != nil {
			return err
		}
		if active == nil {
			return apperrors.ErrNoActiveTicket
		}
		if active.DeskToken != deskToken {
			return apperrors.ErrNotOwner
		}
		now := s.now()
		recalled, err = s.tickets.CompareAndSwap(ctx, active.TicketID, active.Version, func(t *model.Ticket) error {
			next, ok := t.Status.Next(model.ActionRecall)
			if !ok {
				return apperrors.ErrInvalidTransition
			}
			t.Status = next
			t.CalledAt = &now
			t.ServedAt = nil
			return nil
		})
		return err
	})
	if err != nil {
		s.logFailure("recall", roomID, "", deskToken, err)
		return nil, err
	}

	remaining := 0
	if pending, err := s.tickets.ListPending(ctx, roomID); err == nil {
		remaining = len(pending)
	}

	s.notifier.Notify(ctx, model.NewTicketCalledEvent(model.TicketCalledPayload{
		TicketID:     recalled.TicketID,
		TicketNumber: recalled.TicketNumber,
		RoomID:       room.RoomID,
		RoomCode:     room.RoomCode,
		RoomName:     room.RoomName,
		PriorityType: recalled.PriorityType,
		IsRecall:     true,
	}))
	logger.WithComponent("calling").Info("ticket recalled",
		zap.String("room_id", roomID),
		zap.String("ticket_number", recalled.TicketNumber),
		zap.String("desk", deskToken),
	)
	return &model.CallResult{
		Ticket:           recalled,
		RoomID:           room.RoomID,
		RoomCode:         room.RoomCode,
		RoomName:         room.RoomName,
		RemainingInQueue: remaining,
		IsRecall:         true,
	}, nil
}

// transition 通用的單張號碼牌變更：讀取 → 檢查 → CAS，衝突時重來
func (s *CallingServiceImpl) transition(
	ctx context.Context,
	ticketID string,
	action model.TicketAction,
	guard func(t *model.Ticket) error,
	apply func(t *model.Ticket, now time.Time),
) (before, after *model.Ticket, err error) {
	err = s.withRetry(ctx, string(action), func() error {
		current, err := s.tickets.Get(ctx, ticketID)
		if err != nil {
			return err
		}
		if !current.Status.CanApply(action) {
			return apperrors.ErrInvalidTransition
		}
		if guard != nil {
			if err := guard(current); err != nil {
				return err
			}
		}
		now := s.now()
		updated, err := s.tickets.CompareAndSwap(ctx, current.TicketID, current.Version, func(t *model.Ticket) error {
			next, ok := t.Status.Next(action)
			if !ok {
				return apperrors.ErrInvalidTransition
			}
			if apply != nil {
				apply(t, now)
			}
			t.Status = next
			return nil
		})
		if err != nil {
			return err
		}
		before, after = current, updated
		return nil
	})
	return before, after, err
}

func ownedBy(deskToken string) func(t *model.Ticket) error {
	return func(t *model.Ticket) error {
		if !t.HeldBy(deskToken) {
			return apperrors.ErrNotOwner
		}
		return nil
	}
}

func (s *CallingServiceImpl) StartServing(ctx context.Context, ticketID, deskToken string) (*model.Ticket, error) {
	before, after, err := s.transition(ctx, ticketID, model.ActionServe, ownedBy(deskToken), func(t *model.Ticket, now time.Time) {
		t.ServedAt = &now
	})
	if err != nil {
		s.logFailure("serve", "", ticketID, deskToken, err)
		return nil, err
	}
	s.statusChanged(ctx, before, after)
	return after, nil
}

func (s *CallingServiceImpl) Pass(ctx context.Context, ticketID, deskToken string) (*model.Ticket, error) {
	before, after, err := s.transition(ctx, ticketID, model.ActionPass, ownedBy(deskToken), func(t *model.Ticket, now time.Time) {
		t.PassCount++
		t.DeskToken = ""
	})
	if err != nil {
		s.logFailure("pass", "", ticketID, deskToken, err)
		return nil, err
	}
	s.statusChanged(ctx, before, after)
	s.queueUpdated(ctx, after.RoomID)
	logger.WithComponent("calling").Info("ticket passed",
		zap.String("room_id", after.RoomID),
		zap.String("ticket_number", after.TicketNumber),
		zap.Int("pass_count", after.PassCount),
	)
	return after, nil
}

func (s *CallingServiceImpl) Done(ctx context.Context, ticketID, deskToken string) (*model.Ticket, error) {
	before, after, err := s.transition(ctx, ticketID, model.ActionDone, ownedBy(deskToken), func(t *model.Ticket, now time.Time) {
		t.CompletedAt = &now
		t.DeskToken = ""
		if t.ServedAt != nil {
			secs := int(now.Sub(*t.ServedAt).Seconds())
			t.ServiceTimeSeconds = &secs
		}
	})
	if err != nil {
		s.logFailure("done", "", ticketID, deskToken, err)
		return nil, err
	}
	s.statusChanged(ctx, before, after)
	s.queueUpdated(ctx, after.RoomID)
	logger.WithComponent("calling").Info("ticket done",
		zap.String("room_id", after.RoomID),
		zap.String("ticket_number", after.TicketNumber),
	)
	return after, nil
}

// ReturnToQueue IssuedAt 不變，所以回到原本在組內的位置
func (s *CallingServiceImpl) ReturnToQueue(ctx context.Context, ticketID string) (*model.Ticket, error) {
	_, after, err := s.transition(ctx, ticketID, model.ActionReturnToQueue, nil, func(t *model.Ticket, now time.Time) {
		t.DeskToken = ""
		t.CalledAt = nil
		t.ServedAt = nil
	})
	if err != nil {
		s.logFailure("return_to_queue", "", ticketID, "", err)
		return nil, err
	}
	s.queueUpdated(ctx, after.RoomID)
	return after, nil
}

func (s *CallingServiceImpl) TogglePriority(ctx context.Context, ticketID string) (*model.Ticket, error) {
	_, after, err := s.transition(ctx, ticketID, model.ActionTogglePriority, nil, func(t *model.Ticket, now time.Time) {
		t.PriorityType = t.PriorityType.Toggle()
	})
	if err != nil {
		s.logFailure("toggle_priority", "", ticketID, "", err)
		return nil, err
	}
	s.queueUpdated(ctx, after.RoomID)
	return after, nil
}

// Transfer 轉診：號碼不變、釋放桌台，以轉入時間排到新診間隊尾；兩邊的計數器都不動
func (s *CallingServiceImpl) Transfer(ctx context.Context, ticketID, newRoomID string) (*model.Ticket, error) {
	if newRoomID == "" {
		return nil, apperrors.ErrInvalidInput
	}
	target, err := s.rooms.GetRoom(ctx, newRoomID)
	if err != nil {
		return nil, err
	}

	guard := func(t *model.Ticket) error {
		if t.RoomID == newRoomID {
			return fmt.Errorf("ticket already in room %s: %w", newRoomID, apperrors.ErrInvalidInput)
		}
		return nil
	}
	before, after, err := s.transition(ctx, ticketID, model.ActionTransfer, guard, func(t *model.Ticket, now time.Time) {
		t.RoomID = target.RoomID
		if target.ServiceID != "" {
			t.ServiceID = target.ServiceID
		}
		t.DeskToken = ""
		t.CalledAt = nil
		t.ServedAt = nil
		t.IssuedAt = now
		// 新診間重新計算等候與服務時間
		t.WaitTimeSeconds = nil
		t.ServiceTimeSeconds = nil
	})
	if err != nil {
		s.logFailure("transfer", newRoomID, ticketID, "", err)
		return nil, err
	}

	if before.Status != after.Status {
		s.notifier.Notify(ctx, model.NewTicketStatusChangedEvent(model.TicketStatusChangedPayload{
			TicketID:     after.TicketID,
			TicketNumber: after.TicketNumber,
			RoomID:       before.RoomID,
			OldStatus:    before.Status,
			NewStatus:    after.Status,
		}))
	}
	if before.RoomID != "" {
		s.queueUpdated(ctx, before.RoomID)
	}
	s.queueUpdated(ctx, after.RoomID)
	logger.WithComponent("calling").Info("ticket transferred",
		zap.String("ticket_number", after.TicketNumber),
		zap.String("from_room", before.RoomID),
		zap.String("to_room", after.RoomID),
		zap.String("old_status", string(before.Status)),
	)
	return after, nil
}

func (s *CallingServiceImpl) Cancel(ctx context.Context, ticketID string) (*model.Ticket, error) {
	before, after, err := s.transition(ctx, ticketID, model.ActionCancel, nil, func(t *model.Ticket, now time.Time) {
		t.CompletedAt = &now
	})
	if err != nil {
		s.logFailure("cancel", "", ticketID, "", err)
		return nil, err
	}
	s.statusChanged(ctx, before, after)
	s.queueUpdated(ctx, after.RoomID)
	return after, nil
}

func (s *CallingServiceImpl) statusChanged(ctx context.Context, before, after *model.Ticket) {
	s.notifier.Notify(ctx, model.NewTicketStatusChangedEvent(model.TicketStatusChangedPayload{
		TicketID:     after.TicketID,
		TicketNumber: after.TicketNumber,
		RoomID:       after.RoomID,
		OldStatus:    before.Status,
		NewStatus:    after.Status,
	}))
}

// queueUpdated 重新讀取診間狀態後發出 QueueUpdated；讀取失敗只記錄，不影響已提交的變更
func (s *CallingServiceImpl) queueUpdated(ctx context.Context, roomID string) {
	if roomID == "" {
		return
	}
	payload, err := queueSnapshot(ctx, s.tickets, s.rooms, roomID)
	if err != nil {
		logger.WithComponent("calling").Warn("queue snapshot failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}
	s.notifier.Notify(ctx, model.NewQueueUpdatedEvent(payload))
}

func queueSnapshot(ctx context.Context, tickets repository.TicketStore, rooms repository.RoomRepository, roomID string) (model.QueueUpdatedPayload, error) {
	payload := model.QueueUpdatedPayload{RoomID: roomID}
	if room, err := rooms.GetRoom(ctx, roomID); err == nil {
		payload.RoomCode = room.RoomCode
	}
	pending, err := tickets.ListPending(ctx, roomID)
	if err != nil {
		return payload, err
	}
	payload.QueueLength = len(pending)
	current, err := tickets.CurrentServing(ctx, roomID)
	if err != nil {
		return payload, err
	}
	if current != nil {
		payload.CurrentTicketNumber = current.TicketNumber
	}
	return payload, nil
}

// logFailure 守衛錯誤記 Warn，其餘記 Error
func (s *CallingServiceImpl) logFailure(op, roomID, ticketID, deskToken string, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("room_id", roomID),
		zap.String("ticket_id", ticketID),
		zap.String("desk", deskToken),
		zap.Error(err),
	}
	if IsGuardError(err) {
		logger.WithComponent("calling").Warn("desk operation rejected", fields...)
		return
	}
	logger.WithComponent("calling").Error("desk operation failed", fields...)
}

// IsGuardError 呼叫端可預期的業務錯誤
func IsGuardError(err error) bool {
	for _, target := range []error{
		apperrors.ErrInvalidTransition,
		apperrors.ErrNotOwner,
		apperrors.ErrRoomBusy,
		apperrors.ErrNoTicketsAvailable,
		apperrors.ErrNoActiveTicket,
		apperrors.ErrConflict,
		apperrors.ErrTicketNotFound,
		apperrors.ErrRoomNotFound,
		apperrors.ErrInvalidInput,
		apperrors.ErrLockNotAcquired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
