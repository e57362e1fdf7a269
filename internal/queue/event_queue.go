package queue

import (
	"context"

	"go-gin-qms/internal/model"
	apperrors "go-gin-qms/pkg/app_errors"
	"go-gin-qms/pkg/logger"

	"go.uber.org/zap"
)

type Delivery struct {
	Data *model.Event
	Ack  func()
	Nack func(requeue bool)
}

type EventQueue interface {
	// 發送事件到隊列
	PublishEvent(ctx context.Context, event *model.Event) error
	// 訂閱事件隊列
	SubscribeEvents(ctx context.Context) (<-chan Delivery, error)
}

type MemoryEventQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *model.Event
}

func NewMemoryEventQueue(bufferSize int) EventQueue {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &MemoryEventQueueImpl{
		ch: make(chan *model.Event, bufferSize),
	}
}

// PublishEvent 不阻塞，隊列滿時回傳 ErrEventQueueFull
func (q *MemoryEventQueueImpl) PublishEvent(ctx context.Context, event *model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- event:
		return nil
	default:
		return apperrors.ErrEventQueueFull
	}
}

func (q *MemoryEventQueueImpl) SubscribeEvents(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-q.ch:
				if !ok {
					return
				}
				d := Delivery{
					Data: event,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if !requeue {
							return
						}
						select {
						case q.ch <- event:
						default:
							logger.WithComponent("mq").Warn("requeue dropped, queue full", zap.String("event_id", event.ID))
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Notifier 把事件送進隊列，由 EventWorker 轉送到 hub
type Notifier struct {
	queue EventQueue
}

func NewNotifier(q EventQueue) *Notifier {
	return &Notifier{queue: q}
}

func (n *Notifier) Notify(ctx context.Context, event model.Event) {
	e := event
	if err := n.queue.PublishEvent(ctx, &e); err != nil {
		logger.WithComponent("mq").Error("publish event failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
