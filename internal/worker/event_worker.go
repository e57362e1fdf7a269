package worker

import (
	"context"

	"go-gin-qms/internal/model"
	"go-gin-qms/internal/queue"
	"go-gin-qms/pkg/logger"

	"go.uber.org/zap"
)

// Sink 接收從隊列取出的事件，通常是 hub
type Sink interface {
	Notify(ctx context.Context, event model.Event)
}

type EventWorker interface {
	// 訂閱事件隊列並轉送
	Start(ctx context.Context) error
}

type EventWorkerImpl struct {
	sink  Sink
	queue queue.EventQueue
	done  chan struct{}
}

func NewEventWorker(sink Sink, q queue.EventQueue) *EventWorkerImpl {
	return &EventWorkerImpl{
		sink:  sink,
		queue: q,
		done:  make(chan struct{}),
	}
}

func (w *EventWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeEvents(ctx)
	if err != nil {
		close(w.done)
		return err
	}

	go func() {
		defer close(w.done)
		for msg := range msgs {
			if msg.Data == nil {
				msg.Nack(false)
				continue
			}
			w.sink.Notify(ctx, *msg.Data)
			msg.Ack()
		}
		logger.WithComponent("worker").Info("event worker stopped")
	}()
	logger.WithComponent("worker").Info("event worker started", zap.String("queue", queueName(w.queue)))
	return nil
}

// Done 在訂閱 channel 關閉後關閉
func (w *EventWorkerImpl) Done() <-chan struct{} {
	return w.done
}

func queueName(q queue.EventQueue) string {
	switch q.(type) {
	case *queue.RedisStreamEventQueueImpl:
		return "redis-stream"
	case *queue.MemoryEventQueueImpl:
		return "memory"
	default:
		return "custom"
	}
}
