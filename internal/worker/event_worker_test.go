package worker_test

import (
	"context"
	"testing"
	"time"

	"go-gin-qms/internal/hub"
	"go-gin-qms/internal/model"
	"go-gin-qms/internal/queue"
	"go-gin-qms/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events chan model.Event
}

func (s *recordingSink) Notify(ctx context.Context, event model.Event) {
	s.events <- event
}

func TestEventWorker_ForwardsToSink(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryEventQueue(10)
	sink := &recordingSink{events: make(chan model.Event, 1)}
	w := worker.NewEventWorker(sink, q)
	require.NoError(t, w.Start(ctx))

	event := model.NewTVProfileUpdatedEvent("lobby")
	require.NoError(t, q.PublishEvent(ctx, &event))

	select {
	case got := <-sink.events:
		assert.Equal(t, event.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("worker did not forward the event")
	}

	cancel()
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestEventWorker_IntoHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.New(4)
	client := h.Connect("tv")
	require.NoError(t, h.Subscribe(client, "tv:lobby"))

	q := queue.NewMemoryEventQueue(10)
	require.NoError(t, worker.NewEventWorker(h, q).Start(ctx))

	queue.NewNotifier(q).Notify(ctx, model.NewTVProfileUpdatedEvent("lobby"))

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), `"TVProfileUpdated"`)
	case <-time.After(time.Second):
		t.Fatal("event did not reach hub client")
	}
}
