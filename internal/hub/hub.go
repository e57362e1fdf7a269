// Package hub 維護 topic 訂閱表並將事件推播給所有訂閱中的連線。
package hub

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"

	"go-gin-qms/internal/model"
	apperrors "go-gin-qms/pkg/app_errors"
	"go-gin-qms/pkg/logger"

	"go.uber.org/zap"
)

// Client 一條即時連線。Send 由 Hub 寫入、由傳輸層讀出，斷線時由 Hub 關閉
type Client struct {
	ID   string
	Send chan []byte

	topics map[string]struct{}
	closed bool
}

type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	topics     map[string]map[string]*Client
	bufferSize int
	dropped    atomic.Int64
}

func New(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		clients:    make(map[string]*Client),
		topics:     make(map[string]map[string]*Client),
		bufferSize: bufferSize,
	}
}

// Connect 註冊新連線
func (h *Hub) Connect(id string) *Client {
	client := &Client{
		ID:     id,
		Send:   make(chan []byte, h.bufferSize),
		topics: make(map[string]struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[id]; ok {
		h.removeLocked(old)
	}
	h.clients[id] = client
	return client
}

// Disconnect 移除連線與其所有訂閱，並關閉 Send
func (h *Hub) Disconnect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	if client.closed {
		return
	}
	for topic := range client.topics {
		h.leaveLocked(client, topic)
	}
	if current, ok := h.clients[client.ID]; ok && current == client {
		delete(h.clients, client.ID)
	}
	client.closed = true
	close(client.Send)
}

func (h *Hub) Subscribe(client *Client, topic string) error {
	if !model.ValidTopic(topic) {
		return apperrors.ErrInvalidTopic
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if client.closed {
		return apperrors.ErrInvalidInput
	}
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[string]*Client)
		h.topics[topic] = members
	}
	members[client.ID] = client
	client.topics[topic] = struct{}{}
	return nil
}

func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, topic)
}

func (h *Hub) leaveLocked(client *Client, topic string) {
	delete(client.topics, topic)
	members, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(members, client.ID)
	if len(members) == 0 {
		delete(h.topics, topic)
	}
}

// Publish 推送到單一 topic，回傳成功放入佇列的連線數
func (h *Hub) Publish(topic string, payload []byte) int {
	return h.deliver([]string{topic}, payload)
}

// Notify 將事件包成 envelope 後推送到事件的所有 topic，同一連線只收到一次
func (h *Hub) Notify(ctx context.Context, event model.Event) {
	payload, err := json.Marshal(event.Envelope())
	if err != nil {
		logger.WithComponent("hub").Error("marshal envelope failed", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	delivered := h.deliver(event.Topics, payload)
	logger.WithComponent("hub").Debug("event published",
		zap.String("type", string(event.Type)),
		zap.Strings("topics", event.Topics),
		zap.Int("delivered", delivered),
	)
}

func (h *Hub) deliver(topics []string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{})
	delivered := 0
	for _, topic := range topics {
		for id, client := range h.topics[topic] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			// 慢的連線直接丟棄，不阻塞叫號流程
			select {
			case client.Send <- payload:
				delivered++
			default:
				h.dropped.Add(1)
				logger.WithComponent("hub").Warn("drop message for slow client", zap.String("client_id", id), zap.String("topic", topic))
			}
		}
	}
	return delivered
}

// Topics 連線目前的訂閱
func (h *Hub) Topics(client *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	topics := make([]string, 0, len(client.topics))
	for topic := range client.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
