package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType 即時通知事件種類
type EventType string

const (
	EventTicketCalled        EventType = "TicketCalled"
	EventQueueUpdated        EventType = "QueueUpdated"
	EventTicketStatusChanged EventType = "TicketStatusChanged"
	EventTVProfileUpdated    EventType = "TVProfileUpdated"
)

// Topic 前綴與固定 topic
const (
	TopicRoomPrefix   = "room:"
	TopicTVPrefix     = "tv:"
	TopicKioskPrefix  = "kiosk:"
	TopicTicketPrefix = "ticket:"
	TopicDashboard    = "dashboard"
	TopicAllRooms     = "all-rooms"
)

func RoomTopic(roomID string) string { return TopicRoomPrefix + roomID }
func TVTopic(tvProfileID string) string { return TopicTVPrefix + tvProfileID }
func TicketTopic(ticketNumber string) string { return TopicTicketPrefix + ticketNumber }

// ValidTopic 檢查 topic 格式，帶前綴的 topic 必須有 id
func ValidTopic(topic string) bool {
	switch topic {
	case TopicDashboard, TopicAllRooms:
		return true
	}
	for _, prefix := range []string{TopicRoomPrefix, TopicTVPrefix, TopicKioskPrefix, TopicTicketPrefix} {
		if strings.HasPrefix(topic, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(topic, prefix)) != ""
		}
	}
	return false
}

type TicketCalledPayload struct {
	TicketID     string       `json:"ticket_id"`
	TicketNumber string       `json:"ticket_number"`
	RoomID       string       `json:"room_id"`
	RoomCode     string       `json:"room_code"`
	RoomName     string       `json:"room_name,omitempty"`
	PriorityType PriorityType `json:"priority_type"`
	IsRecall     bool         `json:"is_recall"`
}

type QueueUpdatedPayload struct {
	RoomID              string `json:"room_id"`
	RoomCode            string `json:"room_code,omitempty"`
	QueueLength         int    `json:"queue_length"`
	CurrentTicketNumber string `json:"current_ticket_number,omitempty"`
}

type TicketStatusChangedPayload struct {
	TicketID     string       `json:"ticket_id"`
	TicketNumber string       `json:"ticket_number"`
	RoomID       string       `json:"room_id,omitempty"`
	OldStatus    TicketStatus `json:"old_status"`
	NewStatus    TicketStatus `json:"new_status"`
}

type TVProfileUpdatedPayload struct {
	TVProfileID string `json:"tv_profile_id"`
}

// Event 發佈到 NotificationHub 的事件，Topics 決定推播對象
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Topics    []string        `json:"topics"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Envelope 推送給連線端的格式
type Envelope struct {
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e Event) Envelope() Envelope {
	return Envelope{Type: e.Type, Payload: e.Payload, CreatedAt: e.CreatedAt}
}

func newEvent(eventType EventType, payload interface{}, topics ...string) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		// payload 皆為本檔案定義的 struct，不會失敗
		panic(fmt.Sprintf("marshal %s payload: %v", eventType, err))
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Topics:    topics,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
}

func NewTicketCalledEvent(p TicketCalledPayload) Event {
	return newEvent(EventTicketCalled, p,
		RoomTopic(p.RoomID), TopicAllRooms, TopicDashboard, TicketTopic(p.TicketNumber))
}

func NewQueueUpdatedEvent(p QueueUpdatedPayload) Event {
	return newEvent(EventQueueUpdated, p,
		RoomTopic(p.RoomID), TopicAllRooms, TopicDashboard)
}

func NewTicketStatusChangedEvent(p TicketStatusChangedPayload) Event {
	topics := []string{TicketTopic(p.TicketNumber), TopicAllRooms, TopicDashboard}
	if p.RoomID != "" {
		topics = append(topics, RoomTopic(p.RoomID))
	}
	return newEvent(EventTicketStatusChanged, p, topics...)
}

func NewTVProfileUpdatedEvent(tvProfileID string) Event {
	return newEvent(EventTVProfileUpdated, TVProfileUpdatedPayload{TVProfileID: tvProfileID}, TVTopic(tvProfileID))
}
