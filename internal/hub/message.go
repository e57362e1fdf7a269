package hub

import (
	"encoding/json"
	"strings"
)

const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// ControlMessage 連線端送來的訂閱指令 {"action":"join","topic":"room:1"}
type ControlMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Reply 對訂閱指令的回覆
type Reply struct {
	Type   string   `json:"type"`
	Action string   `json:"action,omitempty"`
	Topic  string   `json:"topic,omitempty"`
	Topics []string `json:"topics,omitempty"`
	Error  string   `json:"error,omitempty"`
}

func ParseControl(data []byte) (ControlMessage, bool) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ControlMessage{}, false
	}
	msg.Action = strings.ToLower(strings.TrimSpace(msg.Action))
	msg.Topic = strings.TrimSpace(msg.Topic)
	if msg.Action != ActionJoin && msg.Action != ActionLeave {
		return ControlMessage{}, false
	}
	return msg, true
}

// Handle 套用訂閱指令並產生回覆
func (h *Hub) Handle(client *Client, data []byte) Reply {
	msg, ok := ParseControl(data)
	if !ok {
		return Reply{Type: "error", Error: "unsupported message"}
	}
	switch msg.Action {
	case ActionJoin:
		if err := h.Subscribe(client, msg.Topic); err != nil {
			return Reply{Type: "error", Action: msg.Action, Topic: msg.Topic, Error: err.Error()}
		}
	case ActionLeave:
		h.Unsubscribe(client, msg.Topic)
	}
	return Reply{Type: "ack", Action: msg.Action, Topic: msg.Topic, Topics: h.Topics(client)}
}
