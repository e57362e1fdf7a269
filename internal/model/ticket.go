package model

import "time"

// TicketStatus 號碼牌狀態類型
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusCalling   TicketStatus = "calling"
	TicketStatusServing   TicketStatus = "serving"
	TicketStatusDone      TicketStatus = "done"
	TicketStatusPassed    TicketStatus = "passed"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// IsValid 驗證狀態是否有效
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusPending, TicketStatusCalling, TicketStatusServing,
		TicketStatusDone, TicketStatusPassed, TicketStatusCancelled:
		return true
	}
	return false
}

// IsTerminal Done 與 Cancelled 之後不再變動
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusDone || s == TicketStatusCancelled
}

// IsActive 佔用診間叫號位
func (s TicketStatus) IsActive() bool {
	return s == TicketStatusCalling || s == TicketStatusServing
}

// TicketAction 觸發狀態轉換的桌台動作
type TicketAction string

const (
	ActionCall           TicketAction = "call"
	ActionRecall         TicketAction = "recall"
	ActionServe          TicketAction = "serve"
	ActionDone           TicketAction = "done"
	ActionPass           TicketAction = "pass"
	ActionReturnToQueue  TicketAction = "return_to_queue"
	ActionTogglePriority TicketAction = "toggle_priority"
	ActionTransfer       TicketAction = "transfer"
	ActionCancel         TicketAction = "cancel"
)

var transitions = map[TicketAction]struct {
	from []TicketStatus
	to   TicketStatus
}{
	ActionCall:           {from: []TicketStatus{TicketStatusPending}, to: TicketStatusCalling},
	ActionRecall:         {from: []TicketStatus{TicketStatusCalling, TicketStatusServing}, to: TicketStatusCalling},
	ActionServe:          {from: []TicketStatus{TicketStatusCalling}, to: TicketStatusServing},
	ActionDone:           {from: []TicketStatus{TicketStatusCalling, TicketStatusServing}, to: TicketStatusDone},
	ActionPass:           {from: []TicketStatus{TicketStatusCalling, TicketStatusServing}, to: TicketStatusPassed},
	ActionReturnToQueue:  {from: []TicketStatus{TicketStatusPassed}, to: TicketStatusPending},
	ActionTogglePriority: {from: []TicketStatus{TicketStatusPending}, to: TicketStatusPending},
	ActionTransfer:       {from: []TicketStatus{TicketStatusPending, TicketStatusCalling, TicketStatusServing}, to: TicketStatusPending},
	ActionCancel:         {from: []TicketStatus{TicketStatusPending}, to: TicketStatusCancelled},
}

// Next 回傳執行 action 後的狀態；不允許的轉換回傳 false
func (s TicketStatus) Next(action TicketAction) (TicketStatus, bool) {
	edge, ok := transitions[action]
	if !ok {
		return s, false
	}
	for _, from := range edge.from {
		if from == s {
			return edge.to, true
		}
	}
	return s, false
}

// CanApply 檢查是否可以在目前狀態執行 action
func (s TicketStatus) CanApply(action TicketAction) bool {
	_, ok := s.Next(action)
	return ok
}

// PriorityType 號碼牌優先類別
type PriorityType string

const (
	PriorityNormal   PriorityType = "normal"
	PriorityPriority PriorityType = "priority"
)

func (p PriorityType) IsValid() bool {
	return p == PriorityNormal || p == PriorityPriority
}

// Toggle Normal 與 Priority 互換
func (p PriorityType) Toggle() PriorityType {
	if p == PriorityPriority {
		return PriorityNormal
	}
	return PriorityPriority
}

// Ticket 號碼牌模型
type Ticket struct {
	TicketID     string       `json:"ticket_id" db:"ticket_id"`
	TicketNumber string       `json:"ticket_number" db:"ticket_number"`
	ServiceID    string       `json:"service_id" db:"service_id"`
	RoomID       string       `json:"room_id,omitempty" db:"room_id"`
	Status       TicketStatus `json:"status" db:"status"`
	PriorityType PriorityType `json:"priority_type" db:"priority_type"`
	IssuedAt     time.Time    `json:"issued_at" db:"issued_at"`
	CalledAt     *time.Time   `json:"called_at,omitempty" db:"called_at"`
	ServedAt     *time.Time   `json:"served_at,omitempty" db:"served_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	DeskToken    string       `json:"desk_token,omitempty" db:"desk_token"`
	Version      int64        `json:"version" db:"version"`
	PassCount    int          `json:"pass_count" db:"pass_count"`

	WaitTimeSeconds    *int `json:"wait_time_seconds,omitempty" db:"wait_time_seconds"`
	ServiceTimeSeconds *int `json:"service_time_seconds,omitempty" db:"service_time_seconds"`
}

// Clone 深拷貝，避免呼叫端透過指標改到 store 內的資料
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.CalledAt = cloneTime(t.CalledAt)
	c.ServedAt = cloneTime(t.ServedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.WaitTimeSeconds = cloneInt(t.WaitTimeSeconds)
	c.ServiceTimeSeconds = cloneInt(t.ServiceTimeSeconds)
	return &c
}

// HeldBy 檢查號碼牌是否由該桌台持有
func (t *Ticket) HeldBy(deskToken string) bool {
	return t.Status.IsActive() && t.DeskToken != "" && t.DeskToken == deskToken
}

func (t *Ticket) IsPriority() bool {
	return t.PriorityType == PriorityPriority
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// CallResult 叫號結果
type CallResult struct {
	Ticket           *Ticket `json:"ticket"`
	RoomID           string  `json:"room_id"`
	RoomCode         string  `json:"room_code"`
	RoomName         string  `json:"room_name"`
	RemainingInQueue int     `json:"remaining_in_queue"`
	IsRecall         bool    `json:"is_recall"`
}
