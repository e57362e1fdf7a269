package model

// WaitingTicket 待叫號碼牌與預估叫號名次
type WaitingTicket struct {
	*Ticket
	EstimatedWaitPosition int `json:"estimated_wait_position"`
}

// RoomQueueState 單一診間的佇列狀態
type RoomQueueState struct {
	RoomID        string          `json:"room_id"`
	RoomCode      string          `json:"room_code"`
	RoomName      string          `json:"room_name"`
	ServiceID     string          `json:"service_id"`
	Policy        QueuePolicy     `json:"policy"`
	QueueLength   int             `json:"queue_length"`
	TotalPriority int             `json:"total_priority"`
	TotalNormal   int             `json:"total_normal"`
	CurrentTicket *Ticket         `json:"current_ticket,omitempty"`
	Waiting       []WaitingTicket `json:"waiting"`
}

// DeskState 叫號桌台畫面所需資料
type DeskState struct {
	RoomID        string          `json:"room_id"`
	RoomCode      string          `json:"room_code"`
	CurrentTicket *Ticket         `json:"current_ticket,omitempty"`
	Waiting       []WaitingTicket `json:"waiting"`
	Passed        []*Ticket       `json:"passed"`
	Done          []*Ticket       `json:"done"`
	WaitingCount  int             `json:"waiting_count"`
	PassedCount   int             `json:"passed_count"`
	DoneCount     int             `json:"done_count"`
}
