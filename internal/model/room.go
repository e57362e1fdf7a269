package model

// PriorityStrategy 優先號與一般號的叫號策略
type PriorityStrategy string

const (
	StrategyStrict      PriorityStrategy = "strict"
	StrategyInterleaved PriorityStrategy = "interleaved"
)

func (s PriorityStrategy) IsValid() bool {
	return s == StrategyStrict || s == StrategyInterleaved
}

// Service 服務項目，提供預設叫號策略
type Service struct {
	ServiceID          string           `json:"service_id" db:"service_id"`
	ServiceCode        string           `json:"service_code" db:"service_code"`
	ServiceName        string           `json:"service_name" db:"service_name"`
	PriorityStrategy   PriorityStrategy `json:"priority_strategy" db:"priority_strategy"`
	InterleaveInterval int              `json:"interleave_interval" db:"interleave_interval"`
}

// Room 診間。PriorityStrategy 為空、InterleaveInterval 為 0 時沿用 Service 設定
type Room struct {
	RoomID             string           `json:"room_id" db:"room_id"`
	RoomCode           string           `json:"room_code" db:"room_code"`
	RoomName           string           `json:"room_name" db:"room_name"`
	ServiceID          string           `json:"service_id" db:"service_id"`
	PriorityStrategy   PriorityStrategy `json:"priority_strategy,omitempty" db:"priority_strategy"`
	InterleaveInterval int              `json:"interleave_interval,omitempty" db:"interleave_interval"`

	// 上次叫優先號後已叫的一般號數量，與房間紀錄一起持久化
	NormalServedSinceLastPriority int   `json:"normal_served_since_last_priority" db:"normal_since_priority"`
	Version                       int64 `json:"version" db:"version"`
}

// QueuePolicy 實際生效的叫號策略
type QueuePolicy struct {
	Strategy           PriorityStrategy `json:"strategy"`
	InterleaveInterval int              `json:"interleave_interval"`
}

// EffectivePolicy Room 覆寫 > Service 預設 > 系統預設
func EffectivePolicy(room *Room, service *Service, fallback QueuePolicy) QueuePolicy {
	policy := fallback
	if service != nil {
		if service.PriorityStrategy.IsValid() {
			policy.Strategy = service.PriorityStrategy
		}
		if service.InterleaveInterval > 0 {
			policy.InterleaveInterval = service.InterleaveInterval
		}
	}
	if room != nil {
		if room.PriorityStrategy.IsValid() {
			policy.Strategy = room.PriorityStrategy
		}
		if room.InterleaveInterval > 0 {
			policy.InterleaveInterval = room.InterleaveInterval
		}
	}
	return policy
}

func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
