// Package selector 決定診間下一個要叫的號碼牌。
//
// 所有函式都是純函式：相同的待叫清單、策略與計數器永遠得到相同結果，
// 計數器狀態由呼叫端（CallingService）持有並持久化。
package selector

import (
	"sort"

	"go-gin-qms/internal/model"
)

// Selection 選號結果，Counter 為選號後的新計數器值
type Selection struct {
	Ticket  *model.Ticket
	Counter int
}

// Partition 依優先類別分組，組內維持 IssuedAt 先後
func Partition(pending []*model.Ticket) (priority, normal []*model.Ticket) {
	ordered := make([]*model.Ticket, 0, len(pending))
	for _, t := range pending {
		if t != nil && t.Status == model.TicketStatusPending {
			ordered = append(ordered, t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].IssuedAt.Equal(ordered[j].IssuedAt) {
			return ordered[i].IssuedAt.Before(ordered[j].IssuedAt)
		}
		return ordered[i].TicketNumber < ordered[j].TicketNumber
	})
	for _, t := range ordered {
		if t.IsPriority() {
			priority = append(priority, t)
		} else {
			normal = append(normal, t)
		}
	}
	return priority, normal
}

// Select 依策略挑出下一張號碼牌；沒有待叫號碼時回傳 false
func Select(pending []*model.Ticket, policy model.QueuePolicy, counter int) (Selection, bool) {
	priority, normal := Partition(pending)
	return pick(priority, normal, policy, counter)
}

func pick(priority, normal []*model.Ticket, policy model.QueuePolicy, counter int) (Selection, bool) {
	if len(priority) == 0 && len(normal) == 0 {
		return Selection{Counter: counter}, false
	}

	servePriority := false
	switch {
	case len(priority) == 0:
		servePriority = false
	case len(normal) == 0:
		servePriority = true
	case policy.Strategy == model.StrategyInterleaved:
		servePriority = counter >= policy.InterleaveInterval
	default:
		// Strict：只要有優先號就先叫
		servePriority = true
	}

	if servePriority {
		return Selection{Ticket: priority[0], Counter: 0}, true
	}
	return Selection{Ticket: normal[0], Counter: counter + 1}, true
}

// Order 模擬連續叫號，回傳最終的叫號順序
func Order(pending []*model.Ticket, policy model.QueuePolicy, counter int) []*model.Ticket {
	priority, normal := Partition(pending)
	order := make([]*model.Ticket, 0, len(priority)+len(normal))
	for {
		sel, ok := pick(priority, normal, policy, counter)
		if !ok {
			return order
		}
		order = append(order, sel.Ticket)
		counter = sel.Counter
		if sel.Ticket.IsPriority() {
			priority = priority[1:]
		} else {
			normal = normal[1:]
		}
	}
}

// Positions 每張待叫號碼牌在叫號順序中的名次（從 1 起算）
func Positions(pending []*model.Ticket, policy model.QueuePolicy, counter int) map[string]int {
	order := Order(pending, policy, counter)
	positions := make(map[string]int, len(order))
	for i, t := range order {
		positions[t.TicketID] = i + 1
	}
	return positions
}
