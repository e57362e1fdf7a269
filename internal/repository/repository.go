package repository

import (
	"context"

	"go-gin-qms/internal/model"
)

// Mutation 在 CompareAndSwap 內套用到號碼牌副本上；回傳錯誤時不寫入
type Mutation func(t *model.Ticket) error

// CounterUpdate 與認領一起提交的 interleave 計數器，ExpectedVersion 為讀到的房間版本
type CounterUpdate struct {
	RoomID          string
	ExpectedVersion int64
	Counter         int
}

// TicketStore 號碼牌的唯一資料來源，所有變更都經過 CompareAndSwap
type TicketStore interface {
	// Insert 寫入新發出的號碼牌，號碼重複回傳 ErrDuplicateTicket
	Insert(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	// Get 以 ticketId 或 ticketNumber 查詢
	Get(ctx context.Context, ref string) (*model.Ticket, error)
	// ListPending 診間待叫號碼牌，依 IssuedAt 由舊到新
	ListPending(ctx context.Context, roomID string) ([]*model.Ticket, error)
	// ListByRoom 診間所有號碼牌（含已完成）
	ListByRoom(ctx context.Context, roomID string) ([]*model.Ticket, error)
	// CurrentServing 診間目前 Calling/Serving 的號碼牌，沒有時回傳 nil, nil
	CurrentServing(ctx context.Context, roomID string) (*model.Ticket, error)
	// CompareAndSwap 版本相符才套用 mutation，成功後 Version+1；不符回傳 ErrVersionConflict
	CompareAndSwap(ctx context.Context, ticketID string, expectedVersion int64, mutate Mutation) (*model.Ticket, error)
	// Claim 叫號認領：號碼牌 CAS 與計數器更新一起提交，任一邊版本不符兩邊都不寫入。counter 為 nil 時等同 CompareAndSwap
	Claim(ctx context.Context, ticketID string, expectedVersion int64, mutate Mutation, counter *CounterUpdate) (*model.Ticket, error)
}

// RoomRepository 診間與服務項目紀錄；計數器只經由 TicketStore.Claim 寫入
type RoomRepository interface {
	GetRoom(ctx context.Context, roomID string) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	GetService(ctx context.Context, serviceID string) (*model.Service, error)
	SaveRoom(ctx context.Context, room *model.Room) (*model.Room, error)
	SaveService(ctx context.Context, service *model.Service) (*model.Service, error)
}
