package service

import (
	"context"

	"go-gin-qms/internal/model"
)

// Notifier 接收已提交變更產生的事件；實作不可阻塞呼叫端
type Notifier interface {
	Notify(ctx context.Context, event model.Event)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, model.Event) {}

// NotifierFunc 方便測試時直接收集事件
type NotifierFunc func(ctx context.Context, event model.Event)

func (f NotifierFunc) Notify(ctx context.Context, event model.Event) { f(ctx, event) }
