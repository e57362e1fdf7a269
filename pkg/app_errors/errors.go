package apperrors

import "errors"

var (
	// 狀態機與桌台守衛
	ErrInvalidTransition  = errors.New("invalid ticket transition")
	ErrNotOwner           = errors.New("ticket is held by another desk")
	ErrRoomBusy           = errors.New("room already has an active ticket")
	ErrNoTicketsAvailable = errors.New("no tickets available")
	ErrNoActiveTicket     = errors.New("no active ticket")

	// 樂觀鎖
	ErrVersionConflict = errors.New("version conflict")
	ErrConflict        = errors.New("concurrent update, please retry")

	// 查詢
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrServiceNotFound = errors.New("service not found")

	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidTopic    = errors.New("invalid topic")
	ErrDuplicateTicket = errors.New("ticket number already issued")
	ErrLockNotAcquired = errors.New("room lock not acquired")
	ErrEventQueueFull  = errors.New("event queue full")
)
