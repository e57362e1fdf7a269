package handler

import (
	"errors"
	"net/http"

	apperrors "go-gin-qms/pkg/app_errors"
	"go-gin-qms/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  "INVALID_INPUT",
		})
		return err
	}
	return nil
}

// DeskRequest 桌台操作帶入的 token，由外部驗證後傳入
type DeskRequest struct {
	DeskToken string `json:"desk_token" binding:"required"`
}

type TransferRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// 守衛錯誤記 Warn，其他記 Error
var errorMappings = []errorMapping{
	{apperrors.ErrTicketNotFound, http.StatusNotFound, "TICKET_NOT_FOUND", "Ticket not found"},
	{apperrors.ErrRoomNotFound, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found"},
	{apperrors.ErrServiceNotFound, http.StatusNotFound, "SERVICE_NOT_FOUND", "Service not found"},
	{apperrors.ErrNoTicketsAvailable, http.StatusNotFound, "NO_TICKETS_AVAILABLE", "No tickets available"},
	{apperrors.ErrNoActiveTicket, http.StatusNotFound, "NO_ACTIVE_TICKET", "No active ticket"},
	{apperrors.ErrNotOwner, http.StatusForbidden, "NOT_OWNER", "Ticket is held by another desk"},
	{apperrors.ErrRoomBusy, http.StatusConflict, "ROOM_BUSY", "Room already has an active ticket"},
	{apperrors.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", "Invalid ticket transition"},
	{apperrors.ErrConflict, http.StatusConflict, "CONFLICT", "Concurrent update, please retry"},
	{apperrors.ErrVersionConflict, http.StatusConflict, "CONFLICT", "Concurrent update, please retry"},
	{apperrors.ErrDuplicateTicket, http.StatusConflict, "DUPLICATE_TICKET", "Ticket number already issued"},
	{apperrors.ErrLockNotAcquired, http.StatusServiceUnavailable, "ROOM_LOCKED", "Room is busy, please retry"},
	{apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", "Invalid input"},
	{apperrors.ErrInvalidTopic, http.StatusBadRequest, "INVALID_TOPIC", "Invalid topic"},
}

func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			log.Warn(m.message)
			c.JSON(m.status, gin.H{
				"error": m.message,
				"code":  m.code,
			})
			return
		}
	}
	log.Error("Unexpected error")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
		"code":  "INTERNAL",
	})
}

func handleSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
