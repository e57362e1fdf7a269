package handler

import (
	"net/http"

	"go-gin-qms/internal/service"

	"github.com/gin-gonic/gin"
)

type CallingHandler struct {
	service service.CallingService
}

func NewCallingHandler(service service.CallingService) *CallingHandler {
	return &CallingHandler{service: service}
}

func (h *CallingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("rooms/:roomId/call-next", h.CallNext)
		router.POST("rooms/:roomId/recall", h.Recall)
		router.POST("tickets/:ticketId/serve", h.StartServing)
		router.POST("tickets/:ticketId/pass", h.Pass)
		router.POST("tickets/:ticketId/done", h.Done)
		router.POST("tickets/:ticketId/return", h.ReturnToQueue)
		router.POST("tickets/:ticketId/toggle-priority", h.TogglePriority)
		router.POST("tickets/:ticketId/transfer", h.Transfer)
		router.POST("tickets/:ticketId/cancel", h.Cancel)
	}
}

func (h *CallingHandler) CallNext(c *gin.Context) {
	var req DeskRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	result, err := h.service.CallNext(c, c.Param("roomId"), req.DeskToken)
	if err != nil {
		handleError(c, err, "CallNext")
		return
	}
	handleSuccess(c, result, http.StatusOK)
}

func (h *CallingHandler) Recall(c *gin.Context) {
	var req DeskRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	result, err := h.service.Recall(c, c.Param("roomId"), req.DeskToken)
	if err != nil {
		handleError(c, err, "Recall")
		return
	}
	handleSuccess(c, result, http.StatusOK)
}

func (h *CallingHandler) StartServing(c *gin.Context) {
	var req DeskRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	ticket, err := h.service.StartServing(c, c.Param("ticketId"), req.DeskToken)
	if err != nil {
		handleError(c, err, "StartServing")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *CallingHandler) Pass(c *gin.Context) {
	var req DeskRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	ticket, err := h.service.Pass(c, c.Param("ticketId"), req.DeskToken)
	if err != nil {
		handleError(c, err, "Pass")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *CallingHandler) Done(c *gin.Context) {
	var req DeskRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	ticket, err := h.service.Done(c, c.Param("ticketId"), req.DeskToken)
	if err != nil {
		handleError(c, err, "Done")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *CallingHandler) ReturnToQueue(c *gin.Context) {
	ticket, err := h.service.ReturnToQueue(c, c.Param("ticketId"))
	if err != nil {
		handleError(c, err, "ReturnToQueue")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *CallingHandler) TogglePriority(c *gin.Context) {
	ticket, err := h.service.TogglePriority(c, c.Param("ticketId"))
	if err != nil {
		handleError(c, err, "TogglePriority")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *CallingHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	ticket, err := h.service.Transfer(c, c.Param("ticketId"), req.RoomID)
	if err != nil {
		handleError(c, err, "Transfer")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *CallingHandler) Cancel(c *gin.Context) {
	ticket, err := h.service.Cancel(c, c.Param("ticketId"))
	if err != nil {
		handleError(c, err, "Cancel")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}
