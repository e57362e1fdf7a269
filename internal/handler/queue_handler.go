package handler

import (
	"net/http"

	"go-gin-qms/internal/model"
	"go-gin-qms/internal/service"

	"github.com/gin-gonic/gin"
)

// QueueHandler 號碼牌接收、診間設定與唯讀查詢
type QueueHandler struct {
	tickets service.TicketService
	rooms   service.RoomService
	view    service.QueueViewService
}

func NewQueueHandler(tickets service.TicketService, rooms service.RoomService, view service.QueueViewService) *QueueHandler {
	return &QueueHandler{tickets: tickets, rooms: rooms, view: view}
}

func (h *QueueHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("tickets", h.AdmitTicket)
		router.GET("tickets/:ticketId", h.GetTicket)

		router.GET("rooms", h.AllRooms)
		router.PUT("rooms/:roomId", h.SaveRoom)
		router.GET("rooms/:roomId/state", h.RoomState)
		router.GET("rooms/:roomId/current", h.CurrentTicket)
		router.GET("rooms/:roomId/queue", h.ListQueue)
		router.GET("rooms/:roomId/desk", h.DeskState)

		router.PUT("services/:serviceId", h.SaveService)
		router.POST("tv-profiles/:id/refresh", h.RefreshTVProfile)
	}
}

func (h *QueueHandler) AdmitTicket(c *gin.Context) {
	var ticket model.Ticket
	if err := BindJson(c, &ticket); err != nil {
		return
	}
	created, err := h.tickets.Admit(c, &ticket)
	if err != nil {
		handleError(c, err, "AdmitTicket")
		return
	}
	handleSuccess(c, created, http.StatusCreated)
}

// GetTicket 可用 ticketId 或 ticketNumber 查詢
func (h *QueueHandler) GetTicket(c *gin.Context) {
	ticket, err := h.tickets.Get(c, c.Param("ticketId"))
	if err != nil {
		handleError(c, err, "GetTicket")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *QueueHandler) AllRooms(c *gin.Context) {
	states, err := h.view.AllRooms(c)
	if err != nil {
		handleError(c, err, "AllRooms")
		return
	}
	handleSuccess(c, states, http.StatusOK)
}

func (h *QueueHandler) SaveRoom(c *gin.Context) {
	var room model.Room
	if err := BindJson(c, &room); err != nil {
		return
	}
	room.RoomID = c.Param("roomId")
	saved, err := h.rooms.SaveRoom(c, &room)
	if err != nil {
		handleError(c, err, "SaveRoom")
		return
	}
	handleSuccess(c, saved, http.StatusOK)
}

func (h *QueueHandler) SaveService(c *gin.Context) {
	var svc model.Service
	if err := BindJson(c, &svc); err != nil {
		return
	}
	svc.ServiceID = c.Param("serviceId")
	saved, err := h.rooms.SaveService(c, &svc)
	if err != nil {
		handleError(c, err, "SaveService")
		return
	}
	handleSuccess(c, saved, http.StatusOK)
}

func (h *QueueHandler) RoomState(c *gin.Context) {
	state, err := h.view.RoomState(c, c.Param("roomId"))
	if err != nil {
		handleError(c, err, "RoomState")
		return
	}
	handleSuccess(c, state, http.StatusOK)
}

func (h *QueueHandler) CurrentTicket(c *gin.Context) {
	ticket, err := h.view.CurrentTicket(c, c.Param("roomId"))
	if err != nil {
		handleError(c, err, "CurrentTicket")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

func (h *QueueHandler) ListQueue(c *gin.Context) {
	waiting, err := h.view.ListQueue(c, c.Param("roomId"))
	if err != nil {
		handleError(c, err, "ListQueue")
		return
	}
	handleSuccess(c, waiting, http.StatusOK)
}

func (h *QueueHandler) DeskState(c *gin.Context) {
	state, err := h.view.DeskState(c, c.Param("roomId"))
	if err != nil {
		handleError(c, err, "DeskState")
		return
	}
	handleSuccess(c, state, http.StatusOK)
}

func (h *QueueHandler) RefreshTVProfile(c *gin.Context) {
	if err := h.rooms.RefreshTVProfile(c, c.Param("id")); err != nil {
		handleError(c, err, "RefreshTVProfile")
		return
	}
	c.Status(http.StatusAccepted)
}
