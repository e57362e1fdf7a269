package handler_test

import (
	"net/http"
	"testing"

	"go-gin-qms/internal/handler"
	"go-gin-qms/internal/model"
	"go-gin-qms/internal/service/mocks"
	apperrors "go-gin-qms/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type queueMocks struct {
	tickets *mocks.TicketServiceMock
	rooms   *mocks.RoomServiceMock
	view    *mocks.QueueViewServiceMock
}

func setupQueueTestRouter() (*gin.Engine, queueMocks) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	m := queueMocks{
		tickets: mocks.NewTicketServiceMock(),
		rooms:   mocks.NewRoomServiceMock(),
		view:    mocks.NewQueueViewServiceMock(),
	}
	handler.NewQueueHandler(m.tickets, m.rooms, m.view).RegisterRoutes(router)
	return router, m
}

func TestAdmitTicket(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.tickets.On("Admit", mock.Anything, mock.MatchedBy(func(tk *model.Ticket) bool {
			return tk.TicketNumber == "A001" && tk.RoomID == "r1"
		})).Return(&model.Ticket{TicketID: "t-1", TicketNumber: "A001", Status: model.TicketStatusPending}, nil).Once()

		w := serve(router, createJSONHTTPRequest("POST", "/api/v1/tickets", map[string]string{
			"ticket_number": "A001",
			"service_id":    "svc-1",
			"room_id":       "r1",
		}))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "t-1", decodeBody(t, w)["ticket_id"])
		m.tickets.AssertExpectations(t)
	})

	t.Run("Failed - ErrDuplicateTicket", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.tickets.On("Admit", mock.Anything, mock.Anything).Return(nil, apperrors.ErrDuplicateTicket).Once()

		w := serve(router, createJSONHTTPRequest("POST", "/api/v1/tickets", map[string]string{"ticket_number": "A001", "service_id": "svc-1"}))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "DUPLICATE_TICKET", decodeBody(t, w)["code"])
	})

	t.Run("Failed - invalid json", func(t *testing.T) {
		router, m := setupQueueTestRouter()

		w := serve(router, createJSONHTTPRequest("POST", "/api/v1/tickets", InvalidJSON))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.tickets.AssertNotCalled(t, "Admit", mock.Anything, mock.Anything)
	})
}

func TestGetTicket(t *testing.T) {
	router, m := setupQueueTestRouter()
	m.tickets.On("Get", mock.Anything, "A001").Return(&model.Ticket{TicketNumber: "A001"}, nil).Once()
	m.tickets.On("Get", mock.Anything, "nope").Return(nil, apperrors.ErrTicketNotFound).Once()

	w := serve(router, createJSONHTTPRequest("GET", "/api/v1/tickets/A001", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, createJSONHTTPRequest("GET", "/api/v1/tickets/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TICKET_NOT_FOUND", decodeBody(t, w)["code"])
	m.tickets.AssertExpectations(t)
}

func TestRoomViews(t *testing.T) {
	t.Run("RoomState", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.view.On("RoomState", mock.Anything, "r1").Return(&model.RoomQueueState{RoomID: "r1", QueueLength: 2}, nil).Once()

		w := serve(router, createJSONHTTPRequest("GET", "/api/v1/rooms/r1/state", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 2, decodeBody(t, w)["queue_length"])
	})

	t.Run("CurrentTicket - empty", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.view.On("CurrentTicket", mock.Anything, "r1").Return(nil, nil).Once()

		w := serve(router, createJSONHTTPRequest("GET", "/api/v1/rooms/r1/current", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body, "ticket")
		assert.Nil(t, body["ticket"])
	})

	t.Run("ListQueue", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.view.On("ListQueue", mock.Anything, "r1").Return([]model.WaitingTicket{
			{Ticket: &model.Ticket{TicketNumber: "P1"}, EstimatedWaitPosition: 1},
		}, nil).Once()

		w := serve(router, createJSONHTTPRequest("GET", "/api/v1/rooms/r1/queue", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"estimated_wait_position":1`)
		assert.Contains(t, w.Body.String(), `"ticket_number":"P1"`)
	})

	t.Run("DeskState - ErrRoomNotFound", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.view.On("DeskState", mock.Anything, "zz").Return(nil, apperrors.ErrRoomNotFound).Once()

		w := serve(router, createJSONHTTPRequest("GET", "/api/v1/rooms/zz/desk", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("AllRooms", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.view.On("AllRooms", mock.Anything).Return([]*model.RoomQueueState{{RoomID: "r1"}, {RoomID: "r2"}}, nil).Once()

		w := serve(router, createJSONHTTPRequest("GET", "/api/v1/rooms", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"room_id":"r2"`)
	})
}

func TestConfiguration(t *testing.T) {
	t.Run("SaveRoom uses path id", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.rooms.On("SaveRoom", mock.Anything, mock.MatchedBy(func(r *model.Room) bool {
			return r.RoomID == "r7" && r.RoomCode == "107"
		})).Return(&model.Room{RoomID: "r7", RoomCode: "107"}, nil).Once()

		w := serve(router, createJSONHTTPRequest("PUT", "/api/v1/rooms/r7", map[string]string{"room_id": "other", "room_code": "107", "service_id": "svc-1"}))

		assert.Equal(t, http.StatusOK, w.Code)
		m.rooms.AssertExpectations(t)
	})

	t.Run("SaveService - ErrInvalidInput", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.rooms.On("SaveService", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidInput).Once()

		w := serve(router, createJSONHTTPRequest("PUT", "/api/v1/services/lab", map[string]string{"priority_strategy": "random"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("RefreshTVProfile", func(t *testing.T) {
		router, m := setupQueueTestRouter()
		m.rooms.On("RefreshTVProfile", mock.Anything, "tv-1").Return(nil).Once()

		w := serve(router, createJSONHTTPRequest("POST", "/api/v1/tv-profiles/tv-1/refresh", nil))

		assert.Equal(t, http.StatusAccepted, w.Code)
		m.rooms.AssertExpectations(t)
	})
}
