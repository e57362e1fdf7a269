package handler_test

import (
	"errors"
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

func setupCallingTestRouter(mockService *mocks.CallingServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewCallingHandler(mockService).RegisterRoutes(router)
	return router
}

var desk = map[string]string{"desk_token": "desk-1"}

func TestCallNext(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewCallingServiceMock()
		router := setupCallingTestRouter(mockService)

		mockService.On("CallNext", mock.Anything, "r1", "desk-1").Return(&model.CallResult{
			Ticket:           &model.Ticket{TicketID: "t-1", TicketNumber: "A001", Status: model.TicketStatusCalling},
			RoomID:           "r1",
			RoomCode:         "101",
			RemainingInQueue: 4,
		}, nil).Once()

		w := serve(router, createJSONHTTPRequest("POST", "/api/v1/rooms/r1/call-next", desk))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "101", body["room_code"])
		assert.EqualValues(t, 4, body["remaining_in_queue"])
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - missing desk token", func(t *testing.T) {
		mockService := mocks.NewCallingServiceMock()
		router := setupCallingTestRouter(mockService)

		w := serve(router, createJSONHTTPRequest("POST", "/api/v1/rooms/r1/call-next", map[string]string{}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", decodeBody(t, w)["code"])
		mockService.AssertNotCalled(t, "CallNext", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - invalid json", func(t *testing.T) {
		mockService := mocks.NewCallingServiceMock()
		router := setupCallingTestRouter(mockService)

		w := serve(router, createJSONHTTPRequest("POST", "/api/v1/rooms/r1/call-next", InvalidJSON))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"ErrNoTicketsAvailable", apperrors.ErrNoTicketsAvailable, http.StatusNotFound, "NO_TICKETS_AVAILABLE"},
		{"ErrRoomNotFound", apperrors.ErrRoomNotFound, http.StatusNotFound, "ROOM_NOT_FOUND"},
		{"ErrRoomBusy", apperrors.ErrRoomBusy, http.StatusConflict, "ROOM_BUSY"},
		{"ErrConflict", apperrors.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"ErrLockNotAcquired", apperrors.ErrLockNotAcquired, http.StatusServiceUnavailable, "ROOM_LOCKED"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range errorCases {
		t.Run("Failed - "+tc.name, func(t *testing.T) {
			mockService := mocks.NewCallingServiceMock()
			router := setupCallingTestRouter(mockService)

			mockService.On("CallNext", mock.Anything, "r1", "desk-1").Return(nil, tc.err).Once()

			w := serve(router, createJSONHTTPRequest("POST", "/api/v1/rooms/r1/call-next", desk))

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeBody(t, w)["code"])
			mockService.AssertExpectations(t)
		})
	}
}

func TestRecall(t *testing.T) {
	mockService := mocks.NewCallingServiceMock()
	router := setupCallingTestRouter(mockService)

	mockService.On("Recall", mock.Anything, "r1", "desk-2").Return(nil, apperrors.ErrNotOwner).Once()

	w := serve(router, createJSONHTTPRequest("POST", "/api/v1/rooms/r1/recall", map[string]string{"desk_token": "desk-2"}))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NOT_OWNER", decodeBody(t, w)["code"])
	mockService.AssertExpectations(t)
}

func TestDeskTicketOperations(t *testing.T) {
	ticket := &model.Ticket{TicketID: "t-1", TicketNumber: "A001"}

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		args   []interface{}
	}{
		{"StartServing", "POST", "/api/v1/tickets/t-1/serve", desk, []interface{}{mock.Anything, "t-1", "desk-1"}},
		{"Pass", "POST", "/api/v1/tickets/t-1/pass", desk, []interface{}{mock.Anything, "t-1", "desk-1"}},
		{"Done", "POST", "/api/v1/tickets/t-1/done", desk, []interface{}{mock.Anything, "t-1", "desk-1"}},
		{"ReturnToQueue", "POST", "/api/v1/tickets/t-1/return", nil, []interface{}{mock.Anything, "t-1"}},
		{"TogglePriority", "POST", "/api/v1/tickets/t-1/toggle-priority", nil, []interface{}{mock.Anything, "t-1"}},
		{"Transfer", "POST", "/api/v1/tickets/t-1/transfer", map[string]string{"room_id": "r2"}, []interface{}{mock.Anything, "t-1", "r2"}},
		{"Cancel", "POST", "/api/v1/tickets/t-1/cancel", nil, []interface{}{mock.Anything, "t-1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name+" - Success", func(t *testing.T) {
			mockService := mocks.NewCallingServiceMock()
			router := setupCallingTestRouter(mockService)
			mockService.On(tc.name, tc.args...).Return(ticket, nil).Once()

			w := serve(router, createJSONHTTPRequest(tc.method, tc.path, tc.body))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "A001", decodeBody(t, w)["ticket_number"])
			mockService.AssertExpectations(t)
		})

		t.Run(tc.name+" - ErrInvalidTransition", func(t *testing.T) {
			mockService := mocks.NewCallingServiceMock()
			router := setupCallingTestRouter(mockService)
			mockService.On(tc.name, tc.args...).Return(nil, apperrors.ErrInvalidTransition).Once()

			w := serve(router, createJSONHTTPRequest(tc.method, tc.path, tc.body))

			assert.Equal(t, http.StatusConflict, w.Code)
			assert.Equal(t, "INVALID_TRANSITION", decodeBody(t, w)["code"])
			mockService.AssertExpectations(t)
		})
	}

	t.Run("Transfer - missing room", func(t *testing.T) {
		mockService := mocks.NewCallingServiceMock()
		router := setupCallingTestRouter(mockService)

		w := serve(router, createJSONHTTPRequest("POST", "/api/v1/tickets/t-1/transfer", map[string]string{}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything)
	})
}
