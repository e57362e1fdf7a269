package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-gin-qms/internal/hub"
	"go-gin-qms/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"go.uber.org/zap"
)

// RealtimeHandler 以 SockJS 提供 join/leave 訂閱與事件推播
type RealtimeHandler struct {
	hub    *hub.Hub
	prefix string
}

func NewRealtimeHandler(h *hub.Hub, prefix string) *RealtimeHandler {
	if prefix == "" {
		prefix = "/realtime"
	}
	return &RealtimeHandler{hub: h, prefix: "/" + strings.Trim(prefix, "/")}
}

func (h *RealtimeHandler) RegisterRoutes(r *gin.Engine) {
	sockjsHandler := sockjs.NewHandler(h.prefix, sockjs.DefaultOptions, h.serveSession)
	r.Any(h.prefix+"/*path", gin.WrapH(sockjsHandler))
	r.GET("/api/v1/realtime/stats", h.Stats)
}

func (h *RealtimeHandler) serveSession(session sockjs.Session) {
	client := h.hub.Connect(uuid.NewString())
	log := logger.WithComponent("realtime").With(zap.String("client_id", client.ID))
	log.Info("client connected")
	defer func() {
		// 斷線立即移除所有訂閱
		h.hub.Disconnect(client)
		log.Info("client disconnected")
	}()

	go func() {
		for msg := range client.Send {
			if err := session.Send(string(msg)); err != nil {
				return
			}
		}
	}()

	// 允許連線時直接帶 ?topic=room:1&topic=dashboard
	if req := session.Request(); req != nil {
		for _, topic := range req.URL.Query()["topic"] {
			if err := h.hub.Subscribe(client, topic); err != nil {
				log.Warn("invalid initial topic", zap.String("topic", topic), zap.Error(err))
			}
		}
	}

	for {
		msg, err := session.Recv()
		if err != nil {
			return
		}
		reply := h.hub.Handle(client, []byte(msg))
		data, err := json.Marshal(reply)
		if err != nil {
			continue
		}
		if err := session.Send(string(data)); err != nil {
			return
		}
	}
}

func (h *RealtimeHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"clients": h.hub.ClientCount(),
		"dropped": h.hub.Dropped(),
	})
}
