package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/services/hub"
)

// WSHandler upgrades alert subscribers onto the fan-out registry
type WSHandler struct {
	registry *hub.Registry
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *hub.Registry) *WSHandler {
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser dashboards connect cross-origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// @Summary Subscribe to live alerts
// @Description Upgrade to a websocket that receives every alert as one JSON text message
// @Tags alerts
// @Router /ws/alerts [get]
func (h *WSHandler) AlertsWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := hub.NewClient(conn)
	h.registry.Register(client)

	// The server only ever sends. The read loop exists for liveness:
	// client messages are discarded, and a read error means the peer
	// is gone.
	go func() {
		defer func() {
			h.registry.Unregister(client)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
