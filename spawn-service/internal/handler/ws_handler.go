package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/config"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/hub"
)

// WSHandler upgrades renderer connections and hands them to the hub.
type WSHandler struct {
	hub      *hub.Hub
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:   h,
		wsCfg: wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // renderers run locally and are not authenticated
			},
		},
	}
}

// HandleWebSocket registers the renderer once the handshake succeeds. The
// connection receives only batches broadcast after this point. Client ids
// are ULIDs so they sort by connect time in the logs.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(ulid.Make().String(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	go client.PingLoop()
	go client.ReadPump()
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.HandleWebSocket)
	r.GET("/ws", h.HandleWebSocket)
}
