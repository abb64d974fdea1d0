package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/telemetry"
)

// ==============================================================================
// 1. WebSocket Configuration & Constants
// ==============================================================================

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// The stream is outbound only; inbound frames are control messages.
	maxMessageSize = 512
)

// ==============================================================================
// 2. The Handler Struct (Dependency Injection)
// ==============================================================================

type WebSocketHandler struct {
	Hub      *telemetry.Hub
	Logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts upgrades only from the dashboard origins.
func NewWebSocketHandler(hub *telemetry.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WebSocketHandler{
		Hub:    hub,
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// ==============================================================================
// 3. HTTP Methods (The Upgrader)
// ==============================================================================

// StreamWizard handles GET /api/v1/ws/wizard
func (h *WebSocketHandler) StreamWizard(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
		return
	}

	events := h.Hub.Subscribe(telemetry.WizardTopic)
	closed := make(chan struct{})

	go h.readPump(ws, closed)
	h.writePump(ws, events, closed)
	h.Hub.Unsubscribe(telemetry.WizardTopic, events)
}

// ==============================================================================
// 4. The Write Pump
// ==============================================================================

func (h *WebSocketHandler) writePump(ws *websocket.Conn, events <-chan domain.WizardEvent, closed <-chan struct{}) {
	defer ws.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return

		case ev, ok := <-events:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream closed"))
				return
			}
			if err := ws.WriteJSON(ev); err != nil {
				h.Logger.Warn("Failed to write JSON to WebSocket", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ==============================================================================
// 5. The Read Pump (Connection Keep-Alive)
// ==============================================================================

func (h *WebSocketHandler) readPump(ws *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Logger.Warn("WebSocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
	}
}
