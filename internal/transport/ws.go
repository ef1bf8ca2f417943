package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"fleetwatch/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsMessage is the frame shape in both directions. Outbound frames are
// fleetEvent broadcasts; inbound frames are either pushed events or
// simulation controls.
type wsMessage struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	Action string          `json:"action,omitempty"`
	Speed  float64         `json:"speed,omitempty"`
}

// Hub fans accepted engine events out to every connected websocket
// client and feeds inbound frames into the ingestion gateway.
type Hub struct {
	ingest  Ingestor
	control Controller
	verify  func(token string) bool

	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
}

func NewHub(ingest Ingestor, control Controller, verify func(string) bool) *Hub {
	return &Hub{
		ingest:     ingest,
		control:    control,
		verify:     verify,
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, sendBuffer),
	}
}

// Run owns the client set until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast pushes an applied event to all clients. Drops the frame if
// the hub is backed up; the dashboard state endpoints remain the source
// of truth.
func (h *Hub) Broadcast(ev domain.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	frame, err := json.Marshal(wsMessage{Type: "fleetEvent", Data: payload})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- frame:
	default:
	}
}

// ServeHTTP upgrades the connection after token verification.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if !h.verify(token) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register <- c
	go c.writePump()
	go c.readPump()
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "fleetEvent":
			var ev domain.Event
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				continue
			}
			if ev.ID == "" || ev.TripID == "" {
				continue
			}
			c.hub.ingest.IngestEvent(ev)
		case "control":
			c.hub.handleControl(msg)
		}
	}
}

func (h *Hub) handleControl(msg wsMessage) {
	switch msg.Action {
	case "pause":
		h.control.Pause()
	case "resume":
		if msg.Speed > 0 {
			h.control.SetSpeed(msg.Speed)
		}
		h.control.Play()
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
