package realtime

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sangamlabs/sangam/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16 // 64 KiB, inbound frames are tiny

	sendBufferSize = 64
)

var (
	errConnClosed = errors.New("realtime: connection closed")
	errBufferFull = errors.New("realtime: send buffer full")
)

// Hub upgrades HTTP requests into registered websocket connections and serves
// their read/write loops. Fan-out goes through the Dispatcher; the hub only
// owns connection lifecycles.
type Hub struct {
	registry   *Registry
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

// NewHub constructs a hub bound to the supplied registry and dispatcher.
func NewHub(registry *Registry, dispatcher *Dispatcher) *Hub {
	return &Hub{
		registry:   registry,
		dispatcher: dispatcher,
		log:        logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				return originHost == hostWithoutPort(r.Host) || isLoopback(originHost)
			},
		},
	}
}

// ServeUser upgrades the request and serves a per-user connection until the
// client disconnects or a write fails.
func (h *Hub) ServeUser(userID string, w http.ResponseWriter, r *http.Request) {
	h.serve(userID, false, w, r)
}

// ServeAdmin upgrades the request into the admin namespace. Admin connections
// only receive broadcasts; inbound frames are drained and ignored.
func (h *Hub) ServeAdmin(adminID string, w http.ResponseWriter, r *http.Request) {
	h.serve(adminID, true, w, r)
}

func (h *Hub) serve(subjectID string, admin bool, w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &wsConn{
		hub:       h,
		socket:    socket,
		subjectID: subjectID,
		admin:     admin,
		send:      make(chan Event, sendBufferSize),
	}

	h.registry.Register(conn, subjectID, admin)

	go conn.writeLoop()
	conn.readLoop()
}

// wsConn adapts a gorilla websocket to the registry's Conn surface. A single
// writer goroutine drains the buffered send channel, so per-connection event
// order is preserved.
type wsConn struct {
	hub       *Hub
	socket    *websocket.Conn
	subjectID string
	admin     bool

	mu     sync.Mutex
	closed bool
	send   chan Event

	once sync.Once
}

// Send enqueues an event for delivery. It fails when the connection is gone
// or the client cannot keep up; the dispatcher prunes on failure.
func (c *wsConn) Send(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- event:
		return nil
	default:
		return errBufferFull
	}
}

// Close tears the connection down and removes it from the registry.
func (c *wsConn) Close() error {
	c.once.Do(func() {
		c.hub.registry.Deregister(c, c.subjectID, c.admin)

		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		_ = c.socket.Close()
	})
	return nil
}

func (c *wsConn) readLoop() {
	defer c.Close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("subject", c.subjectID), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 || c.admin {
			continue
		}
		c.handleFrame(payload)
	}
}

// inboundFrame is the small control vocabulary clients may send: typing
// indicators relayed to the chat peer.
type inboundFrame struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiver_id"`
}

func (c *wsConn) handleFrame(payload []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		c.hub.log.Debug("invalid inbound frame", zap.String("subject", c.subjectID), zap.Error(err))
		return
	}

	switch frame.Type {
	case EventTypingStarted, EventTypingStopped:
		if frame.ReceiverID == "" {
			return
		}
		c.hub.dispatcher.SendToUser(frame.ReceiverID, TypingEvent(frame.Type == EventTypingStarted, c.subjectID))
	default:
		// Unknown frames are ignored rather than fatal.
	}
}

func (c *wsConn) writeLoop() {
	defer c.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
