// Package ws pushes server events to browsers over WebSockets
// (gorilla/websocket). Each connection belongs to one account; the hub
// delivers a message either to every connection of an account or to all.
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//	r.Get("/api/payment/ws", "payment.ws", func(w http.ResponseWriter, r *http.Request) {
//	    hub.Upgrade(w, r, accountID)
//	})
//	hub.SendTo(accountID, payload)
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// Client is one connected socket.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	accountID uint
	send      chan []byte
}

// readPump only services control frames; clients never send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "account_id", c.accountID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type delivery struct {
	accountID uint // 0 = everyone
	data      []byte
}

// Hub owns every connection. All map access happens on the Run goroutine.
type Hub struct {
	upgrader   websocket.Upgrader
	clients    map[uint]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	count      chan chan int
	done       chan struct{}
}

// NewHub returns a hub that accepts any origin. Call Run before Upgrade.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// SetCheckOrigin replaces the allow-all origin check.
func (h *Hub) SetCheckOrigin(fn func(*http.Request) bool) { h.upgrader.CheckOrigin = fn }

// Run is the hub's event loop; it closes every connection when ctx ends.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[uint]map[*Client]struct{})
			return

		case c := <-h.register:
			set, ok := h.clients[c.accountID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.accountID] = set
			}
			set[c] = struct{}{}
			logger.Debug("ws: client connected", "account_id", c.accountID)

		case c := <-h.unregister:
			h.drop(c)

		case d := <-h.deliver:
			for id, set := range h.clients {
				if d.accountID != 0 && id != d.accountID {
					continue
				}
				for c := range set {
					select {
					case c.send <- d.data:
					default:
						// Slow consumer.
						h.drop(c)
					}
				}
			}

		case reply := <-h.count:
			n := 0
			for _, set := range h.clients {
				n += len(set)
			}
			reply <- n
		}
	}
}

func (h *Hub) drop(c *Client) {
	set, ok := h.clients[c.accountID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.accountID)
	}
}

// SendTo queues data for every connection of accountID. It never blocks;
// the message is dropped if the hub is saturated.
func (h *Hub) SendTo(accountID uint, data []byte) bool {
	select {
	case h.deliver <- delivery{accountID: accountID, data: data}:
		return true
	default:
		return false
	}
}

// Broadcast queues data for every connection.
func (h *Hub) Broadcast(data []byte) bool { return h.SendTo(0, data) }

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Upgrade switches the request to a WebSocket owned by accountID.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, accountID uint) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
		return
	}
	c := &Client{hub: h, conn: conn, accountID: accountID, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}
