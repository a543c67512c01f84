package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Client is one connected player waiting on a queue token.
type Client struct {
	conn       *websocket.Conn
	queueToken string
	send       chan []byte
}

// Hub maps queue tokens to connected clients so the matchmaker can push
// match-found events the moment a pairing commits.
type Hub struct {
	clients map[string]*Client // queueToken -> Client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// WSMessage is the envelope for every frame the hub sends.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// MatchFound implements the matchmaker's notifier: it tells the player who
// queued with this token that their match is ready.
func (h *Hub) MatchFound(queueToken string, match *models.Match) {
	h.sendTo(queueToken, WSMessage{Type: "match_found", Data: match})
}

func (h *Hub) sendTo(queueToken string, message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[queueToken]; exists {
		select {
		case client.send <- data:
			// sent
		default:
			log.Printf("[WS] Dropped message for queue token %s (buffer full)", queueToken)
		}
	}
	// No client connected is fine; the player can poll queue status instead.
}

// Serve upgrades the request and registers the connection under its queue
// token. One connection per token; a newer connection replaces the old one.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, queueToken string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	client := &Client{conn: conn, queueToken: queueToken, send: make(chan []byte, 8)}

	h.mu.Lock()
	if old, exists := h.clients[queueToken]; exists {
		close(old.send)
	}
	h.clients[queueToken] = client
	h.mu.Unlock()

	go client.writePump()
	go h.readPump(client)
}

func (h *Hub) readPump(c *Client) {
	defer func() {
		h.mu.Lock()
		if h.clients[c.queueToken] == c {
			delete(h.clients, c.queueToken)
			close(c.send)
		}
		h.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		// Clients only listen; any read error means they are gone.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error for queue token %s: %v", c.queueToken, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
