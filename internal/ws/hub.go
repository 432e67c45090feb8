package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arshadjafri/defi-risk-platform/pkg/metrics"
	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is served from a different origin in development.
		return true
	},
}

// Message is the envelope every push uses.
type Message struct {
	Type   string      `json:"type"`
	Symbol string      `json:"symbol,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	ID     string      `json:"id,omitempty"`
}

// SubscriptionMessage is the client-to-server request format.
type SubscriptionMessage struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
	ID      string   `json:"id,omitempty"`
}

// Hub maintains the set of active clients. Alerts are delivered to the
// clients of the affected user; market updates go to symbol subscribers.
type Hub struct {
	clients       map[*Client]bool
	byUser        map[string]map[*Client]bool
	subscriptions map[string]map[*Client]bool // symbol -> clients
	register      chan *Client
	unregister    chan *Client
	broadcast     chan targetedMessage
	recorder      *metrics.Recorder
	log           *logger.Logger
	mu            sync.RWMutex
}

type targetedMessage struct {
	userID  string // deliver to one user's clients; empty means by symbol
	symbol  string // deliver to symbol subscribers; empty means everyone
	payload []byte
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	id            string
	userID        string
	subscriptions map[string]bool
	mu            sync.Mutex
}

// NewHub creates a new WebSocket hub
func NewHub(recorder *metrics.Recorder) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		byUser:        make(map[string]map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan targetedMessage, 256),
		recorder:      recorder,
		log:           logger.GetLogger("ws.hub"),
	}
}

// Run starts the hub loop. It owns the client set; all mutations happen
// here.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("starting websocket hub")
	for {
		select {
		case <-ctx.Done():
			h.log.Info("websocket hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if client.userID != "" {
				if h.byUser[client.userID] == nil {
					h.byUser[client.userID] = make(map[*Client]bool)
				}
				h.byUser[client.userID][client] = true
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.recorder.RecordWSClients(count)
			h.log.Infof("client %s connected (user %s)", client.id, client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.removeClientLocked(client)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.recorder.RecordWSClients(count)
			h.log.Infof("client %s disconnected", client.id)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// removeClientLocked must be called with the hub mutex held.
func (h *Hub) removeClientLocked(client *Client) {
	if client.userID != "" {
		if clients := h.byUser[client.userID]; clients != nil {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.byUser, client.userID)
			}
		}
	}
	for symbol, clients := range h.subscriptions {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.subscriptions, symbol)
		}
	}
}

func (h *Hub) deliver(msg targetedMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var targets map[*Client]bool
	switch {
	case msg.userID != "":
		targets = h.byUser[msg.userID]
	case msg.symbol != "":
		targets = h.subscriptions[msg.symbol]
	default:
		targets = h.clients
	}

	for client := range targets {
		select {
		case client.send <- msg.payload:
		default:
			// Slow consumer; drop the message rather than block the hub.
			h.log.Warnf("dropping message for slow client %s", client.id)
		}
	}
}

// BroadcastAlert pushes an alert to every connection of the alert's user.
func (h *Hub) BroadcastAlert(alert *models.Alert) {
	h.push(targetedMessage{userID: alert.UserID}, Message{Type: "alert", Data: alert})
}

// BroadcastRiskMetrics pushes a computed risk bundle to every connection
// of the given user.
func (h *Hub) BroadcastRiskMetrics(userID string, m *models.RiskMetrics) {
	h.push(targetedMessage{userID: userID}, Message{Type: "risk_metrics", Data: m})
}

// BroadcastMarketData pushes a quote update to the symbol's subscribers.
func (h *Hub) BroadcastMarketData(data *models.MarketData) {
	h.push(targetedMessage{symbol: data.Symbol}, Message{Type: "market_data", Symbol: data.Symbol, Data: data})
}

func (h *Hub) push(target targetedMessage, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorf("failed to marshal %s message: %v", msg.Type, err)
		return
	}
	target.payload = payload

	select {
	case h.broadcast <- target:
	default:
		h.log.Warn("broadcast queue full, dropping message")
	}
}

// HandleWebSocket upgrades the connection and registers the client. The
// user_id query parameter scopes alert delivery.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, 256),
		id:            uuid.NewString(),
		userID:        r.URL.Query().Get("user_id"),
		subscriptions: make(map[string]bool),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
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
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Errorf("websocket read error: %v", err)
			}
			break
		}
		c.handleMessage(data)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Client) handleMessage(data []byte) {
	var msg SubscriptionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendMessage(Message{Type: "error", Error: "invalid message format"})
		return
	}

	switch msg.Type {
	case "subscribe":
		c.subscribe(msg)
	case "unsubscribe":
		c.unsubscribe(msg)
	case "ping":
		c.sendMessage(Message{Type: "pong", ID: msg.ID})
	default:
		c.sendMessage(Message{Type: "error", Error: "unknown message type", ID: msg.ID})
	}
}

func (c *Client) subscribe(msg SubscriptionMessage) {
	c.mu.Lock()
	for _, symbol := range msg.Symbols {
		c.subscriptions[symbol] = true
	}
	c.mu.Unlock()

	c.hub.mu.Lock()
	for _, symbol := range msg.Symbols {
		if c.hub.subscriptions[symbol] == nil {
			c.hub.subscriptions[symbol] = make(map[*Client]bool)
		}
		c.hub.subscriptions[symbol][c] = true
	}
	c.hub.mu.Unlock()

	c.sendMessage(Message{
		Type: "subscription_confirmed",
		Data: map[string]interface{}{"symbols": msg.Symbols},
		ID:   msg.ID,
	})
}

func (c *Client) unsubscribe(msg SubscriptionMessage) {
	c.mu.Lock()
	for _, symbol := range msg.Symbols {
		delete(c.subscriptions, symbol)
	}
	c.mu.Unlock()

	c.hub.mu.Lock()
	for _, symbol := range msg.Symbols {
		if clients, exists := c.hub.subscriptions[symbol]; exists {
			delete(clients, c)
			if len(clients) == 0 {
				delete(c.hub.subscriptions, symbol)
			}
		}
	}
	c.hub.mu.Unlock()

	c.sendMessage(Message{Type: "unsubscription_confirmed", ID: msg.ID})
}

func (c *Client) sendMessage(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
