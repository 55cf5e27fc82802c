package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"lifequest_bot/internal/service"
	"lifequest_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type EventMessage struct {
	Type     service.EventType `json:"type"`
	Balance  int               `json:"balance"`
	Quest    string            `json:"quest,omitempty"`
	Daily    string            `json:"daily,omitempty"`
	Unlocked []string          `json:"unlocked,omitempty"`
	Rewards  []RewardResponse  `json:"rewards,omitempty"`
	Choice   *ChoiceResponse   `json:"choice,omitempty"`
	At       time.Time         `json:"at"`
}

// Hub streams progression events to the Mini App sessions of each user.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*client]struct{})}
}

// Serve upgrades an authenticated request and keeps the socket until the
// peer goes away.
func (h *Hub) Serve(c *gin.Context) {
	log := logger.Logger()

	id, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(id, cl)
	log.Debug("event stream opened", zap.Int64("telegram_id", id))

	go cl.writeLoop()
	cl.readLoop()

	h.unregister(id, cl)
	log.Debug("event stream closed", zap.Int64("telegram_id", id))
}

func (h *Hub) register(id int64, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[id] == nil {
		h.clients[id] = make(map[*client]struct{})
	}
	h.clients[id][cl] = struct{}{}
}

func (h *Hub) unregister(id int64, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id][cl]; !ok {
		return
	}
	delete(h.clients[id], cl)
	if len(h.clients[id]) == 0 {
		delete(h.clients, id)
	}
	close(cl.send)
}

// Clients returns how many sessions the user has open.
func (h *Hub) Clients(id int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[id])
}

// Notify implements service.Notifier. Slow sessions drop the event instead
// of blocking the engine.
func (h *Hub) Notify(_ context.Context, event service.Event) {
	msg := EventMessage{
		Type:     event.Type,
		Balance:  event.Balance,
		Quest:    event.Quest,
		Daily:    event.Daily,
		Unlocked: event.Unlocked,
		Rewards:  toRewards(event.Rewards),
		Choice:   toChoice(event.Choice),
		At:       event.At,
	}
	out, err := json.Marshal(msg)
	if err != nil {
		logger.Logger().Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients[event.UserID] {
		select {
		case cl.send <- out:
		default:
			logger.Logger().Warn("event dropped for slow client", zap.Int64("telegram_id", event.UserID))
		}
	}
}

// Close disconnects every session.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for cl := range clients {
			_ = cl.conn.Close()
		}
	}
}

func (cl *client) readLoop() {
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (cl *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
