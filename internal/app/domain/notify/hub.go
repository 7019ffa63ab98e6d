package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub pushes toast snapshots to every connected UI tab over websocket.
// This replaces the original's same-tab window events: any number of tabs
// can watch the same toast collection.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	store   *Store
	logger  *zap.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []models.Toast
}

func NewHub(store *Store, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients: make(map[*client]struct{}),
		store:   store,
		logger:  logger,
	}
	store.SetOnChange(h.broadcast)
	return h
}

// HandleWS upgrades the request and streams toast snapshots until the
// client goes away.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan []models.Toast, clientSendSize)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	// current state first so a fresh tab doesn't start blank
	cl.send <- h.store.List()

	go h.writeLoop(cl)
	go h.readLoop(cl)
}

func (h *Hub) broadcast(toasts []models.Toast) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for cl := range h.clients {
		select {
		case cl.send <- toasts:
		default:
			// slow tab; it will catch up on the next snapshot
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case toasts, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(toasts); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readLoop(cl *client) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[cl]; ok {
			delete(h.clients, cl)
			close(cl.send)
		}
		h.mu.Unlock()
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
