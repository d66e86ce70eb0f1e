package gallery

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"video-agent-server/modules/common/model"
)

// 메시지 타입
const (
	EventVideoCreated = "video_created"
	EventVideoUpdated = "video_updated"
)

const (
	sendBufferSize = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// Event - one message on the gallery feed
type Event struct {
	Type  string       `json:"type"`
	Video *model.Video `json:"video"`
}

// 연결된 클라이언트 정보
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// 서버 메트릭
type Metrics struct {
	TotalConnections int       `json:"totalConnections"`
	CurrentClients   int       `json:"currentClients"`
	EventsPublished  int       `json:"eventsPublished"`
	DroppedClients   int       `json:"droppedClients"`
	StartTime        time.Time `json:"startTime"`
	Uptime           string    `json:"uptime"`
}

// Hub fans gallery events out to every connected browser.
type Hub struct {
	upgrader websocket.Upgrader
	clients  map[string]*Client
	mutex    sync.RWMutex

	totalConnections int
	eventsPublished  int
	droppedClients   int
	startTime        time.Time
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// gallery is read-only and public
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[string]*Client),
		startTime: time.Now(),
	}
}

// RegisterRoutes - 라우트 등록
func (h *Hub) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.HandleWebSocket)
	r.HandleFunc("/metrics", h.HandleMetrics).Methods("GET")
	log.Println("✅ [Gallery] Routes registered: /ws, GET /metrics")
}

// Publish - broadcast to all clients. Clients whose buffer is full are dropped.
func (h *Hub) Publish(eventType string, video *model.Video) {
	messageBytes, err := json.Marshal(Event{Type: eventType, Video: video})
	if err != nil {
		log.Printf("❌ [Gallery] Error marshaling event: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.eventsPublished++
	for id, client := range h.clients {
		select {
		case client.send <- messageBytes:
		default:
			log.Printf("⚠️ [Gallery] Dropping slow client %s", id)
			close(client.send)
			delete(h.clients, id)
			h.droppedClients++
		}
	}
}

// ClientCount - currently connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Close - disconnect everyone
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	log.Println("🧹 [Gallery] All clients disconnected")
}

// HandleWebSocket - GET /ws
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [Gallery] WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	h.addClient(client)

	go client.writePump()
	go client.readPump(h)
}

// HandleMetrics - GET /metrics
func (h *Hub) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Metrics())
}

func (h *Hub) Metrics() Metrics {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return Metrics{
		TotalConnections: h.totalConnections,
		CurrentClients:   len(h.clients),
		EventsPublished:  h.eventsPublished,
		DroppedClients:   h.droppedClients,
		StartTime:        h.startTime,
		Uptime:           time.Since(h.startTime).String(),
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	h.clients[client.id] = client
	h.totalConnections++
	count := len(h.clients)
	h.mutex.Unlock()

	log.Printf("👤 [Gallery] Client %s connected (Clients: %d)", client.id, count)
}

func (h *Hub) removeClient(id string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if client, exists := h.clients[id]; exists {
		close(client.send)
		delete(h.clients, id)
		log.Printf("👋 [Gallery] Client %s left (Remaining: %d)", id, len(h.clients))
	}
}

// readPump - the feed is one-way; reads only track liveness and close
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.removeClient(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ [Gallery] WebSocket error: %v", err)
			}
			return
		}
	}
}

// 클라이언트로 메시지 쓰기
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
				log.Printf("⚠️ [Gallery] WebSocket write error: %v", err)
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
