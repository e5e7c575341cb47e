package stats

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Streamer serves a registry's counters over a websocket, pushing a fresh
// snapshot to every connected client on a fixed interval — the live
// dashboard counterpart to Report's one-shot text summary.
type Streamer struct {
	registry *Registry
	interval time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewStreamer creates a streamer pushing r's snapshots every interval.
func NewStreamer(r *Registry, interval time.Duration) *Streamer {
	return &Streamer{registry: r, interval: interval, clients: map[*websocket.Conn]bool{}}
}

// ServeHTTP upgrades the connection and registers it to receive periodic
// snapshots until it disconnects.
func (s *Streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// Drain (and discard) client reads so the websocket's control frames
	// (ping/pong, close) are still processed; this endpoint is push-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Run pushes snapshots to every connected client until stop is closed.
func (s *Streamer) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.broadcast()
		}
	}
}

func (s *Streamer) broadcast() {
	snap := s.registry.Snapshot()
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}
