// Package feed streams live scores and leaderboard snapshots to websocket
// clients.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/config"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/leaderboard"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	ip   string
}

// Hub fans events out to every connected client.
type Hub struct {
	cfg      config.FeedConfig
	ws       config.WebSocketConfig
	board    *leaderboard.Leaderboard
	limiter  *ConnLimiter
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub that serves snapshots of board.
func NewHub(cfg config.FeedConfig, ws config.WebSocketConfig, board *leaderboard.Leaderboard) *Hub {
	h := &Hub{
		cfg:     cfg,
		ws:      ws,
		board:   board,
		limiter: NewConnLimiter(cfg.MaxPerIP, cfg.MaxTotal),
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := h.ws.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("Feed connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}
	return h
}

// Handler returns the HTTP handler serving /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	return mux
}

// ListenAndServe serves the feed until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              h.cfg.Address,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		h.Close()
	}()

	logger.Info("Feed listening", "address", h.cfg.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeWS upgrades the request and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ip := realIP(r)
	if !h.limiter.TryAcquire(ip) {
		logger.Warning("Feed connection rejected - limit exceeded", "client_ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("Feed upgrade failed", "error", err)
		h.limiter.Release(ip)
		return
	}

	if h.ws.MaxMessageSize > 0 {
		conn.SetReadLimit(h.ws.MaxMessageSize)
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer), ip: ip}

	snapshot, err := json.Marshal(h.snapshot())
	if err != nil {
		logger.Error("Failed to marshal leaderboard snapshot", "error", err)
		conn.Close()
		h.limiter.Release(ip)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		h.limiter.Release(ip)
		return
	}
	c.send <- snapshot
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	logger.Debug("Feed client connected", "client_ip", ip)

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client input and unregisters the client once the
// connection fails.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked unregisters c. Callers hold h.mu.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.limiter.Release(c.ip)
}

func (h *Hub) snapshot() LeaderboardMessage {
	msg := LeaderboardMessage{Type: TypeLeaderboard, Entries: []EntryJSON{}}
	if h.board == nil {
		return msg
	}
	msg.Mode = h.board.Mode()
	for _, e := range h.board.Top(h.cfg.TopSize) {
		msg.Entries = append(msg.Entries, entryJSON(e))
	}
	return msg
}

func (h *Hub) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal feed message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			logger.Warning("Dropping slow feed client", "client_ip", c.ip)
			h.dropLocked(c)
		}
	}
}

// ScoreChanged broadcasts a score event. It makes the hub a generator
// score sink.
func (h *Hub) ScoreChanged(player uuid.UUID, score int) {
	h.broadcast(ScoreMessage{Type: TypeScore, Player: player, Score: score})
}

// RunFinished broadcasts the end of a run. best reports whether the score
// entered the leaderboard.
func (h *Hub) RunFinished(player uuid.UUID, s leaderboard.Score, best bool) {
	msg := FinishMessage{
		Type:   TypeFinish,
		Player: player,
		Name:   s.Name,
		Score:  s.Score,
		Time:   s.Time,
		Best:   best,
	}
	if h.board != nil {
		msg.Mode = h.board.Mode()
		msg.Rank = h.board.Rank(player)
	}
	h.broadcast(msg)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}
