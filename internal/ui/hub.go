package ui

import (
	crand "crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Msg is the wire envelope every UI event is marshaled into before being
// pushed to a connected viewer.
type Msg struct {
	T string                 `json:"t"`
	M map[string]interface{} `json:"m,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub is a Sink that broadcasts every event to any number of connected
// websocket viewers. It never blocks the core: a slow or absent viewer
// just misses events (buffered send with a default case).
type Hub struct {
	allowOrigins map[string]bool

	mu      sync.RWMutex
	clients map[*client]struct{}

	logger *zap.Logger
}

// NewHub builds a Hub. allow lists the Origin headers accepted on /ws;
// an empty list accepts any origin.
func NewHub(allow []string, logger *zap.Logger) *Hub {
	m := map[string]bool{}
	for _, a := range allow {
		if a != "" {
			m[a] = true
		}
	}
	return &Hub{
		allowOrigins: m,
		clients:      map[*client]struct{}{},
		logger:       logger,
	}
}

// ServeWS upgrades the request to a websocket and registers the connection
// as a viewer until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if len(h.allowOrigins) > 0 && origin != "" && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	c := &client{id: randID(), conn: conn, send: make(chan []byte, 64)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("ui viewer connected", zap.String("client_id", c.id))

	go h.writeLoop(r, c)
	h.readLoop(r, c)

	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
	h.logger.Info("ui viewer disconnected", zap.String("client_id", c.id))
}

func (h *Hub) writeLoop(r *http.Request, c *client) {
	ping := time.NewTicker(15 * time.Second)
	defer func() {
		ping.Stop()
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.Write(r.Context(), websocket.MessageText, msg)
		case <-ping.C:
			_ = c.conn.Ping(r.Context())
		}
	}
}

func (h *Hub) readLoop(r *http.Request, c *client) {
	for {
		if _, _, err := c.conn.Read(r.Context()); err != nil {
			return
		}
		// The UI sink is fire-and-forget one-way; inbound frames (pings
		// aside) are not part of the engine's contract and are dropped.
	}
}

func (h *Hub) broadcast(msg Msg) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("ui: marshal event", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
		}
	}
}

func randID() string {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Sink implementation.

func (h *Hub) PlaceCard(card, slot int) {
	h.broadcast(Msg{T: "place_card", M: map[string]interface{}{"card": card, "slot": slot}})
}

func (h *Hub) RemoveCard(slot int) {
	h.broadcast(Msg{T: "remove_card", M: map[string]interface{}{"slot": slot}})
}

func (h *Hub) PlaceToken(player, slot int) {
	h.broadcast(Msg{T: "place_token", M: map[string]interface{}{"player": player, "slot": slot}})
}

func (h *Hub) RemoveToken(player, slot int) {
	h.broadcast(Msg{T: "remove_token", M: map[string]interface{}{"player": player, "slot": slot}})
}

func (h *Hub) SetScore(player, score int) {
	h.broadcast(Msg{T: "score", M: map[string]interface{}{"player": player, "score": score}})
}

func (h *Hub) SetFreeze(player, remainingMillis int) {
	h.broadcast(Msg{T: "freeze", M: map[string]interface{}{"player": player, "remaining_ms": remainingMillis}})
}

func (h *Hub) SetCountdown(millisLeft int, warn bool) {
	h.broadcast(Msg{T: "countdown", M: map[string]interface{}{"millis_left": millisLeft, "warn": warn}})
}

func (h *Hub) AnnounceWinner(playerIDs []int) {
	h.broadcast(Msg{T: "winner", M: map[string]interface{}{"player_ids": playerIDs}})
}
