// Package feed pushes live streak updates to WebSocket subscribers. Each
// subscriber watches a single guild; updates fan out through a hub goroutine
// that owns all connection state.
package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/metrics"
)

const (
	maxClientsPerGuild = 50
	writeTimeout       = 5 * time.Second
	pingInterval       = 30 * time.Second
	sendBufferSize     = 16
)

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	guildID string
	conn    *websocket.Conn
	errCh   chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	guildID string
	conn    *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	guildID string
	data    []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdClientCount struct {
	guildID string
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// clientWriter serializes writes to one connection so a stalled client
// never blocks the hub goroutine.
type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// Hub owns all feed connections, keyed by guild. It implements
// domain.FeedPublisher.
type Hub struct {
	cmdCh   chan hubCmd
	clock   clockwork.Clock
	clients map[string]map[*websocket.Conn]*clientWriter
}

var _ domain.FeedPublisher = (*Hub)(nil)

// NewHub starts the hub goroutine, including a periodic ping to keep
// intermediaries from dropping idle connections.
func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clock:   clock,
		clients: make(map[string]map[*websocket.Conn]*clientWriter),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	ticker := h.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case cmdRegister:
				h.handleRegister(c)
			case cmdUnregister:
				h.handleUnregister(c.guildID, c.conn)
			case cmdBroadcast:
				h.handleBroadcast(c)
			case cmdClientCount:
				c.replyCh <- len(h.clients[c.guildID])
			case cmdStop:
				h.handleStop()
				return
			}
		case <-ticker.Chan():
			h.handlePing()
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	clients, exists := h.clients[c.guildID]
	if !exists {
		clients = make(map[*websocket.Conn]*clientWriter)
		h.clients[c.guildID] = clients
	}

	if len(clients) >= maxClientsPerGuild {
		slog.Warn("rejecting feed client: guild at capacity",
			slog.String("guild_id", c.guildID), slog.Int("max", maxClientsPerGuild))
		metrics.FeedConnectionsTotal.WithLabelValues("rejected").Inc()
		c.conn.Close()
		c.errCh <- fmt.Errorf("max clients per guild (%d) reached", maxClientsPerGuild)
		return
	}

	clients[c.conn] = newClientWriter(c.conn)
	metrics.FeedConnectionsTotal.WithLabelValues("accepted").Inc()
	metrics.FeedConnectedClients.Inc()
	slog.Debug("feed client registered",
		slog.String("guild_id", c.guildID), slog.Int("total", len(clients)))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(guildID string, conn *websocket.Conn) {
	clients, exists := h.clients[guildID]
	if !exists {
		return
	}
	cw, exists := clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, conn)
	metrics.FeedConnectedClients.Dec()
	if len(clients) == 0 {
		delete(h.clients, guildID)
	}
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	clients, exists := h.clients[c.guildID]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range clients {
		select {
		case cw.sendCh <- c.data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		metrics.FeedSlowClientsEvicted.Inc()
		slog.Warn("evicting slow feed client", slog.String("guild_id", c.guildID))
		h.handleUnregister(c.guildID, conn)
	}
}

func (h *Hub) handlePing() {
	for guildID, clients := range h.clients {
		var dead []*websocket.Conn
		for conn := range clients {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				dead = append(dead, conn)
			}
		}
		for _, conn := range dead {
			h.handleUnregister(guildID, conn)
		}
	}
}

func (h *Hub) handleStop() {
	for guildID, clients := range h.clients {
		for _, cw := range clients {
			cw.stop()
			metrics.FeedConnectedClients.Dec()
		}
		delete(h.clients, guildID)
	}
}

// Register adds a subscriber for a guild's feed. Returns an error when the
// guild is at its connection cap; the connection is closed in that case.
func (h *Hub) Register(guildID string, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{guildID: guildID, conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister removes a subscriber. Safe to call for unknown connections.
func (h *Hub) Unregister(guildID string, conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{guildID: guildID, conn: conn}
}

// PublishStreakUpdate fans an update out to the guild's subscribers.
// Never blocks the caller.
func (h *Hub) PublishStreakUpdate(update domain.StreakUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		slog.Error("failed to marshal feed update", slog.Any("error", err))
		return
	}
	h.cmdCh <- cmdBroadcast{guildID: update.GuildID, data: data}
}

// ClientCount reports connected subscribers for a guild.
func (h *Hub) ClientCount(guildID string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{guildID: guildID, replyCh: replyCh}
	return <-replyCh
}

// Stop closes every connection and terminates the hub goroutine.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
