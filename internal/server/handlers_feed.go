package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // overlay widgets connect from arbitrary origins
	},
}

// handleFeedSocket upgrades the request and subscribes the client to a
// guild's streak feed until the connection drops.
func (s *Server) handleFeedSocket(c echo.Context) error {
	guildID := c.Param("guild")
	if guildID == "" {
		return c.String(400, "Missing guild ID")
	}

	ip := c.RealIP()
	ok, reason := s.limits.Acquire(ip)
	if !ok {
		slog.Warn("rejected feed connection",
			slog.String("ip", ip), slog.String("reason", string(reason)))
		return c.String(429, "Too many connections")
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.hub.Register(guildID, conn); err != nil {
		slog.Warn("failed to register feed client", slog.Any("error", err))
		return nil
	}

	// Read pump, blocks until the connection closes
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(guildID, conn)

	return nil
}
