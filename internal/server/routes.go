package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Read-only streak API
	s.echo.GET("/api/guilds/:guild/leaderboard", s.handleLeaderboard)
	s.echo.GET("/api/guilds/:guild/users/:user/streak", s.handleUserStreak)
	s.echo.GET("/api/guilds/:guild/rewards", s.handleRewards)

	// Inbound chat events from the platform bridge
	s.echo.POST("/webhooks/events", s.handleWebhookEvent)

	// Live streak feed
	s.echo.GET("/ws/feed/:guild", s.handleFeedSocket)
}
