package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/config"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	apperrors "github.com/andrewc156/DiscordLangaugeStreakBot/internal/errors"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/feed"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/streak"
)

// messageHandler consumes inbound chat events delivered over the webhook.
type messageHandler interface {
	HandleMessage(ctx context.Context, msg domain.InboundMessage)
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	store     *streak.Store
	bot       messageHandler
	hub       *feed.Hub
	docStore  domain.DocumentStore
	limits    *ConnectionLimits
	startTime time.Time
}

func NewServer(cfg *config.Config, store *streak.Store, bot messageHandler, hub *feed.Hub, docStore domain.DocumentStore) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = errorHandler

	srv := &Server{
		echo:      e,
		config:    cfg,
		store:     store,
		bot:       bot,
		hub:       hub,
		docStore:  docStore,
		limits:    NewConnectionLimits(500, 10, 10.0, 10),
		startTime: time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("starting server", slog.String("port", s.config.Port))
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// errorHandler renders structured errors as JSON with the status their
// type maps to. Echo's own HTTP errors pass through unchanged.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if httpErr, ok := err.(*echo.HTTPError); ok {
		_ = c.JSON(httpErr.Code, map[string]any{"error": httpErr.Message})
		return
	}

	structured := apperrors.AsStructuredError(err)
	if structured.Type == apperrors.TypeInternal || structured.Type == apperrors.TypePersistence {
		slog.Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
	}
	_ = c.JSON(structured.HTTPStatus(), structured.ToResponse())
}
