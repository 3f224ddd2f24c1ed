package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/platform/correlation"
)

const signatureHeader = "X-Signature-SHA256"

// handleWebhookEvent accepts a chat message event from the platform bridge
// and runs it through the bot. When a webhook secret is configured, the
// request body must carry a valid HMAC-SHA256 signature.
func (s *Server) handleWebhookEvent(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "failed to read body"})
	}

	if s.config.WebhookSecret != "" {
		if !verifySignature(body, c.Request().Header.Get(signatureHeader), s.config.WebhookSecret) {
			slog.Warn("rejected webhook event: bad signature")
			return c.JSON(403, map[string]string{"error": "invalid signature"})
		}
	}

	var msg domain.InboundMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid event payload"})
	}
	if msg.GuildID == "" || msg.ChannelID == "" || msg.UserID == "" {
		return c.JSON(400, map[string]string{"error": "missing guild_id, channel_id or user_id"})
	}

	ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
	s.bot.HandleMessage(ctx, msg)

	return c.NoContent(202)
}

func verifySignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
