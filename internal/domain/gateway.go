package domain

import (
	"context"
	"time"
)

// InboundMessage is a chat message delivered by the platform adapter.
type InboundMessage struct {
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	FromBot   bool      `json:"from_bot"`
	FromAdmin bool      `json:"from_admin"`
	Timestamp time.Time `json:"timestamp"`
}

// Gateway is the outbound surface of the chat platform: member role state,
// role mutations, and message delivery. All calls are best-effort and may
// fail per call.
type Gateway interface {
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	GrantRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error
	RevokeRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error
	SendMessage(ctx context.Context, channelID, content string) error
	Reply(ctx context.Context, channelID, messageID, content string) error
}
