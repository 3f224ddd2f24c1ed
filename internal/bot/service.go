// Package bot contains the chat-facing behavior: activity tracking in the
// configured streak channel, reward grants, and the command surface.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/logging"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/metrics"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/streak"
)

const activityPrefix = "streak:"

// Service processes inbound chat messages. It dispatches commands and
// records streak activity for qualifying messages in the streak channel.
type Service struct {
	store   *streak.Store
	gateway domain.Gateway
	feed    domain.FeedPublisher
	prefix  string
}

// NewService wires the message handler. feed may be nil when no live feed
// is running.
func NewService(store *streak.Store, gateway domain.Gateway, feed domain.FeedPublisher, commandPrefix string) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		feed:    feed,
		prefix:  commandPrefix,
	}
}

// HandleMessage routes a single inbound message. Messages from bots are
// dropped. Command messages are dispatched by prefix; everything else goes
// through the activity flow.
func (s *Service) HandleMessage(ctx context.Context, msg domain.InboundMessage) {
	if msg.FromBot {
		return
	}
	if strings.HasPrefix(msg.Content, s.prefix) {
		s.handleCommand(ctx, msg)
		return
	}
	s.handleActivity(ctx, msg)
}

// handleActivity records a streak for messages starting with the activity
// prefix, posted in the guild's configured streak channel.
func (s *Service) handleActivity(ctx context.Context, msg domain.InboundMessage) {
	channelID := s.store.StreakChannel(msg.GuildID)
	if channelID == "" || channelID != msg.ChannelID {
		metrics.ActivitiesRecordedTotal.WithLabelValues("ignored").Inc()
		return
	}

	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(strings.ToLower(content), activityPrefix) {
		metrics.ActivitiesRecordedTotal.WithLabelValues("ignored").Inc()
		return
	}

	today := domain.DateOf(msg.Timestamp)
	count, err := s.store.RecordActivity(ctx, msg.GuildID, msg.UserID, today)
	if err != nil {
		// In-memory state is already updated; the write failure is logged
		// and the user still gets their streak confirmation.
		slog.Error("failed to persist activity",
			logging.WithGuild(msg.GuildID), logging.WithUser(msg.UserID), logging.WithError(err))
	}

	s.applyRewards(ctx, msg.GuildID, msg.UserID, count)

	if s.feed != nil {
		s.feed.PublishStreakUpdate(domain.StreakUpdate{
			GuildID: msg.GuildID,
			UserID:  msg.UserID,
			Streak:  count,
			Date:    today,
		})
	}

	reply := fmt.Sprintf("Great job <@%s>! Your streak is now %d %s!", msg.UserID, count, dayWord(count))
	if err := s.gateway.Reply(ctx, msg.ChannelID, msg.MessageID, reply); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return
		}
		slog.Warn("failed to send streak reply",
			logging.WithGuild(msg.GuildID), logging.WithError(err))
	}
}

// applyRewards grants any reward roles the member has now reached but does
// not yet hold. Gateway failures are logged, never surfaced to the channel.
func (s *Service) applyRewards(ctx context.Context, guildID, userID string, streakDays int) {
	rewards := s.store.RoleRewards(guildID)
	if len(rewards) == 0 {
		return
	}

	currentRoles, err := s.gateway.MemberRoles(ctx, guildID, userID)
	if err != nil {
		slog.Warn("failed to look up member roles",
			logging.WithGuild(guildID), logging.WithUser(userID), logging.WithError(err))
		return
	}

	grants := streak.ResolveGrants(streakDays, rewards, currentRoles)
	if len(grants) == 0 {
		return
	}

	if err := s.gateway.GrantRoles(ctx, guildID, userID, grants, "Streak reward"); err != nil {
		slog.Warn("failed to grant reward roles",
			logging.WithGuild(guildID), logging.WithUser(userID), logging.WithError(err))
		return
	}
	metrics.RolesGrantedTotal.Add(float64(len(grants)))
	slog.Info("granted reward roles",
		logging.WithGuild(guildID), logging.WithUser(userID), slog.Int("roles", len(grants)))
}

func dayWord(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
