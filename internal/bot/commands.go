package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	apperrors "github.com/andrewc156/DiscordLangaugeStreakBot/internal/errors"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/logging"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/metrics"
)

const leaderboardLimit = 10

// handleCommand parses and dispatches a prefixed command message. Unknown
// commands are ignored so the bot stays quiet on prefixed chatter meant for
// other bots.
func (s *Service) handleCommand(ctx context.Context, msg domain.InboundMessage) {
	fields := strings.Fields(strings.TrimPrefix(msg.Content, s.prefix))
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(fields[0])
	args := fields[1:]

	var err error
	switch command {
	case "set":
		err = s.cmdSetChannel(ctx, msg)
	case "unset":
		err = s.cmdUnsetChannel(ctx, msg)
	case "streak":
		err = s.cmdStreak(ctx, msg)
	case "leaderboard":
		err = s.cmdLeaderboard(ctx, msg)
	case "reset":
		err = s.cmdReset(ctx, msg, args)
	case "addrole":
		err = s.cmdAddRole(ctx, msg, args)
	case "removerole":
		err = s.cmdRemoveRole(ctx, msg, args)
	case "listroles":
		err = s.cmdListRoles(ctx, msg)
	case "help":
		err = s.cmdHelp(ctx, msg)
	default:
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
		slog.Error("command failed",
			slog.String("command", command), logging.WithGuild(msg.GuildID), logging.WithError(err))
	}
	metrics.CommandsTotal.WithLabelValues(command, status).Inc()
}

func (s *Service) cmdSetChannel(ctx context.Context, msg domain.InboundMessage) error {
	if !msg.FromAdmin {
		return s.gateway.SendMessage(ctx, msg.ChannelID, "You need to be an administrator to set the streak channel.")
	}
	if err := s.store.SetStreakChannel(ctx, msg.GuildID, msg.ChannelID); err != nil {
		s.sendBestEffort(ctx, msg.ChannelID, "An error occurred while setting the streak channel.")
		return err
	}
	return s.gateway.SendMessage(ctx, msg.ChannelID, "This channel is now the streak channel!")
}

func (s *Service) cmdUnsetChannel(ctx context.Context, msg domain.InboundMessage) error {
	if !msg.FromAdmin {
		return s.gateway.SendMessage(ctx, msg.ChannelID, "You need to be an administrator to unset the streak channel.")
	}
	if err := s.store.UnsetStreakChannel(ctx, msg.GuildID); err != nil {
		s.sendBestEffort(ctx, msg.ChannelID, "An error occurred while unsetting the streak channel.")
		return err
	}
	return s.gateway.SendMessage(ctx, msg.ChannelID, "The streak channel has been unset for this server.")
}

func (s *Service) cmdStreak(ctx context.Context, msg domain.InboundMessage) error {
	count := s.store.UserStreak(msg.GuildID, msg.UserID)
	if count <= 0 {
		reply := fmt.Sprintf("<@%s>, you don't have a streak yet. Post a message starting with 'Streak:' in the designated channel to begin!", msg.UserID)
		return s.gateway.SendMessage(ctx, msg.ChannelID, reply)
	}
	reply := fmt.Sprintf("<@%s>, your current streak is %d %s. Keep it up!", msg.UserID, count, dayWord(count))
	return s.gateway.SendMessage(ctx, msg.ChannelID, reply)
}

func (s *Service) cmdLeaderboard(ctx context.Context, msg domain.InboundMessage) error {
	entries := s.store.Leaderboard(msg.GuildID)
	if len(entries) == 0 {
		return s.gateway.SendMessage(ctx, msg.ChannelID, "No one has started a streak yet. Be the first by posting in the streak channel!")
	}
	if len(entries) > leaderboardLimit {
		entries = entries[:leaderboardLimit]
	}

	var b strings.Builder
	b.WriteString("**Streak Leaderboard:**")
	for i, entry := range entries {
		fmt.Fprintf(&b, "\n%d. <@%s> - %d %s", i+1, entry.UserID, entry.Streak, dayWord(entry.Streak))
	}
	return s.gateway.SendMessage(ctx, msg.ChannelID, b.String())
}

func (s *Service) cmdReset(ctx context.Context, msg domain.InboundMessage, args []string) error {
	if !msg.FromAdmin {
		return s.gateway.SendMessage(ctx, msg.ChannelID, "You need to be an administrator to reset streaks.")
	}
	if len(args) != 1 {
		return s.gateway.SendMessage(ctx, msg.ChannelID, "Usage: "+s.prefix+"reset @user")
	}
	userID, ok := parseMention(args[0])
	if !ok {
		return s.gateway.SendMessage(ctx, msg.ChannelID, "Usage: "+s.prefix+"reset @user")
	}
	if err := s.store.ResetUserStreak(ctx, msg.GuildID, userID); err != nil {
		s.sendBestEffort(ctx, msg.ChannelID, "An error occurred while resetting the streak.")
		return err
	}
	metrics.StreaksResetTotal.Inc()
	return s.gateway.SendMessage(ctx, msg.ChannelID, fmt.Sprintf("<@%s>'s streak has been reset.", userID))
}

func (s *Service) cmdAddRole(ctx context.Context, msg domain.InboundMessage, args []string) error {
	if !msg.FromAdmin {
		return s.gateway.SendMessage(ctx, msg.ChannelID, "You need to be an administrator to configure role rewards.")
	}
	usage := "Usage: " + s.prefix + "addrole <days> <@role>"
	if len(args) != 2 {
		return s.gateway.SendMessage(ctx, msg.ChannelID, usage)
	}
	days, err := strconv.Atoi(args[0])
	if err != nil {
		return s.gateway.SendMessage(ctx, msg.ChannelID, usage)
	}
	roleID, ok := parseRoleMention(args[1])
	if !ok {
		return s.gateway.SendMessage(ctx, msg.ChannelID, usage)
	}
	if err := s.store.SetRoleReward(ctx, msg.GuildID, days, roleID); err != nil {
		if apperrors.AsStructuredError(err).Type == apperrors.TypeValidation {
			return s.gateway.SendMessage(ctx, msg.ChannelID, "Days must be a positive integer.")
		}
		s.sendBestEffort(ctx, msg.ChannelID, "An error occurred while configuring role rewards.")
		return err
	}
	reply := fmt.Sprintf("Role reward configured: <@&%s> for a %d-day streak.", roleID, days)
	return s.gateway.SendMessage(ctx, msg.ChannelID, reply)
}

func (s *Service) cmdRemoveRole(ctx context.Context, msg domain.InboundMessage, args []string) error {
	if !msg.FromAdmin {
		return s.gateway.SendMessage(ctx, msg.ChannelID, "You need to be an administrator to remove role rewards.")
	}
	usage := "Usage: " + s.prefix + "removerole <days>"
	if len(args) != 1 {
		return s.gateway.SendMessage(ctx, msg.ChannelID, usage)
	}
	days, err := strconv.Atoi(args[0])
	if err != nil {
		return s.gateway.SendMessage(ctx, msg.ChannelID, usage)
	}
	if err := s.store.RemoveRoleReward(ctx, msg.GuildID, days); err != nil {
		s.sendBestEffort(ctx, msg.ChannelID, "An error occurred while removing role rewards.")
		return err
	}
	reply := fmt.Sprintf("Removed role reward for a %d-day streak, if it existed.", days)
	return s.gateway.SendMessage(ctx, msg.ChannelID, reply)
}

func (s *Service) cmdListRoles(ctx context.Context, msg domain.InboundMessage) error {
	rewards := s.store.RoleRewards(msg.GuildID)
	if len(rewards) == 0 {
		return s.gateway.SendMessage(ctx, msg.ChannelID, "No role rewards have been configured.")
	}

	thresholds := make([]int, 0, len(rewards))
	for days := range rewards {
		thresholds = append(thresholds, days)
	}
	sort.Ints(thresholds)

	var b strings.Builder
	b.WriteString("**Role Rewards:**")
	for _, days := range thresholds {
		fmt.Fprintf(&b, "\n%d %s -> <@&%s>", days, dayWord(days), rewards[days])
	}
	return s.gateway.SendMessage(ctx, msg.ChannelID, b.String())
}

func (s *Service) cmdHelp(ctx context.Context, msg domain.InboundMessage) error {
	p := s.prefix
	lines := []string{
		"**Streak Bot Commands**",
		"`" + p + "set` - Set this channel as the streak channel (admin only)",
		"`" + p + "streak` - Show your current streak in this server",
		"`" + p + "leaderboard` - Show the server's streak leaderboard",
		"`" + p + "reset @user` - Reset a member's streak (admin only)",
		"`" + p + "unset` - Unset the streak channel for this server (admin only)",
		"`" + p + "addrole <days> <@role>` - Award a role when members reach a streak of `<days>` (admin only)",
		"`" + p + "removerole <days>` - Remove the role reward for a specific streak length (admin only)",
		"`" + p + "listroles` - List configured role rewards for this server",
		"`" + p + "help` - Show this help message",
	}
	return s.gateway.SendMessage(ctx, msg.ChannelID, strings.Join(lines, "\n"))
}

// sendBestEffort posts a failure notice without caring whether it lands;
// the underlying command error is what gets reported.
func (s *Service) sendBestEffort(ctx context.Context, channelID, content string) {
	if err := s.gateway.SendMessage(ctx, channelID, content); err != nil {
		slog.Warn("failed to send command reply", logging.WithError(err))
	}
}

// parseMention extracts a user ID from a <@123> or <@!123> mention, also
// accepting a bare numeric ID.
func parseMention(arg string) (string, bool) {
	id := strings.TrimSuffix(strings.TrimPrefix(arg, "<@"), ">")
	id = strings.TrimPrefix(id, "!")
	return id, isSnowflake(id)
}

// parseRoleMention extracts a role ID from a <@&123> mention or bare ID.
func parseRoleMention(arg string) (string, bool) {
	id := strings.TrimSuffix(strings.TrimPrefix(arg, "<@&"), ">")
	return id, isSnowflake(id)
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
