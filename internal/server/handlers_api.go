package server

import (
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
)

type leaderboardResponse struct {
	GuildID string                    `json:"guild_id"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

func (s *Server) handleLeaderboard(c echo.Context) error {
	guildID := c.Param("guild")
	entries := s.store.Leaderboard(guildID)
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return c.JSON(200, leaderboardResponse{GuildID: guildID, Entries: entries})
}

func (s *Server) handleUserStreak(c echo.Context) error {
	guildID := c.Param("guild")
	userID := c.Param("user")
	return c.JSON(200, map[string]any{
		"guild_id": guildID,
		"user_id":  userID,
		"streak":   s.store.UserStreak(guildID, userID),
	})
}

type rewardEntry struct {
	Days   int    `json:"days"`
	RoleID string `json:"role_id"`
}

func (s *Server) handleRewards(c echo.Context) error {
	guildID := c.Param("guild")
	rewards := s.store.RoleRewards(guildID)

	entries := make([]rewardEntry, 0, len(rewards))
	for days, roleID := range rewards {
		entries = append(entries, rewardEntry{Days: days, RoleID: roleID})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Days < entries[j].Days })

	return c.JSON(200, map[string]any{
		"guild_id": guildID,
		"rewards":  entries,
	})
}
