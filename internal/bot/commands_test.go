package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
)

func commandMessage(content string, admin bool) domain.InboundMessage {
	return domain.InboundMessage{
		GuildID:   "g1",
		ChannelID: "c1",
		MessageID: "m1",
		UserID:    "u1",
		Content:   content,
		FromAdmin: admin,
		Timestamp: time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC),
	}
}

func TestSetChannelAsAdmin(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!set", true))

	assert.Equal(t, "This channel is now the streak channel!", gateway.lastSent())
	assert.Equal(t, "c1", store.StreakChannel("g1"))
}

func TestSetChannelDeniedForNonAdmin(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!set", false))

	assert.Equal(t, "You need to be an administrator to set the streak channel.", gateway.lastSent())
	assert.Empty(t, store.StreakChannel("g1"))
}

func TestUnsetChannel(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	require.NoError(t, store.SetStreakChannel(context.Background(), "g1", "c1"))

	svc.HandleMessage(context.Background(), commandMessage("!unset", true))

	assert.Equal(t, "The streak channel has been unset for this server.", gateway.lastSent())
	assert.Empty(t, store.StreakChannel("g1"))
}

func TestStreakCommandWithoutStreak(t *testing.T) {
	gateway := newFakeGateway()
	svc, _ := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!streak", false))

	assert.Contains(t, gateway.lastSent(), "you don't have a streak yet")
}

func TestStreakCommandReportsCurrentStreak(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	ctx := context.Background()
	require.NoError(t, store.SetStreakChannel(ctx, "g1", "c1"))
	day := domain.NewDate(2024, time.March, 9)
	_, err := store.RecordActivity(ctx, "g1", "u1", day)
	require.NoError(t, err)
	_, err = store.RecordActivity(ctx, "g1", "u1", day.AddDays(1))
	require.NoError(t, err)

	svc.HandleMessage(ctx, commandMessage("!streak", false))

	assert.Equal(t, "<@u1>, your current streak is 2 days. Keep it up!", gateway.lastSent())
}

func TestLeaderboardEmpty(t *testing.T) {
	gateway := newFakeGateway()
	svc, _ := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!leaderboard", false))

	assert.Equal(t, "No one has started a streak yet. Be the first by posting in the streak channel!", gateway.lastSent())
}

func TestLeaderboardTopTenOrdered(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	ctx := context.Background()
	day := domain.NewDate(2024, time.March, 1)
	for i := 0; i < 12; i++ {
		userID := string(rune('a' + i))
		d := day
		for j := 0; j <= i; j++ {
			_, err := store.RecordActivity(ctx, "g1", userID, d)
			require.NoError(t, err)
			d = d.AddDays(1)
		}
	}

	svc.HandleMessage(ctx, commandMessage("!leaderboard", false))

	sent := gateway.lastSent()
	assert.Contains(t, sent, "**Streak Leaderboard:**")
	assert.Contains(t, sent, "1. <@l> - 12 days")
	assert.Contains(t, sent, "10. <@c> - 3 days")
	assert.NotContains(t, sent, "<@a>")
	assert.NotContains(t, sent, "<@b>")
}

func TestResetCommand(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	ctx := context.Background()
	_, err := store.RecordActivity(ctx, "g1", "42", domain.NewDate(2024, time.March, 9))
	require.NoError(t, err)

	svc.HandleMessage(ctx, commandMessage("!reset <@42>", true))

	assert.Equal(t, "<@42>'s streak has been reset.", gateway.lastSent())
	assert.Equal(t, 0, store.UserStreak("g1", "42"))
}

func TestResetCommandUsage(t *testing.T) {
	gateway := newFakeGateway()
	svc, _ := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!reset", true))

	assert.Equal(t, "Usage: !reset @user", gateway.lastSent())
}

func TestResetCommandDeniedForNonAdmin(t *testing.T) {
	gateway := newFakeGateway()
	svc, _ := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!reset <@42>", false))

	assert.Equal(t, "You need to be an administrator to reset streaks.", gateway.lastSent())
}

func TestAddRoleCommand(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!addrole 7 <@&555>", true))

	assert.Equal(t, "Role reward configured: <@&555> for a 7-day streak.", gateway.lastSent())
	assert.Equal(t, map[int]string{7: "555"}, store.RoleRewards("g1"))
}

func TestAddRoleRejectsNonPositiveDays(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!addrole 0 <@&555>", true))

	assert.Equal(t, "Days must be a positive integer.", gateway.lastSent())
	assert.Empty(t, store.RoleRewards("g1"))
}

func TestAddRoleUsageOnBadArguments(t *testing.T) {
	gateway := newFakeGateway()
	svc, _ := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!addrole seven <@&555>", true))

	assert.Equal(t, "Usage: !addrole <days> <@role>", gateway.lastSent())
}

func TestRemoveRoleCommand(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	require.NoError(t, store.SetRoleReward(context.Background(), "g1", 7, "555"))

	svc.HandleMessage(context.Background(), commandMessage("!removerole 7", true))

	assert.Equal(t, "Removed role reward for a 7-day streak, if it existed.", gateway.lastSent())
	assert.Empty(t, store.RoleRewards("g1"))
}

func TestListRolesEmpty(t *testing.T) {
	gateway := newFakeGateway()
	svc, _ := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!listroles", false))

	assert.Equal(t, "No role rewards have been configured.", gateway.lastSent())
}

func TestListRolesSortedByThreshold(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	ctx := context.Background()
	require.NoError(t, store.SetRoleReward(ctx, "g1", 30, "r30"))
	require.NoError(t, store.SetRoleReward(ctx, "g1", 7, "r7"))
	require.NoError(t, store.SetRoleReward(ctx, "g1", 1, "r1"))

	svc.HandleMessage(ctx, commandMessage("!listroles", false))

	assert.Equal(t, "**Role Rewards:**\n1 day -> <@&r1>\n7 days -> <@&r7>\n30 days -> <@&r30>", gateway.lastSent())
}

func TestHelpListsCommands(t *testing.T) {
	gateway := newFakeGateway()
	svc, _ := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!help", false))

	sent := gateway.lastSent()
	assert.Contains(t, sent, "**Streak Bot Commands**")
	for _, cmd := range []string{"!set", "!streak", "!leaderboard", "!reset", "!unset", "!addrole", "!removerole", "!listroles", "!help"} {
		assert.Contains(t, sent, cmd)
	}
}

func TestUnknownCommandIsSilent(t *testing.T) {
	gateway := newFakeGateway()
	svc, _ := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), commandMessage("!ping", false))

	assert.Empty(t, gateway.sent)
}
