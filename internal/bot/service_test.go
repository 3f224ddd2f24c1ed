package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/streak"
)

type fakeGateway struct {
	mu sync.Mutex

	memberRoles    map[string][]string
	memberRolesErr error
	grantErr       error
	replyErr       error
	sendErr        error

	granted  [][]string
	revoked  [][]string
	sent     []string
	replies  []string
	replyIDs []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{memberRoles: map[string][]string{}}
}

func (g *fakeGateway) MemberRoles(_ context.Context, _, userID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.memberRolesErr != nil {
		return nil, g.memberRolesErr
	}
	return g.memberRoles[userID], nil
}

func (g *fakeGateway) GrantRoles(_ context.Context, _, _ string, roleIDs []string, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.grantErr != nil {
		return g.grantErr
	}
	g.granted = append(g.granted, roleIDs)
	return nil
}

func (g *fakeGateway) RevokeRoles(_ context.Context, _, _ string, roleIDs []string, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.revoked = append(g.revoked, roleIDs)
	return nil
}

func (g *fakeGateway) SendMessage(_ context.Context, _, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, content)
	return nil
}

func (g *fakeGateway) Reply(_ context.Context, _, messageID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.replyErr != nil {
		return g.replyErr
	}
	g.replies = append(g.replies, content)
	g.replyIDs = append(g.replyIDs, messageID)
	return nil
}

func (g *fakeGateway) lastSent() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		return ""
	}
	return g.sent[len(g.sent)-1]
}

type nullDocStore struct{}

func (nullDocStore) Load(context.Context) (*domain.Document, error) { return domain.NewDocument(), nil }
func (nullDocStore) Save(context.Context, *domain.Document) error   { return nil }
func (nullDocStore) Ping(context.Context) error                     { return nil }
func (nullDocStore) Close() error                                   { return nil }

type recordingFeed struct {
	mu      sync.Mutex
	updates []domain.StreakUpdate
}

func (f *recordingFeed) PublishStreakUpdate(update domain.StreakUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
}

func newTestService(t *testing.T, gateway *fakeGateway, feed domain.FeedPublisher) (*Service, *streak.Store) {
	t.Helper()
	store := streak.NewStore(nullDocStore{})
	require.NoError(t, store.Load(context.Background()))
	return NewService(store, gateway, feed, "!"), store
}

func activityMessage(content string) domain.InboundMessage {
	return domain.InboundMessage{
		GuildID:   "g1",
		ChannelID: "c1",
		MessageID: "m1",
		UserID:    "u1",
		Content:   content,
		Timestamp: time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC),
	}
}

func TestHandleMessageIgnoresBots(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	require.NoError(t, store.SetStreakChannel(context.Background(), "g1", "c1"))

	msg := activityMessage("Streak: practiced today")
	msg.FromBot = true
	svc.HandleMessage(context.Background(), msg)

	assert.Empty(t, gateway.replies)
	assert.Equal(t, 0, store.UserStreak("g1", "u1"))
}

func TestActivityRecordsStreakAndReplies(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	require.NoError(t, store.SetStreakChannel(context.Background(), "g1", "c1"))

	svc.HandleMessage(context.Background(), activityMessage("Streak: practiced today"))

	assert.Equal(t, 1, store.UserStreak("g1", "u1"))
	require.Len(t, gateway.replies, 1)
	assert.Equal(t, "Great job <@u1>! Your streak is now 1 day!", gateway.replies[0])
	assert.Equal(t, []string{"m1"}, gateway.replyIDs)
}

func TestActivityPrefixIsCaseInsensitive(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	require.NoError(t, store.SetStreakChannel(context.Background(), "g1", "c1"))

	svc.HandleMessage(context.Background(), activityMessage("  STREAK: done"))

	assert.Equal(t, 1, store.UserStreak("g1", "u1"))
}

func TestActivityIgnoredWithoutPrefix(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	require.NoError(t, store.SetStreakChannel(context.Background(), "g1", "c1"))

	svc.HandleMessage(context.Background(), activityMessage("just chatting"))

	assert.Equal(t, 0, store.UserStreak("g1", "u1"))
	assert.Empty(t, gateway.replies)
}

func TestActivityIgnoredOutsideStreakChannel(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	require.NoError(t, store.SetStreakChannel(context.Background(), "g1", "other"))

	svc.HandleMessage(context.Background(), activityMessage("Streak: practiced"))

	assert.Equal(t, 0, store.UserStreak("g1", "u1"))
	assert.Empty(t, gateway.replies)
}

func TestActivityIgnoredWithoutConfiguredChannel(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)

	svc.HandleMessage(context.Background(), activityMessage("Streak: practiced"))

	assert.Equal(t, 0, store.UserStreak("g1", "u1"))
	assert.Empty(t, gateway.replies)
}

func TestActivityGrantsEarnedRoles(t *testing.T) {
	gateway := newFakeGateway()
	svc, store := newTestService(t, gateway, nil)
	ctx := context.Background()
	require.NoError(t, store.SetStreakChannel(ctx, "g1", "c1"))
	require.NoError(t, store.SetRoleReward(ctx, "g1", 1, "role-1"))
	require.NoError(t, store.SetRoleReward(ctx, "g1", 30, "role-30"))

	svc.HandleMessage(ctx, activityMessage("Streak: day one"))

	require.Len(t, gateway.granted, 1)
	assert.Equal(t, []string{"role-1"}, gateway.granted[0])
}

func TestActivitySkipsAlreadyHeldRoles(t *testing.T) {
	gateway := newFakeGateway()
	gateway.memberRoles["u1"] = []string{"role-1"}
	svc, store := newTestService(t, gateway, nil)
	ctx := context.Background()
	require.NoError(t, store.SetStreakChannel(ctx, "g1", "c1"))
	require.NoError(t, store.SetRoleReward(ctx, "g1", 1, "role-1"))

	svc.HandleMessage(ctx, activityMessage("Streak: day one"))

	assert.Empty(t, gateway.granted)
}

func TestActivityReplyStillSentWhenGrantFails(t *testing.T) {
	gateway := newFakeGateway()
	gateway.grantErr = domain.ErrForbidden
	svc, store := newTestService(t, gateway, nil)
	ctx := context.Background()
	require.NoError(t, store.SetStreakChannel(ctx, "g1", "c1"))
	require.NoError(t, store.SetRoleReward(ctx, "g1", 1, "role-1"))

	svc.HandleMessage(ctx, activityMessage("Streak: day one"))

	require.Len(t, gateway.replies, 1)
	assert.Equal(t, 1, store.UserStreak("g1", "u1"))
}

func TestActivitySwallowsForbiddenReply(t *testing.T) {
	gateway := newFakeGateway()
	gateway.replyErr = domain.ErrForbidden
	svc, store := newTestService(t, gateway, nil)
	require.NoError(t, store.SetStreakChannel(context.Background(), "g1", "c1"))

	svc.HandleMessage(context.Background(), activityMessage("Streak: practiced"))

	assert.Equal(t, 1, store.UserStreak("g1", "u1"))
}

func TestActivityPublishesFeedUpdate(t *testing.T) {
	gateway := newFakeGateway()
	feed := &recordingFeed{}
	svc, store := newTestService(t, gateway, feed)
	require.NoError(t, store.SetStreakChannel(context.Background(), "g1", "c1"))

	msg := activityMessage("Streak: practiced")
	svc.HandleMessage(context.Background(), msg)

	require.Len(t, feed.updates, 1)
	update := feed.updates[0]
	assert.Equal(t, "g1", update.GuildID)
	assert.Equal(t, "u1", update.UserID)
	assert.Equal(t, 1, update.Streak)
	assert.Equal(t, domain.DateOf(msg.Timestamp), update.Date)
}
