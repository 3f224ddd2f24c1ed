package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
)

func TestStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "streaks.json"))

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Guilds)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "streaks.json")
	store := NewStore(path)

	channel := "c1"
	doc := &domain.Document{Guilds: map[string]*domain.GuildDocument{
		"g1": {
			StreakChannelID: &channel,
			Users: map[string]domain.UserDocument{
				"u1": {Streak: 12, LastDate: domain.NewDate(2025, time.June, 1)},
				"u2": {Streak: 0},
			},
			RoleRewards: map[string]string{"10": "r10"},
		},
	}}

	require.NoError(t, store.Save(context.Background(), doc))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, loaded.Guilds, "g1")
	g := loaded.Guilds["g1"]
	require.NotNil(t, g.StreakChannelID)
	assert.Equal(t, "c1", *g.StreakChannelID)
	assert.Equal(t, 12, g.Users["u1"].Streak)
	assert.Equal(t, "2025-06-01", g.Users["u1"].LastDate.String())
	assert.True(t, g.Users["u2"].LastDate.IsZero())
	assert.Equal(t, "r10", g.RoleRewards["10"])
}

func TestStore_SaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "streaks.json"))

	require.NoError(t, store.Save(context.Background(), domain.NewDocument()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "streaks.json", entries[0].Name())
}

func TestStore_CorruptFileYieldsEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streaks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewStore(path)
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Guilds)

	// Original file is left untouched.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestStore_NullChannelAndDateOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streaks.json")
	store := NewStore(path)

	doc := &domain.Document{Guilds: map[string]*domain.GuildDocument{
		"g1": {
			Users:       map[string]domain.UserDocument{"u1": {Streak: 0}},
			RoleRewards: map[string]string{},
		},
	}}
	require.NoError(t, store.Save(context.Background(), doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"streak_channel_id": null`)
	assert.Contains(t, string(data), `"last_date": null`)
}

func TestStore_Ping(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "streaks.json"))
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
}
