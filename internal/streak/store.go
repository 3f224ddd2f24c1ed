package streak

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	apperrors "github.com/andrewc156/DiscordLangaugeStreakBot/internal/errors"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/metrics"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/platform/retry"
)

// persistPolicy bounds durable writes: three attempts with short backoff,
// then the error is surfaced to the caller.
var persistPolicy = retry.Policy{
	MaxAttempts:    3,
	InitialBackoff: 50 * time.Millisecond,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Document save failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

type userState struct {
	streak   int
	lastDate domain.Date
}

type guildState struct {
	streakChannelID string
	users           map[string]*userState
	roleRewards     map[int]string
}

func newGuildState() *guildState {
	return &guildState{
		users:       make(map[string]*userState),
		roleRewards: make(map[int]string),
	}
}

// UserView is a copied user entry handed out by snapshots.
type UserView struct {
	Streak   int
	LastDate domain.Date
}

// GuildView is a consistent copy of one guild's state, safe to read
// without holding the store lock.
type GuildView struct {
	StreakChannelID string
	Users           map[string]UserView
	RoleRewards     map[int]string
}

// Store owns all guild records. Every operation ensures the guild record
// exists, performs one logical mutation or read under a single mutex, and
// writes the whole document through to the backing store on mutation.
// In-memory state stays authoritative when a durable write fails; the
// failure is returned to the caller.
type Store struct {
	persister domain.DocumentStore

	mu     sync.Mutex
	guilds map[string]*guildState
}

// NewStore creates an empty store backed by the given document store.
// Call Load before serving traffic.
func NewStore(persister domain.DocumentStore) *Store {
	return &Store{
		persister: persister,
		guilds:    make(map[string]*guildState),
	}
}

// Load reads the persisted document and normalizes it into memory.
// Malformed entries (non-numeric or non-positive reward thresholds,
// negative streaks) are dropped without corrupting the rest.
func (s *Store) Load(ctx context.Context) error {
	doc, err := s.persister.Load(ctx)
	if err != nil {
		return apperrors.PersistenceError("failed to load document", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.guilds = make(map[string]*guildState, len(doc.Guilds))
	dropped := 0
	for guildID, g := range doc.Guilds {
		if g == nil {
			continue
		}
		gs := newGuildState()
		if g.StreakChannelID != nil {
			gs.streakChannelID = *g.StreakChannelID
		}
		for userID, u := range g.Users {
			if u.Streak < 0 {
				dropped++
				continue
			}
			gs.users[userID] = &userState{streak: u.Streak, lastDate: u.LastDate}
		}
		for key, roleID := range g.RoleRewards {
			days, err := strconv.Atoi(key)
			if err != nil || days <= 0 || roleID == "" {
				dropped++
				continue
			}
			gs.roleRewards[days] = roleID
		}
		s.guilds[guildID] = gs
	}

	if dropped > 0 {
		slog.Warn("Dropped malformed document entries on load", "count", dropped)
	}
	slog.Info("Streak store loaded", "guilds", len(s.guilds))
	return nil
}

// ensureGuildLocked creates a zero-valued guild record if absent.
// Caller must hold s.mu.
func (s *Store) ensureGuildLocked(guildID string) *guildState {
	g, ok := s.guilds[guildID]
	if !ok {
		g = newGuildState()
		s.guilds[guildID] = g
	}
	return g
}

// EnsureGuild creates the guild record if it does not exist. Idempotent;
// the record is persisted with the next mutation.
func (s *Store) EnsureGuild(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureGuildLocked(guildID)
}

// SetStreakChannel designates the channel where streak messages are accepted.
func (s *Store) SetStreakChannel(ctx context.Context, guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureGuildLocked(guildID).streakChannelID = channelID
	return s.persistLocked(ctx)
}

// UnsetStreakChannel clears the streak channel configuration.
func (s *Store) UnsetStreakChannel(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureGuildLocked(guildID).streakChannelID = ""
	return s.persistLocked(ctx)
}

// StreakChannel returns the configured streak channel ID, or "" if unset.
func (s *Store) StreakChannel(guildID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureGuildLocked(guildID).streakChannelID
}

// RecordActivity applies today's activity to the user's streak and returns
// the resulting value. Re-posting on an already-recorded day returns the
// unchanged streak and leaves last_date untouched. The mutation and its
// durable write happen under the store lock, so concurrent calls cannot
// interleave a read-modify-write.
func (s *Store) RecordActivity(ctx context.Context, guildID, userID string, today domain.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.ensureGuildLocked(guildID)
	u, ok := g.users[userID]
	if !ok {
		u = &userState{}
		g.users[userID] = u
	}

	updated := ComputeStreak(u.streak, u.lastDate, today)
	switch {
	case !u.lastDate.IsZero() && today.Equal(u.lastDate):
		metrics.ActivitiesRecordedTotal.WithLabelValues("repeated").Inc()
	case updated > u.streak && u.streak > 0:
		metrics.ActivitiesRecordedTotal.WithLabelValues("extended").Inc()
	default:
		metrics.ActivitiesRecordedTotal.WithLabelValues("started").Inc()
	}

	if u.lastDate.IsZero() || !today.Equal(u.lastDate) {
		u.streak = updated
		u.lastDate = today
	}

	if err := s.persistLocked(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// ResetUserStreak zeroes a user's streak and clears their last active date.
// No-op for users that never recorded activity; the document is persisted
// either way.
func (s *Store) ResetUserStreak(ctx context.Context, guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.ensureGuildLocked(guildID)
	if u, ok := g.users[userID]; ok {
		u.streak = 0
		u.lastDate = domain.Date{}
		metrics.StreaksResetTotal.Inc()
	}
	return s.persistLocked(ctx)
}

// SetRoleReward upserts the threshold -> role mapping for a guild.
// The threshold must be a positive day count.
func (s *Store) SetRoleReward(ctx context.Context, guildID string, days int, roleID string) error {
	if days <= 0 {
		return apperrors.ValidationError("days must be a positive integer").WithContext("days", days)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureGuildLocked(guildID).roleRewards[days] = roleID
	return s.persistLocked(ctx)
}

// RemoveRoleReward deletes the mapping for the given threshold, if present.
func (s *Store) RemoveRoleReward(ctx context.Context, guildID string, days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ensureGuildLocked(guildID).roleRewards, days)
	return s.persistLocked(ctx)
}

// RoleRewards returns a copy of the guild's threshold -> role mapping.
func (s *Store) RoleRewards(guildID string) map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.ensureGuildLocked(guildID)
	rewards := make(map[int]string, len(g.roleRewards))
	for days, roleID := range g.roleRewards {
		rewards[days] = roleID
	}
	return rewards
}

// UserStreak returns the user's current streak, or 0 if never recorded.
func (s *Store) UserStreak(guildID, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.ensureGuildLocked(guildID).users[userID]; ok {
		return u.streak
	}
	return 0
}

// Leaderboard returns all users with streak > 0, sorted descending by
// streak with ties broken by ascending user ID. The snapshot is copied
// under the lock and sorted outside it.
func (s *Store) Leaderboard(guildID string) []domain.LeaderboardEntry {
	s.mu.Lock()
	g := s.ensureGuildLocked(guildID)
	entries := make([]domain.LeaderboardEntry, 0, len(g.users))
	for userID, u := range g.users {
		if u.streak > 0 {
			entries = append(entries, domain.LeaderboardEntry{UserID: userID, Streak: u.streak})
		}
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Streak != entries[j].Streak {
			return entries[i].Streak > entries[j].Streak
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries
}

// GuildIDs returns the IDs of all known guilds.
func (s *Store) GuildIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.guilds))
	for id := range s.guilds {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns a consistent copy of one guild's state, or false if the
// guild is unknown. Unlike the other reads it does not create the record.
func (s *Store) Snapshot(guildID string) (GuildView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return GuildView{}, false
	}

	view := GuildView{
		StreakChannelID: g.streakChannelID,
		Users:           make(map[string]UserView, len(g.users)),
		RoleRewards:     make(map[int]string, len(g.roleRewards)),
	}
	for userID, u := range g.users {
		view.Users[userID] = UserView{Streak: u.streak, LastDate: u.lastDate}
	}
	for days, roleID := range g.roleRewards {
		view.RoleRewards[days] = roleID
	}
	return view, true
}

// persistLocked writes the full document through to the backing store.
// Caller must hold s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	doc := s.documentLocked()

	start := time.Now()
	err := retry.DoVoid(ctx, persistPolicy,
		func(error) retry.Action { return retry.Retry },
		func() error { return s.persister.Save(ctx, doc) },
	)
	metrics.PersistenceOpDuration.WithLabelValues("save").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PersistenceOpsTotal.WithLabelValues("save", "error").Inc()
		return apperrors.PersistenceError("failed to save document", err)
	}
	metrics.PersistenceOpsTotal.WithLabelValues("save", "success").Inc()
	return nil
}

// documentLocked serializes the in-memory state. Caller must hold s.mu.
func (s *Store) documentLocked() *domain.Document {
	doc := domain.NewDocument()
	for guildID, g := range s.guilds {
		gd := &domain.GuildDocument{
			Users:       make(map[string]domain.UserDocument, len(g.users)),
			RoleRewards: make(map[string]string, len(g.roleRewards)),
		}
		if g.streakChannelID != "" {
			channelID := g.streakChannelID
			gd.StreakChannelID = &channelID
		}
		for userID, u := range g.users {
			gd.Users[userID] = domain.UserDocument{Streak: u.streak, LastDate: u.lastDate}
		}
		for days, roleID := range g.roleRewards {
			gd.RoleRewards[strconv.Itoa(days)] = roleID
		}
		doc.Guilds[guildID] = gd
	}
	return doc
}
