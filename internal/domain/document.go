package domain

import "context"

// Document is the full persisted state of the bot: every guild's
// configuration and user streaks. It is written through as a whole on
// every mutation and replaced atomically by the backing store.
type Document struct {
	Guilds map[string]*GuildDocument `json:"guilds"`
}

// GuildDocument holds one guild's streak channel, user streaks, and
// role-reward thresholds. RoleRewards keys are stringified day counts to
// keep the wire format stable across backends.
type GuildDocument struct {
	StreakChannelID *string                 `json:"streak_channel_id"`
	Users           map[string]UserDocument `json:"users"`
	RoleRewards     map[string]string       `json:"role_rewards"`
}

// UserDocument is one user's streak state within a guild.
type UserDocument struct {
	Streak   int  `json:"streak"`
	LastDate Date `json:"last_date"`
}

// NewDocument returns an empty document with the guilds map initialized.
func NewDocument() *Document {
	return &Document{Guilds: make(map[string]*GuildDocument)}
}

// DocumentStore abstracts durable whole-document persistence. Load returns
// an empty document when no durable state exists or the stored payload is
// corrupt; Save replaces the full document atomically.
type DocumentStore interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Ping(ctx context.Context) error
	Close() error
}

// LeaderboardEntry is one row of a guild leaderboard.
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Streak int    `json:"streak"`
}

// StreakUpdate is pushed to feed subscribers whenever a streak changes.
type StreakUpdate struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
	Streak  int    `json:"streak"`
	Date    Date   `json:"date"`
}

// FeedPublisher delivers streak updates to connected dashboard clients.
type FeedPublisher interface {
	PublishStreakUpdate(update StreakUpdate)
}
