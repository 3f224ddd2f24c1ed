package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
)

const defaultDocumentKey = "streakbot:document"

// DocumentStore keeps the whole streak document as a JSON blob under one
// Redis key. SET is atomic at the key level, which gives the same
// replace-on-write guarantee as the file backend's rename.
type DocumentStore struct {
	rdb *goredis.Client
	key string
}

// NewDocumentStore creates a document store on the given client.
func NewDocumentStore(rdb *goredis.Client) *DocumentStore {
	return &DocumentStore{rdb: rdb, key: defaultDocumentKey}
}

// Load fetches the document. A missing key yields an empty document; a
// corrupt payload also yields an empty document and is logged, matching
// the startup policy of the file backend.
func (s *DocumentStore) Load(ctx context.Context) (*domain.Document, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == goredis.Nil {
		return domain.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.key, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Document key is corrupt, starting with empty state", "key", s.key, "error", err)
		return domain.NewDocument(), nil
	}
	if doc.Guilds == nil {
		doc.Guilds = make(map[string]*domain.GuildDocument)
	}
	return &doc, nil
}

// Save replaces the document under the key, with no expiry.
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", s.key, err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *DocumentStore) Close() error {
	return s.rdb.Close()
}
