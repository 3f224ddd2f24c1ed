package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
)

const documentID = "streakbot"

// DocumentStore keeps the whole streak document in one JSONB row. The
// upsert replaces the row in a single statement, so readers never observe
// a partial document.
type DocumentStore struct {
	pool *pgxpool.Pool
}

// NewDocumentStore creates a document store on the given pool.
func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

// Load fetches the document row. A missing row yields an empty document;
// a corrupt payload also yields an empty document and is logged, matching
// the startup policy of the file backend.
func (s *DocumentStore) Load(ctx context.Context) (*domain.Document, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM documents WHERE id = $1`, documentID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select document: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Document row is corrupt, starting with empty state", "id", documentID, "error", err)
		return domain.NewDocument(), nil
	}
	if doc.Guilds == nil {
		doc.Guilds = make(map[string]*domain.GuildDocument)
	}
	return &doc, nil
}

// Save upserts the document row.
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		documentID, data)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the underlying pool.
func (s *DocumentStore) Close() error {
	s.pool.Close()
	return nil
}
