package server

import (
	"context"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/config"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/feed"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/streak"
)

type memoryDocStore struct {
	mu      sync.Mutex
	doc     *domain.Document
	pingErr error
}

func (m *memoryDocStore) Load(context.Context) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return domain.NewDocument(), nil
	}
	return m.doc, nil
}

func (m *memoryDocStore) Save(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
	return nil
}

func (m *memoryDocStore) Ping(context.Context) error { return m.pingErr }

func (m *memoryDocStore) Close() error { return nil }

type recordingBot struct {
	mu       sync.Mutex
	messages []domain.InboundMessage
}

func (b *recordingBot) HandleMessage(_ context.Context, msg domain.InboundMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *recordingBot) received() []domain.InboundMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.InboundMessage(nil), b.messages...)
}

type serverFixture struct {
	server   *Server
	store    *streak.Store
	docStore *memoryDocStore
	bot      *recordingBot
	hub      *feed.Hub
}

func newTestServer(t *testing.T, cfg *config.Config) *serverFixture {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{Port: "0"}
	}

	docStore := &memoryDocStore{}
	store := streak.NewStore(docStore)
	require.NoError(t, store.Load(context.Background()))

	bot := &recordingBot{}
	hub := feed.NewHub(clockwork.NewFakeClock())
	t.Cleanup(func() { hub.Stop() })

	return &serverFixture{
		server:   NewServer(cfg, store, bot, hub, docStore),
		store:    store,
		docStore: docStore,
		bot:      bot,
		hub:      hub,
	}
}
