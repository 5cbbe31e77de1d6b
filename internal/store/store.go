// Package store provides session persistence backends for ServiceBuilder.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL backed stores selected by DSN.
package store

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SoloForge/ServiceBuilder/internal/models"
)

// Store persists workflow sessions. GetSession returns (nil, nil) when the
// session does not exist.
type Store interface {
	SaveSession(session models.WorkflowSession) error
	GetSession(sessionID string) (*models.WorkflowSession, error)
	DeleteSession(sessionID string) error
	Close() error
}

// Opts holds configuration collected from Options.
type Opts struct {
	PostgresDSN string
	SQLiteDSN   string
}

// Option configures store construction.
type Option func(*Opts)

// WithPostgresDSN selects the PostgreSQL backend.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.PostgresDSN = dsn }
}

// WithSQLiteDSN selects the SQLite backend with the given file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.SQLiteDSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite3". File paths are
// assumed to be SQLite.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}

// NewStore builds the store selected by the given options. With no options it
// returns an in-memory store.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch {
	case cfg.PostgresDSN != "":
		slog.Debug("Store.NewStore: using PostgreSQL backend")
		return NewPostgresStore(opts...)
	case cfg.SQLiteDSN != "":
		slog.Debug("Store.NewStore: using SQLite backend", "db_path", cfg.SQLiteDSN)
		return NewSQLiteStore(opts...)
	default:
		slog.Debug("Store.NewStore: using in-memory backend")
		return NewInMemoryStore(), nil
	}
}

// InMemoryStore keeps sessions in a map. Safe for concurrent use.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.WorkflowSession
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.WorkflowSession)}
}

func (s *InMemoryStore) SaveSession(session models.WorkflowSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := s.sessions[session.SessionID]; ok {
		session.CreatedAt = existing.CreatedAt
	} else if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	s.sessions[session.SessionID] = session
	return nil
}

func (s *InMemoryStore) GetSession(sessionID string) (*models.WorkflowSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *InMemoryStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
