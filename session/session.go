// Package session tracks per-session conversation history so follow-up
// questions can reference earlier exchanges. History is bounded: only
// the most recent exchanges are kept per session.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultMaxHistory = 2

// Exchange is one question/answer pair.
type Exchange struct {
	Question string
	Answer   string
}

// Store persists session exchanges. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append adds an exchange to a session, creating it if needed.
	Append(sessionID string, exchange Exchange) error

	// Recent returns up to limit most recent exchanges, oldest first.
	Recent(sessionID string, limit int) ([]Exchange, error)

	// Clear removes all exchanges for a session.
	Clear(sessionID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Config controls session history behavior.
type Config struct {
	// MaxHistory is the number of exchanges kept per session (default: 2).
	MaxHistory int `yaml:"max_history,omitempty"`

	// Path is the SQLite database file for persistent sessions.
	// Empty means in-memory only.
	Path string `yaml:"path,omitempty"`
}

func (c *Config) SetDefaults() {
	if c.MaxHistory == 0 {
		c.MaxHistory = defaultMaxHistory
	}
}

// Manager creates sessions and formats their history for prompts.
type Manager struct {
	store      Store
	maxHistory int
}

// NewManager creates a manager backed by the given store.
func NewManager(store Store, config Config) *Manager {
	config.SetDefaults()
	return &Manager{
		store:      store,
		maxHistory: config.MaxHistory,
	}
}

// CreateSession returns a fresh session identifier.
func (m *Manager) CreateSession() string {
	return uuid.NewString()
}

// AddExchange records a question/answer pair on a session.
func (m *Manager) AddExchange(sessionID, question, answer string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	return m.store.Append(sessionID, Exchange{Question: question, Answer: answer})
}

// History returns the session's recent exchanges formatted for the
// system prompt, "" for an unknown or empty session.
func (m *Manager) History(sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}

	exchanges, err := m.store.Recent(sessionID, m.maxHistory)
	if err != nil {
		return "", fmt.Errorf("failed to load session history: %w", err)
	}

	var parts []string
	for _, exchange := range exchanges {
		parts = append(parts, fmt.Sprintf("User: %s\nAssistant: %s", exchange.Question, exchange.Answer))
	}
	return strings.Join(parts, "\n"), nil
}

// ClearSession drops a session's history.
func (m *Manager) ClearSession(sessionID string) error {
	return m.store.Clear(sessionID)
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// MemoryStore keeps session history in memory. History is lost on
// restart. When maxExchanges is positive, only the most recent
// exchanges are retained per session so long-lived sessions stay
// bounded.
type MemoryStore struct {
	mu           sync.RWMutex
	sessions     map[string][]Exchange
	maxExchanges int
}

// NewMemoryStore creates an in-memory store keeping at most
// maxExchanges per session; 0 means unbounded.
func NewMemoryStore(maxExchanges int) *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[string][]Exchange),
		maxExchanges: maxExchanges,
	}
}

func (s *MemoryStore) Append(sessionID string, exchange Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exchanges := append(s.sessions[sessionID], exchange)
	if s.maxExchanges > 0 && len(exchanges) > s.maxExchanges {
		exchanges = exchanges[len(exchanges)-s.maxExchanges:]
	}
	s.sessions[sessionID] = exchanges
	return nil
}

func (s *MemoryStore) Recent(sessionID string, limit int) ([]Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exchanges := s.sessions[sessionID]
	if limit > 0 && len(exchanges) > limit {
		exchanges = exchanges[len(exchanges)-limit:]
	}

	out := make([]Exchange, len(exchanges))
	copy(out, exchanges)
	return out, nil
}

func (s *MemoryStore) Clear(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
