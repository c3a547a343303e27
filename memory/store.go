package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/promptchain/provider"
)

// ErrSessionNotFound is returned by Store.Delete for unknown sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session describes a stored conversation.
type Session struct {
	ID        string    `json:"id"`
	Messages  int       `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists conversation sessions.
type Store interface {
	// Load returns the session's messages in order. Unknown sessions load
	// empty.
	Load(ctx context.Context, session string) ([]provider.Message, error)

	// Append adds messages to the session, creating it if needed.
	Append(ctx context.Context, session string, msgs ...provider.Message) error

	// Sessions lists stored sessions, most recently updated first.
	Sessions(ctx context.Context) ([]Session, error)

	// Delete removes a session and its messages.
	Delete(ctx context.Context, session string) error

	Close() error
}

// NewSessionID returns a fresh random session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// LoadHistory reads a session from store into a History.
func LoadHistory(ctx context.Context, store Store, session string) (*History, error) {
	msgs, err := store.Load(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", session, err)
	}
	return NewHistory(msgs...), nil
}

type storedSession struct {
	messages  []provider.Message
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*storedSession
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*storedSession), now: time.Now}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, session string) ([]provider.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.sessions[session]; ok {
		return slices.Clone(st.messages), nil
	}
	return nil, nil
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, session string, msgs ...provider.Message) error {
	if session == "" {
		return fmt.Errorf("memory: empty session id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st, ok := s.sessions[session]
	if !ok {
		st = &storedSession{createdAt: now}
		s.sessions[session] = st
	}
	st.messages = append(st.messages, msgs...)
	st.updatedAt = now
	return nil
}

// Sessions implements Store.
func (s *MemoryStore) Sessions(_ context.Context) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.sessions))
	for id, st := range s.sessions {
		out = append(out, Session{ID: id, Messages: len(st.messages), CreatedAt: st.createdAt, UpdatedAt: st.updatedAt})
	}
	slices.SortFunc(out, func(a, b Session) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, session)
	}
	delete(s.sessions, session)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
