// Package session stores chat conversation state and confirmation e-mail
// markers, either in process memory or in Redis.
package session

import (
	"context"
	"time"

	chatdomain "github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/cache"
)

// MemoryStore keeps sessions in a TTL cache. States are cloned on the way
// in and out so callers never share a pointer with the store.
type MemoryStore struct {
	states  *cache.InMemory[*chatdomain.ConversationState]
	markers *cache.InMemory[chatdomain.EmailMarker]
}

// NewMemoryStore creates a store whose entries expire ttl after their
// last write.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		states:  cache.New[*chatdomain.ConversationState](ttl),
		markers: cache.New[chatdomain.EmailMarker](ttl),
	}
}

// Load returns a copy of the session state.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*chatdomain.ConversationState, bool, error) {
	st, ok := s.states.Get(sessionID)
	if !ok {
		return nil, false, nil
	}
	return st.Clone(), true, nil
}

// Save stores a copy of state.
func (s *MemoryStore) Save(_ context.Context, state *chatdomain.ConversationState) error {
	s.states.Set(state.SessionID, state.Clone())
	return nil
}

// Delete drops the session state and its e-mail markers.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.states.Delete(sessionID)
	s.markers.DeletePrefix(markerKey(sessionID, ""))
	return nil
}

// GetMarker returns EmailUnsent when no marker exists.
func (s *MemoryStore) GetMarker(_ context.Context, sessionID, reservationID string) (chatdomain.EmailMarker, error) {
	m, ok := s.markers.Get(markerKey(sessionID, reservationID))
	if !ok {
		return chatdomain.EmailUnsent, nil
	}
	return m, nil
}

// SetMarker stores the marker; EmailUnsent removes it.
func (s *MemoryStore) SetMarker(_ context.Context, sessionID, reservationID string, marker chatdomain.EmailMarker) error {
	key := markerKey(sessionID, reservationID)
	if marker == chatdomain.EmailUnsent {
		s.markers.Delete(key)
		return nil
	}
	s.markers.Set(key, marker)
	return nil
}

// Close stops the cache cleanup goroutines.
func (s *MemoryStore) Close() {
	s.states.Close()
	s.markers.Close()
}

func markerKey(sessionID, reservationID string) string {
	return sessionID + ":sent_email_" + reservationID
}
