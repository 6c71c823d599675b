// Package sessionstore provides the session.Store backends: an in-memory
// slot for DEV/TEST, a redis slot, and a single-row postgres table.
package sessionstore

import (
	"context"
	"sync"

	"github.com/studai/backend/core/session"
)

// inmemStore keeps the serialized record in a process-local slot. It stores
// bytes (not the struct) so load-time corruption handling behaves exactly
// like the durable backends.
type inmemStore struct {
	mu   sync.RWMutex
	data []byte
}

var _ session.Store = (*inmemStore)(nil)

func NewInmemStore() session.Store {
	return &inmemStore{}
}

func (s *inmemStore) Load(context.Context) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return session.Decode(s.data), nil
}

func (s *inmemStore) Save(_ context.Context, sess *session.Session) error {
	data, err := session.Encode(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

func (s *inmemStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}
