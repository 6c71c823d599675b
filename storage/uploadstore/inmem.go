// Package uploadstore provides the session.UploadRegistry backing the
// onboarding guard, with in-memory and Postgres implementations. The
// registry is the authoritative record of artifact possession either way.
package uploadstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studai/backend/core/session"
)

type inmemRegistry struct {
	mu    sync.RWMutex
	table map[string][]session.Artifact // keyed by session ID
}

var _ session.UploadRegistry = (*inmemRegistry)(nil)

func NewInmemRegistry() session.UploadRegistry {
	return &inmemRegistry{table: make(map[string][]session.Artifact)}
}

func (r *inmemRegistry) RegisterArtifact(_ context.Context, art session.Artifact) (session.Artifact, error) {
	if art.ID == "" {
		art.ID = uuid.New().String()
	}
	if art.Kind == "" {
		art.Kind = session.KindOfFile(art.Name)
	}
	if art.UploadedAt.IsZero() {
		art.UploadedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.table[art.SessionID] = append(r.table[art.SessionID], art)
	return art, nil
}

func (r *inmemRegistry) HasArtifactOfKind(_ context.Context, sessionID, kind string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, art := range r.table[sessionID] {
		if art.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (r *inmemRegistry) QueryArtifacts(_ context.Context, sessionID string) ([]session.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	arts := make([]session.Artifact, len(r.table[sessionID]))
	copy(arts, r.table[sessionID])
	return arts, nil
}

func (r *inmemRegistry) ClearArtifacts(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.table, sessionID)
	return nil
}
