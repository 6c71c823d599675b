package session

import (
	"context"
	"strings"
	"time"
)

// Artifact kinds. Onboarding requires one of each.
const (
	ArtifactNotes    = "notes"
	ArtifactTextbook = "textbook"
)

var AllArtifactKinds = []string{ArtifactNotes, ArtifactTextbook}

// KindOfFile infers an artifact kind from a file name: anything mentioning
// "note" is notes, everything else is assumed to be a textbook.
func KindOfFile(name string) string {
	if strings.Contains(strings.ToLower(name), "note") {
		return ArtifactNotes
	}
	return ArtifactTextbook
}

func IsValidArtifactKind(kind string) bool {
	for _, k := range AllArtifactKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Artifact is an uploaded study document registered against a session.
type Artifact struct {
	ID         string    `json:"id" db:"id"`
	SessionID  string    `json:"session_id" db:"session_id"`
	Name       string    `json:"name" db:"name"`
	Kind       string    `json:"kind" db:"kind"`
	Size       int64     `json:"size" db:"size"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"` // UTC
}

// UploadRegistry is the collaborator that tracks uploaded artifacts. It is
// the authoritative record for the onboarding guard: artifact possession is
// never copied into the Session itself.
type UploadRegistry interface {
	RegisterArtifact(ctx context.Context, art Artifact) (Artifact, error)
	HasArtifactOfKind(ctx context.Context, sessionID, kind string) (bool, error)
	QueryArtifacts(ctx context.Context, sessionID string) ([]Artifact, error)
	ClearArtifacts(ctx context.Context, sessionID string) error
}
