package uploadstore

import (
	"context"
	"testing"

	"github.com/studai/backend/core/session"
)

func TestInmemRegistry(t *testing.T) {
	ctx := context.Background()
	reg := NewInmemRegistry()
	sid := "sess-1"

	ok, err := reg.HasArtifactOfKind(ctx, sid, session.ArtifactNotes)
	if err != nil {
		t.Fatalf("HasArtifactOfKind() error = %v", err)
	}
	if ok {
		t.Errorf("HasArtifactOfKind() = true on empty registry, want false")
	}

	art, err := reg.RegisterArtifact(ctx, session.Artifact{
		SessionID: sid,
		Name:      "chapter-notes.pdf",
		Size:      1024,
	})
	if err != nil {
		t.Fatalf("RegisterArtifact() error = %v", err)
	}
	if art.ID == "" {
		t.Errorf("RegisterArtifact() did not assign an ID")
	}
	if art.Kind != session.ArtifactNotes {
		t.Errorf("RegisterArtifact() kind = %q, want %q", art.Kind, session.ArtifactNotes)
	}
	if art.UploadedAt.IsZero() {
		t.Errorf("RegisterArtifact() did not stamp UploadedAt")
	}

	if _, err = reg.RegisterArtifact(ctx, session.Artifact{
		SessionID: sid,
		Name:      "algebra.pdf",
	}); err != nil {
		t.Fatalf("RegisterArtifact() error = %v", err)
	}

	for _, kind := range session.AllArtifactKinds {
		ok, err = reg.HasArtifactOfKind(ctx, sid, kind)
		if err != nil {
			t.Fatalf("HasArtifactOfKind(%q) error = %v", kind, err)
		}
		if !ok {
			t.Errorf("HasArtifactOfKind(%q) = false, want true", kind)
		}
	}

	// other sessions see nothing
	ok, _ = reg.HasArtifactOfKind(ctx, "sess-2", session.ArtifactNotes)
	if ok {
		t.Errorf("HasArtifactOfKind() leaked artifacts across sessions")
	}

	arts, err := reg.QueryArtifacts(ctx, sid)
	if err != nil {
		t.Fatalf("QueryArtifacts() error = %v", err)
	}
	if len(arts) != 2 {
		t.Errorf("QueryArtifacts() returned %d artifacts, want 2", len(arts))
	}

	// clearing one session leaves the others alone
	if _, err = reg.RegisterArtifact(ctx, session.Artifact{SessionID: "sess-2", Name: "bio.pdf"}); err != nil {
		t.Fatalf("RegisterArtifact() error = %v", err)
	}
	if err = reg.ClearArtifacts(ctx, sid); err != nil {
		t.Fatalf("ClearArtifacts() error = %v", err)
	}
	if arts, _ = reg.QueryArtifacts(ctx, sid); len(arts) != 0 {
		t.Errorf("QueryArtifacts() after clear returned %d artifacts, want 0", len(arts))
	}
	if arts, _ = reg.QueryArtifacts(ctx, "sess-2"); len(arts) != 1 {
		t.Errorf("ClearArtifacts() touched another session's artifacts")
	}
}
