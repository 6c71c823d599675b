package uploadstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studai/backend/core/session"
	"github.com/studai/backend/storage/database"
)

type pgRegistry struct {
	db *sqlx.DB
}

var _ session.UploadRegistry = (*pgRegistry)(nil)

func NewPGRegistry(db *sqlx.DB) session.UploadRegistry {
	return &pgRegistry{db: db}
}

func (r *pgRegistry) RegisterArtifact(ctx context.Context, art session.Artifact) (session.Artifact, error) {
	if art.ID == "" {
		art.ID = uuid.New().String()
	}
	if art.Kind == "" {
		art.Kind = session.KindOfFile(art.Name)
	}
	if art.UploadedAt.IsZero() {
		art.UploadedAt = time.Now().UTC()
	}

	const query = `INSERT INTO artifact (id, session_id, name, kind, size, uploaded_at)
VALUES (:id, :session_id, :name, :kind, :size, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, art); err != nil {
		return session.Artifact{}, database.WrapErr(err, "registering artifact")
	}
	return art, nil
}

func (r *pgRegistry) HasArtifactOfKind(ctx context.Context, sessionID, kind string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM artifact WHERE session_id = $1 AND kind = $2)`
	if err := r.db.GetContext(ctx, &exists, query, sessionID, kind); err != nil {
		return false, database.WrapErr(err, "checking artifacts")
	}
	return exists, nil
}

func (r *pgRegistry) QueryArtifacts(ctx context.Context, sessionID string) ([]session.Artifact, error) {
	arts := make([]session.Artifact, 0)
	const query = `SELECT id, session_id, name, kind, size, uploaded_at FROM artifact WHERE session_id = $1 ORDER BY uploaded_at`
	if err := r.db.SelectContext(ctx, &arts, query, sessionID); err != nil {
		return nil, database.WrapErr(err, "querying artifacts")
	}
	return arts, nil
}

func (r *pgRegistry) ClearArtifacts(ctx context.Context, sessionID string) error {
	const query = `DELETE FROM artifact WHERE session_id = $1`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return database.WrapErr(err, "clearing artifacts")
	}
	return nil
}
