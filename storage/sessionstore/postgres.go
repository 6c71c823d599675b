package sessionstore

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/studai/backend/core/session"
	"github.com/studai/backend/storage/database"
)

type pgStore struct {
	db *sqlx.DB
}

var _ session.Store = (*pgStore)(nil)

// NewPGStore keeps the serialized record in the single-row session_slot
// table, keyed by session.StoreKey.
func NewPGStore(db *sqlx.DB) session.Store {
	return &pgStore{db: db}
}

func (s *pgStore) Load(ctx context.Context) (*session.Session, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM session_slot WHERE key = $1`, session.StoreKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, database.WrapErr(err, "reading session slot")
	}
	return session.Decode(data), nil
}

func (s *pgStore) Save(ctx context.Context, sess *session.Session) error {
	data, err := session.Encode(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_slot (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		session.StoreKey, data,
	)
	if err != nil {
		return database.WrapErr(err, "writing session slot")
	}
	return nil
}

func (s *pgStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_slot WHERE key = $1`, session.StoreKey); err != nil {
		return database.WrapErr(err, "clearing session slot")
	}
	return nil
}
