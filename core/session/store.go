package session

import (
	"context"
	"encoding/json"
)

// StoreKey is the fixed key the single session record is persisted under.
const StoreKey = "studai:session"

// Store persists and retrieves the single serialized session record.
//
// Load never surfaces a missing or malformed record as an error: both come
// back as (nil, nil) so the caller lands on the unauthenticated screen.
// Errors are reserved for infrastructure failures (connection lost etc),
// which the Gate also degrades to "no session".
type Store interface {
	Load(ctx context.Context) (*Session, error)
	// Save overwrites the stored record; durable before it returns.
	Save(ctx context.Context, sess *Session) error
	// Clear removes the stored record; idempotent.
	Clear(ctx context.Context) error
}

// Encode serializes a session for storage.
func Encode(sess *Session) ([]byte, error) {
	return json.Marshal(sess)
}

// Decode parses a stored record. A record that cannot be parsed, or parses
// into an invalid session, yields nil: stores treat it as absent.
func Decode(data []byte) *Session {
	if len(data) == 0 {
		return nil
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil
	}
	if !sess.Valid() {
		return nil
	}
	return &sess
}
