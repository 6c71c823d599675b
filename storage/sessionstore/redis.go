package sessionstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/studai/backend/core/session"
)

type redisStore struct {
	client *redis.Client
}

var _ session.Store = (*redisStore)(nil)

// NewRedisStore keeps the serialized record under session.StoreKey.
func NewRedisStore(client *redis.Client) session.Store {
	return &redisStore{client: client}
}

func (s *redisStore) Load(ctx context.Context) (*session.Session, error) {
	data, err := s.client.Get(ctx, session.StoreKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading session slot")
	}
	return session.Decode(data), nil
}

func (s *redisStore) Save(ctx context.Context, sess *session.Session) error {
	data, err := session.Encode(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, session.StoreKey, data, 0).Err(); err != nil {
		return errors.Wrap(err, "writing session slot")
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, session.StoreKey).Err(); err != nil {
		return errors.Wrap(err, "clearing session slot")
	}
	return nil
}
