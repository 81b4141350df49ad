package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
)

// RedisBackend はセッションを Redis に保存します。
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend は RedisBackend を作成します。
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

// Save はレコードをJSONで保存します。
func (b *RedisBackend) Save(ctx context.Context, record *Record, ttl time.Duration) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if record.Token == "" {
		return fmt.Errorf("record.Token is required")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := b.rdb.Set(ctx, sessionKey(record.Token), payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save session")
	}
	return nil
}

// Get はレコードを取得します。
func (b *RedisBackend) Get(ctx context.Context, token string) (*Record, error) {
	if token == "" {
		return nil, nil
	}
	data, err := b.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to load session")
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "failed to decode session")
	}
	return &record, nil
}

// Delete はレコードを削除します。
func (b *RedisBackend) Delete(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := b.rdb.Del(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to delete session")
	}
	return n > 0, nil
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}
