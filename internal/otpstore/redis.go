package otpstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "sizzl:otp:"

var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// RedisStore keeps challenges in Redis hashes that expire with the challenge.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(email string) string {
	return redisKeyPrefix + normalizeEmail(email)
}

func (s *RedisStore) Save(ctx context.Context, challenge Challenge) error {
	key := redisKey(challenge.Email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"email", normalizeEmail(challenge.Email),
			"code_hash", challenge.CodeHash,
			"attempts", challenge.Attempts,
			"expires_at", challenge.ExpiresAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.ExpireAt(ctx, key, challenge.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("otpstore: save challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (Challenge, error) {
	fields, err := s.client.HGetAll(ctx, redisKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, ErrNotFound
		}
		return Challenge{}, fmt.Errorf("otpstore: load challenge: %w", err)
	}
	if len(fields) == 0 {
		return Challenge{}, ErrNotFound
	}

	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return Challenge{}, fmt.Errorf("otpstore: corrupt attempts: %w", err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if err != nil {
		return Challenge{}, fmt.Errorf("otpstore: corrupt expiry: %w", err)
	}
	return Challenge{
		Email:     fields["email"],
		CodeHash:  fields["code_hash"],
		Attempts:  attempts,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *RedisStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{redisKey(email)}).Int()
	if err != nil {
		return 0, fmt.Errorf("otpstore: count attempt: %w", err)
	}
	if n < 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, redisKey(email)).Err(); err != nil {
		return fmt.Errorf("otpstore: delete challenge: %w", err)
	}
	return nil
}
