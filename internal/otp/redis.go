package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending codes in Redis so the phone flow survives
// process restarts and multiple API instances. Expiry rides on the key TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(sessionID string) string {
	return "otp:session:" + sessionID
}

func (s *RedisStore) Issue(ctx context.Context, sessionID, phone string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	hash, err := HashCode(code)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(record{
		Phone:    strings.TrimSpace(phone),
		CodeHash: hash,
	})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, redisKey(sessionID), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing otp: %w", err)
	}
	return code, nil
}

// Verify takes the pending record with GETDEL so only one of two
// concurrent attempts with the same code can see it; the loser observes no
// pending code. A failed comparison puts the record back (unless a newer
// code was issued meanwhile) so a typo does not burn the code.
func (s *RedisStore) Verify(ctx context.Context, sessionID, phone, code string) error {
	key := redisKey(sessionID)

	pipe := s.client.TxPipeline()
	ttlCmd := pipe.TTL(ctx, key)
	getCmd := pipe.GetDel(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("loading otp: %w", err)
	}

	payload, err := getCmd.Bytes()
	if err == redis.Nil {
		return ErrNoPending
	}
	if err != nil {
		return fmt.Errorf("loading otp: %w", err)
	}

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fmt.Errorf("decoding otp record: %w", err)
	}
	if rec.Phone != strings.TrimSpace(phone) {
		s.restore(ctx, key, payload, ttlCmd.Val())
		return ErrPhoneMismatch
	}
	if !CheckCode(strings.TrimSpace(code), rec.CodeHash) {
		s.restore(ctx, key, payload, ttlCmd.Val())
		return ErrCodeMismatch
	}
	return nil
}

// restore re-stores the record after a failed comparison. SetNX keeps a
// code issued concurrently from being clobbered by the old one.
func (s *RedisStore) restore(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	if err := s.client.SetNX(ctx, key, payload, ttl).Err(); err != nil {
		log.Printf("Failed to restore pending OTP record: %v", err)
	}
}
