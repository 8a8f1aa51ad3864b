package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAnswerStore is an optional second cache tier that survives process
// restarts. It only answers exact (normalized) matches; fuzzy matching stays
// in the in-memory tier. Any Redis failure is reported as an error for the
// caller to swallow as a miss.
type RedisAnswerStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAnswerStore creates a store around an existing client.
func NewRedisAnswerStore(client *redis.Client, ttl time.Duration) *RedisAnswerStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisAnswerStore{client: client, ttl: ttl}
}

func answerKey(sessionID, normalizedQuestion string) string {
	sum := sha1.Sum([]byte(normalizedQuestion))
	return fmt.Sprintf("qa:answer:%s:%s", sessionID, hex.EncodeToString(sum[:]))
}

// Lookup fetches a previously recorded answer for the exact question.
func (s *RedisAnswerStore) Lookup(ctx context.Context, sessionID, question string) (string, bool, error) {
	normalized := NormalizeQuestion(question)
	if normalized == "" {
		return "", false, nil
	}
	val, err := s.client.Get(ctx, answerKey(sessionID, normalized)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Record writes the answer with the configured TTL.
func (s *RedisAnswerStore) Record(ctx context.Context, sessionID, question, answer string) error {
	normalized := NormalizeQuestion(question)
	if normalized == "" {
		return nil
	}
	return s.client.Set(ctx, answerKey(sessionID, normalized), answer, s.ttl).Err()
}

// ResetSession deletes the session's cached answers.
func (s *RedisAnswerStore) ResetSession(ctx context.Context, sessionID string) error {
	pattern := fmt.Sprintf("qa:answer:%s:*", sessionID)
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
