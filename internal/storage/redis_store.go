package storage

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gamedigest/internal/model"
)

const (
	recordTTL    = 7 * 24 * time.Hour
	publishedTTL = 30 * 24 * time.Hour
)

// RedisStore buffers raw source records between collector runs and digest
// builds, and remembers what has already gone out.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func recordKey(topic model.Topic, kind model.SourceKind, id string) string {
	return fmt.Sprintf("digest:rec:%s:%s:%s", topic, kind, id)
}

func rawKey(topic model.Topic, kind model.SourceKind, period string) string {
	return fmt.Sprintf("digest:raw:%s:%s:%s", topic, kind, period)
}

func publishedKey(topic model.Topic, period string) string {
	return fmt.Sprintf("digest:published:%s:%s", topic, period)
}

func sentKey(topic model.Topic, id string) string {
	return fmt.Sprintf("digest:sent:%s:%s", topic, id)
}

// safeID makes a record ID usable as a Redis key segment. IDs that carry
// URL characters (RSS GUIDs are often permalinks) are replaced by a short
// content hash.
func safeID(id string) string {
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			h := sha256.Sum256([]byte(id))
			return fmt.Sprintf("%x", h[:16])
		}
	}
	return id
}

// AddRecord stores one raw record and indexes it in the topic's per-kind
// period set, scored by publication time so newest-first reads are cheap.
// Records without a timestamp are scored with the current time.
func (s *RedisStore) AddRecord(ctx context.Context, period string, rec model.RawRecord) error {
	id := safeID(rec.ID())
	if id == "" {
		return fmt.Errorf("storage: record without id")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, recordKey(rec.Topic, rec.Kind, id), b, recordTTL).Err(); err != nil {
		return err
	}
	published := rec.PublishedAt()
	if published.IsZero() {
		published = time.Now()
	}
	key := rawKey(rec.Topic, rec.Kind, period)
	if err := s.rdb.ZAdd(ctx, key, redis.Z{Score: float64(published.Unix()), Member: id}).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, recordTTL).Err()
}

// Records returns up to n buffered records for one (topic, kind, period),
// newest first. n <= 0 means all. Index members whose record key has
// already expired are skipped.
func (s *RedisStore) Records(ctx context.Context, topic model.Topic, kind model.SourceKind, period string, n int) ([]model.RawRecord, error) {
	stop := int64(n - 1)
	if n <= 0 {
		stop = -1
	}
	ids, err := s.rdb.ZRevRange(ctx, rawKey(topic, kind, period), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	records := make([]model.RawRecord, 0, len(ids))
	for _, id := range ids {
		b, err := s.rdb.Get(ctx, recordKey(topic, kind, id)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec model.RawRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// IsPublished reports whether a digest already went out for the topic and
// period.
func (s *RedisStore) IsPublished(ctx context.Context, topic model.Topic, period string) (bool, error) {
	res, err := s.rdb.Get(ctx, publishedKey(topic, period)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res == "1", nil
}

func (s *RedisStore) MarkPublished(ctx context.Context, topic model.Topic, period string) error {
	return s.rdb.Set(ctx, publishedKey(topic, period), "1", publishedTTL).Err()
}

// IsSent reports whether an item already appeared in an earlier digest for
// the topic.
func (s *RedisStore) IsSent(ctx context.Context, topic model.Topic, id string) (bool, error) {
	_, err := s.rdb.Get(ctx, sentKey(topic, safeID(id))).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkSent suppresses an item from future digests for the given duration.
func (s *RedisStore) MarkSent(ctx context.Context, topic model.Topic, id string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, sentKey(topic, safeID(id)), "1", d).Err()
}
