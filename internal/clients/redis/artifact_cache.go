package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/studyforge-backend/internal/logger"
)

const keyPrefix = "artifact_cache:"

// CachedArtifact is the answer-stripped view of an artifact kept in redis.
// Items must never contain correct option ids or flashcard answers.
type CachedArtifact struct {
	Version  string          `json:"version"`
	Items    json.RawMessage `json:"items"`
	CachedAt int64           `json:"cached_at"` // unix millis
}

type ArtifactCache interface {
	Get(ctx context.Context, artifactID uuid.UUID) (*CachedArtifact, error)
	Set(ctx context.Context, artifactID uuid.UUID, entry CachedArtifact) error
	Invalidate(ctx context.Context, artifactID uuid.UUID) error
	Close() error
}

type artifactCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewArtifactCache(log *logger.Logger, ttl time.Duration) (ArtifactCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &artifactCache{
		log: log.With("service", "RedisArtifactCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *artifactCache) Get(ctx context.Context, artifactID uuid.UUID) (*CachedArtifact, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("artifact cache not initialized")
	}
	if artifactID == uuid.Nil {
		return nil, nil
	}

	raw, err := c.rdb.Get(ctx, cacheKey(artifactID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry CachedArtifact
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn("bad cached artifact payload, evicting", "artifact_id", artifactID.String(), "error", err)
		_ = c.rdb.Del(ctx, cacheKey(artifactID)).Err()
		return nil, nil
	}

	// Redis already expires the key; the stamp check also catches entries
	// written with a longer TTL before a config change.
	if Expired(entry.CachedAt, time.Now(), c.ttl) {
		_ = c.rdb.Del(ctx, cacheKey(artifactID)).Err()
		return nil, nil
	}
	return &entry, nil
}

func (c *artifactCache) Set(ctx context.Context, artifactID uuid.UUID, entry CachedArtifact) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("artifact cache not initialized")
	}
	if artifactID == uuid.Nil {
		return fmt.Errorf("artifact id required")
	}
	if entry.CachedAt == 0 {
		entry.CachedAt = time.Now().UnixMilli()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(artifactID), raw, c.ttl).Err()
}

func (c *artifactCache) Invalidate(ctx context.Context, artifactID uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	if artifactID == uuid.Nil {
		return nil
	}
	return c.rdb.Del(ctx, cacheKey(artifactID)).Err()
}

func (c *artifactCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func cacheKey(artifactID uuid.UUID) string {
	return keyPrefix + artifactID.String()
}

// Expired reports whether a cache stamp is older than ttl at the given time.
func Expired(cachedAtMillis int64, now time.Time, ttl time.Duration) bool {
	if cachedAtMillis <= 0 {
		return true
	}
	age := now.Sub(time.UnixMilli(cachedAtMillis))
	return age > ttl
}
