// Package cache keeps per-owner recuerdo lists in Redis.
package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/recuerdos-backend/internal/models"
)

const (
	// KeyPrefix is the Redis key prefix for cached data
	KeyPrefix = "cache:recuerdos:"
	// DefaultTTL applies when the configured TTL is not positive
	DefaultTTL = 5 * time.Minute

	listPrefix = KeyPrefix + "list:"
	genPrefix  = KeyPrefix + "gen:"
)

// RecuerdosCache stores list and search results under
// cache:recuerdos:list:<owner>:<generation>:<scope> with owner and scope
// base64url-encoded, so neither can contain ':' or glob characters.
// Invalidate bumps the owner's generation in Redis; entries written for an
// older generation are never read again.
type RecuerdosCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	genTTL time.Duration
}

func NewRecuerdosCache(rdb *redis.Client, ttl time.Duration) *RecuerdosCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	// Generations must outlive every entry written under them.
	return &RecuerdosCache{rdb: rdb, ttl: ttl, genTTL: ttl + 24*time.Hour}
}

func encode(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// Key builds the Redis key for one owner, generation and scope.
func Key(userID string, gen uint64, scope string) string {
	return listPrefix + encode(userID) + ":" + strconv.FormatUint(gen, 10) + ":" + encode(scope)
}

// GenerationKey is where the owner's generation counter lives.
func GenerationKey(userID string) string {
	return genPrefix + encode(userID)
}

// Generation returns the owner's current generation, 0 if none was stored.
func (c *RecuerdosCache) Generation(ctx context.Context, userID string) (uint64, error) {
	gen, err := c.rdb.Get(ctx, GenerationKey(userID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetList returns the cached list, or ok=false on a miss.
func (c *RecuerdosCache) GetList(ctx context.Context, userID string, gen uint64, scope string) ([]models.Recuerdo, bool, error) {
	b, err := c.rdb.Get(ctx, Key(userID, gen, scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []models.Recuerdo
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, false, err
	}
	if list == nil {
		list = []models.Recuerdo{}
	}
	return list, true, nil
}

func (c *RecuerdosCache) SetList(ctx context.Context, userID string, gen uint64, scope string, list []models.Recuerdo) error {
	if list == nil {
		list = []models.Recuerdo{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, Key(userID, gen, scope), b, c.ttl).Err()
}

// Invalidate moves the owner to a new generation, then drops the entries of
// older ones.
func (c *RecuerdosCache) Invalidate(ctx context.Context, userID string) error {
	genKey := GenerationKey(userID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, c.genTTL)
		return nil
	})
	if err != nil {
		return err
	}

	iter := c.rdb.Scan(ctx, 0, listPrefix+encode(userID)+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
