package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/pairs/gate"
)

const keyPrefix = "pairs:adf:"

// Cache memoizes p-values in redis. Parameter sweeps that share filter
// settings replay identical windows, so repeated runs hit the cache.
// Redis failures are logged and fall through to the wrapped test.
type Cache struct {
	rdb  redis.Cmdable
	next gate.StationarityTest
	ttl  time.Duration
	salt string
	log  zerolog.Logger
}

// NewCache wraps next. salt must change whenever next's settings change
// (lag order, regression), since it is part of the key.
func NewCache(rdb redis.Cmdable, next gate.StationarityTest, ttl time.Duration, salt string, log zerolog.Logger) *Cache {
	return &Cache{rdb: rdb, next: next, ttl: ttl, salt: salt, log: log}
}

// PValue implements gate.StationarityTest.
func (c *Cache) PValue(ctx context.Context, series []float64) (float64, error) {
	key := c.Key(series)

	s, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if p, perr := strconv.ParseFloat(s, 64); perr == nil {
			return p, nil
		}
		c.log.Warn().Str("key", key).Str("value", s).Msg("ignoring malformed cached p-value")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn().Err(err).Msg("redis get failed")
	}

	p, err := c.next.PValue(ctx, series)
	if err != nil {
		return p, err
	}

	if err := c.rdb.Set(ctx, key, strconv.FormatFloat(p, 'g', -1, 64), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("redis set failed")
	}
	return p, nil
}

// Key returns the cache key for series.
func (c *Cache) Key(series []float64) string {
	h := sha256.New()
	h.Write([]byte(c.salt))
	var buf [8]byte
	for _, v := range series {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
