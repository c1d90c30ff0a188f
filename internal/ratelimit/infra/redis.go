package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adi-253/parley/backend/internal/ratelimit/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript prunes, counts and conditionally records in one step.
// Scores are unix milliseconds.
//
// KEYS[1] window key
// ARGV[1] now, ARGV[2] window, ARGV[3] limit, ARGV[4] member
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
	local retry = 0
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	if oldest[2] then
		retry = tonumber(oldest[2]) + window - now
	end
	return {0, count, retry}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// RedisStore keeps sliding windows in Redis sorted sets so several server
// processes share one limit. Keys expire with their window.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
}

type RedisOption func(*RedisStore)

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisStore(rdb redis.Scripter, opts ...RedisOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: "ratelimit:window"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit implements domain.WindowStore.
func (s *RedisStore) Admit(ctx context.Context, key domain.Key, p domain.Policy, now time.Time) (domain.Decision, error) {
	nowMs := now.UnixMilli()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.New().String()

	res, err := slidingWindowScript.Run(ctx, s.rdb,
		[]string{s.prefix + ":" + string(key)},
		nowMs, p.Window.Milliseconds(), p.Limit, member,
	).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("sliding window script: %w", err)
	}
	if len(res) != 3 {
		return domain.Decision{}, fmt.Errorf("sliding window script: unexpected reply %v", res)
	}

	return domain.Decision{
		Allowed:    res[0] == 1,
		Count:      int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}
