package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/piwi3910/RollSlit/internal/engine"
)

// RedisSequencer allocates job numbers with INCR so several processes
// sharing one database never hand out the same number. A number taken by a
// job whose transaction later fails is not reused, leaving a gap.
type RedisSequencer struct {
	client *redis.Client
	prefix string
}

// ConnectRedis parses url, connects and checks the server responds.
func ConnectRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.MaxRetries = 3
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisSequencer creates a sequencer using keys "{prefix}:{fiscalYear}".
// An empty prefix defaults to "rollslit:seq".
func NewRedisSequencer(client *redis.Client, prefix string) *RedisSequencer {
	if prefix == "" {
		prefix = "rollslit:seq"
	}
	return &RedisSequencer{client: client, prefix: prefix}
}

func (s *RedisSequencer) key(fy string) string {
	return s.prefix + ":" + fy
}

// NextJobSeq increments and returns the counter for fy.
func (s *RedisSequencer) NextJobSeq(ctx context.Context, fy string) (int, error) {
	n, err := s.client.Incr(ctx, s.key(fy)).Result()
	if err != nil {
		return 0, fmt.Errorf("next job seq %s: %w", fy, err)
	}
	return int(n), nil
}

var _ engine.SequenceAdvancer = (*RedisSequencer)(nil)

// advanceScript raises KEYS[1] to ARGV[1] and never lowers it.
var advanceScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local last = tonumber(ARGV[1])
if cur < last then
	redis.call("SET", KEYS[1], last)
	return last
end
return cur
`)

// AdvanceJobSeq raises the counter for fy so the next number is above last.
// It is used when importing a backup that already contains numbered jobs.
func (s *RedisSequencer) AdvanceJobSeq(ctx context.Context, fy string, last int) error {
	if err := advanceScript.Run(ctx, s.client, []string{s.key(fy)}, last).Err(); err != nil {
		return fmt.Errorf("advance job seq %s: %w", fy, err)
	}
	return nil
}
