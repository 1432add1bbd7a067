// Package rd provides the cache backend seam: a KV contract with a Redis
// implementation and an in-memory implementation, plus the circuit-breaker
// protected SafeKV wrapper every caller goes through
package rd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the minimal cache surface the candidates layer needs.
// Get returns (value, true, nil) on hit and (nil, false, nil) on a clean miss;
// transport failures surface as errors so SafeKV can feed the breaker
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetEx(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Endpoint() string
	Close() error
}

// Config configures the Redis KV client
type Config struct {
	URL            string
	ConnectTimeout time.Duration
	OpTimeout      time.Duration
}

type redisKV struct {
	client   *redis.Client
	endpoint string
}

// OpenRedis builds a Redis-backed KV from a redis:// URL or a bare host:port.
// Supporting both formats keeps local/dev and container config paths simple
func OpenRedis(cfg Config) (KV, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rd: redis URL is required")
	}
	var opt *redis.Options
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("rd: parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: cfg.URL}
	}
	if cfg.ConnectTimeout > 0 {
		opt.DialTimeout = cfg.ConnectTimeout
	}
	if cfg.OpTimeout > 0 {
		opt.ReadTimeout = cfg.OpTimeout
		opt.WriteTimeout = cfg.OpTimeout
	}
	return &redisKV{
		client:   redis.NewClient(opt),
		endpoint: EndpointKey(cfg.URL),
	}, nil
}

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

func (r *redisKV) SetEx(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *redisKV) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *redisKV) Endpoint() string { return r.endpoint }

func (r *redisKV) Close() error { return r.client.Close() }

// EndpointKey extracts host:port from a backend URL for breaker keying.
// A bare host:port passes through; a default port is assumed when missing
func EndpointKey(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "unknown:6379"
	}
	if !strings.Contains(s, "://") {
		if !strings.Contains(s, ":") {
			return s + ":6379"
		}
		return s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return "unknown:6379"
	}
	port := u.Port()
	if port == "" {
		port = "6379"
	}
	return u.Hostname() + ":" + port
}
