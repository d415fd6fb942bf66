package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window counter shared by every instance pointing at the
// same Redis database.
type Redis struct {
	client      *redis.Client
	maxRequests int64
	window      time.Duration
	prefix      string
	now         func() time.Time
}

type Options struct {
	Address     string
	Password    string
	DB          int
	Prefix      string
	MaxRequests int
	Window      time.Duration
}

type Option func(*Options)

func WithAddress(addr string) Option {
	return func(o *Options) {
		o.Address = addr
	}
}

func WithPassword(pass string) Option {
	return func(o *Options) {
		o.Password = pass
	}
}

func WithDB(db int) Option {
	return func(o *Options) {
		o.DB = db
	}
}

func WithPrefix(prefix string) Option {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

func WithLimit(maxRequests int, window time.Duration) Option {
	return func(o *Options) {
		o.MaxRequests = maxRequests
		o.Window = window
	}
}

// NewRedis connects to Redis and fails if the server does not answer a PING.
func NewRedis(ctx context.Context, opts ...Option) (*Redis, error) {
	options := &Options{
		Address:     "localhost:6379",
		Prefix:      "ratelimit",
		MaxRequests: 60,
		Window:      time.Minute,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.MaxRequests < 1 {
		return nil, fmt.Errorf("max requests must be positive, got %d", options.MaxRequests)
	}
	if options.Window < time.Second {
		return nil, fmt.Errorf("window must be at least one second, got %s", options.Window)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       options.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", options.Address, err)
	}

	return &Redis{
		client:      client,
		maxRequests: int64(options.MaxRequests),
		window:      options.Window,
		prefix:      options.Prefix,
		now:         time.Now,
	}, nil
}

func (r *Redis) windowKey(key string) string {
	slot := r.now().UnixNano() / int64(r.window)
	return fmt.Sprintf("%s:%s:%d", r.prefix, key, slot)
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := r.windowKey(key)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter %s: %w", k, err)
	}

	return incr.Val() <= r.maxRequests, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
