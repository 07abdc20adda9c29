package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	clientName     = "templated"
)

// Config holds the settings for the Redis instance backing the template cache
// and the idempotency store. Addr is either host:port or a redis:// URL; URL
// credentials and database win over Password and DB.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int // 0 keeps the driver default
	Timeout  time.Duration
}

func (c Config) options() (*redis.Options, error) {
	if strings.HasPrefix(c.Addr, "redis://") || strings.HasPrefix(c.Addr, "rediss://") {
		opts, err := redis.ParseURL(c.Addr)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}, nil
}

// Connect builds a client from cfg and pings it before returning.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts.ClientName = clientName
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}
