package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is read with envconfig under the POSTGRES_ prefix.
type Config struct {
	URL             string `split_words:"true"`
	MaxConns        int32  `split_words:"true" default:"4"`
	ConnectTimeout  int    `split_words:"true" default:"5"`
	MaxConnIdleTime int    `split_words:"true" default:"300"`
}

func (c *Config) New(ctx context.Context) (*pgxpool.Pool, error) {
	if c.URL == "" {
		return nil, errors.New("postgres url is empty")
	}
	cfg, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, err
	}
	if c.MaxConns > 0 {
		cfg.MaxConns = c.MaxConns
	}
	cfg.MaxConnIdleTime = time.Duration(c.MaxConnIdleTime) * time.Second
	cfg.ConnConfig.ConnectTimeout = time.Duration(c.ConnectTimeout) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
