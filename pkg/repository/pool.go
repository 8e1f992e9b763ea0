// Package repository is the persistence layer: three narrow
// repositories (devices, alarms, metrics) over a shared pgxpool.Pool,
// plus idempotent schema initialization.
package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kestrel-nms/netmon/pkg/config"
	"github.com/kestrel-nms/netmon/pkg/logger"
)

// NewPool builds a connection pool from cfg, sized by DBPoolSize.
func NewPool(ctx context.Context, cfg *config.Config, log logger.Logger) (*pgxpool.Pool, error) {
	dsn := buildDSN(cfg)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: parsing pool config: %w", err)
	}

	if cfg.DBPoolSize > 0 {
		poolCfg.MaxConns = int32(cfg.DBPoolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("repository: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping: %w", err)
	}

	log.Info().Str("host", cfg.DBHost).Int("port", cfg.DBPort).Str("database", cfg.DBName).Msg("connected to database")

	return pool, nil
}

func buildDSN(cfg *config.Config) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort),
		Path:   "/" + cfg.DBName,
	}

	if cfg.DBUser != "" {
		u.User = url.UserPassword(cfg.DBUser, cfg.DBPassword)
	}

	q := u.Query()
	q.Set("sslmode", "disable")
	if cfg.Env == "production" {
		q.Set("sslmode", "require")
	}

	q.Set("application_name", "netmon")
	u.RawQuery = q.Encode()

	return u.String()
}
