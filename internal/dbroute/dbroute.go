// Package dbroute loads the scheduler's channel routing table from
// Postgres, once per PUSH session handshake (spec.md §6).
package dbroute

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/typefo/lamb/internal/routing"
)

// Config is the subset of gwconfig.Config this package needs.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// Open establishes the connection pool used for the lifetime of the
// broker process. A failure here is a startup failure (spec.md §7).
func Open(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("dbroute: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dbroute: ping: %w", err)
	}
	return pool, nil
}

// LoadChannels returns every gateway channel assigned to account,
// ordered the way the original iterates them (ascending id), so that
// routing.Decide's first-fit policy behaves identically.
//
// A query failure here is a session-scoped failure, not a startup one
// (spec.md §6, §7): the caller treats a non-nil error the same as an
// empty channel list, degrading that session's submissions to NOROUTE
// rather than crashing the broker.
func LoadChannels(ctx context.Context, pool *pgxpool.Pool, account uint32) ([]routing.Channel, error) {
	rows, err := pool.Query(ctx,
		"SELECT id, acc, weight, operator, province FROM channels WHERE acc = $1 ORDER BY id",
		account)
	if err != nil {
		return nil, fmt.Errorf("dbroute: query channels: %w", err)
	}
	defer rows.Close()

	var channels []routing.Channel
	for rows.Next() {
		var c routing.Channel
		if err := rows.Scan(&c.ID, &c.Acc, &c.Weight, &c.Operator, &c.Province); err != nil {
			return nil, fmt.Errorf("dbroute: scan channel row: %w", err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dbroute: iterate channel rows: %w", err)
	}
	return channels, nil
}
