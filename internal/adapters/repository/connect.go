package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Connect opens a pgx-backed pool and waits for postgres to accept
// connections, backing off exponentially between attempts.
func Connect(ctx context.Context, dsn string, retries uint64) (*sqlx.DB, error) {
	var db *sqlx.DB

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)

	err := backoff.Retry(func() error {
		conn, err := sqlx.ConnectContext(ctx, "pgx", dsn)
		if err != nil {
			logrus.WithError(err).Warn("database not reachable, retrying")
			return err
		}
		db = conn
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
