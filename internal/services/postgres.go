package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

// PostgresProvider checks PostgreSQL through a small database/sql pool
// separate from the repository's pgx pool.
type PostgresProvider struct {
	BaseProvider
	db   *sql.DB
	host string
}

// NewPostgresProvider opens the probe connection; it does not require the database to be up yet
func NewPostgresProvider(dsn string) (*PostgresProvider, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(time.Minute)

	return &PostgresProvider{
		BaseProvider: BaseProvider{serviceType: "postgres"},
		db:           db,
		host:         dsnHost(dsn),
	}, nil
}

// HealthCheck verifies PostgreSQL connectivity
func (p *PostgresProvider) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres at %s: %w", p.host, err)
	}
	return nil
}

// Close closes the probe connection
func (p *PostgresProvider) Close() error {
	return p.db.Close()
}

// dsnHost extracts host:port from a URL-style DSN for log and error messages
func dsnHost(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "localhost:5432"
	}
	return u.Host
}
