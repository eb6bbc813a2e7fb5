package postgres

import (
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"doklado/internal/config"
)

// connMaxLifetime bounds how long a pooled connection is reused, so the pool
// drifts to new backends after a database failover.
const connMaxLifetime = 30 * time.Minute

// NewDB opens a PostgreSQL pool over the pgx stdlib driver and verifies the
// connection.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	return db, nil
}
