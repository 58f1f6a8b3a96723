package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"metallix-backend/internal/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Coordinator runs a group of writes as one all-or-nothing unit.
type Coordinator struct {
	DB        *gorm.DB
	Isolation sql.IsolationLevel
}

// NewCoordinator returns a Coordinator using the named isolation level.
func NewCoordinator(db *gorm.DB, isolation string) (*Coordinator, error) {
	level, err := ParseIsolation(isolation)
	if err != nil {
		return nil, err
	}
	return &Coordinator{DB: db, Isolation: level}, nil
}

// ParseIsolation maps a config value to a database/sql isolation level.
func ParseIsolation(s string) (sql.IsolationLevel, error) {
	switch s {
	case "", "default":
		return sql.LevelDefault, nil
	case "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	}
	return sql.LevelDefault, fmt.Errorf("unknown isolation level %q", s)
}

// Do runs fn inside a transaction. Any error rolls the whole unit back. A transient
// conflict (serialization failure or deadlock) is retried once; anything the
// callback did not classify is reported as a storage failure.
func (c *Coordinator) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	const maxAttempts = 2
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = c.run(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == maxAttempts {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("transaction conflict, retrying")
	}
	return apperror.Storage(err)
}

func (c *Coordinator) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var opts []*sql.TxOptions
	if c.Isolation != sql.LevelDefault {
		opts = append(opts, &sql.TxOptions{Isolation: c.Isolation})
	}
	return c.DB.WithContext(ctx).Transaction(fn, opts...)
}

// IsTransient reports whether err is a Postgres serialization failure (40001)
// or deadlock (40P01).
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
