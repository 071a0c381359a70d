// Package postgres is the pgx-backed credential store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

const pgErrUniqueViolation = "23505"

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements ports.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
	log  zerolog.Logger
}

var _ ports.Store = (*Store)(nil)

// New connects, pings and optionally migrates.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, q: pool, log: log}
	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// Ping checks connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Users() ports.UserRepository                 { return &UserRepository{q: s.q} }
func (s *Store) Organizations() ports.OrganizationRepository { return &OrganizationRepository{q: s.q} }
func (s *Store) Memberships() ports.MembershipRepository     { return &MembershipRepository{q: s.q} }
func (s *Store) RefreshTokens() ports.RefreshTokenStore      { return &TokenStore{q: s.q} }
func (s *Store) Invites() ports.InviteRepository             { return &InviteRepository{q: s.q} }

// WithinTx runs fn in a READ COMMITTED transaction. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&Store{pool: s.pool, q: tx, inTx: true, log: s.log}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
