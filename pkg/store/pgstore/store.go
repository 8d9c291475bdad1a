// Package pgstore implements the auth store contracts on PostgreSQL.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/pg"
)

// Migrations holds the goose schema migrations under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations to pass to pg.Migrate.
const MigrationsDir = "migrations"

// querier is the subset of pgx shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)

	_ auth.AccountStore      = (*Accounts)(nil)
	_ auth.RefreshTokenStore = (*RefreshTokens)(nil)
	_ auth.ResetTokenStore   = (*ResetTokens)(nil)
	_ auth.Transactor        = (*Store)(nil)
)

type txKey struct{}

// Store binds the auth stores to a pool. Calls made with a ctx returned by
// WithinTx run on that transaction.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store on pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Stores returns s wired into auth.Stores.
func (s *Store) Stores() auth.Stores {
	return auth.Stores{
		Accounts:      &Accounts{s: s},
		RefreshTokens: &RefreshTokens{s: s},
		ResetTokens:   &ResetTokens{s: s},
		Tx:            s,
	}
}

// WithinTx runs fn in a read-committed transaction. A nested call joins the
// outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// mapWriteError translates unique violations into auth conflicts.
func mapWriteError(err error) error {
	if !pg.IsDuplicateKeyError(err) {
		return err
	}
	switch pg.ConstraintName(err) {
	case "accounts_email_key":
		return auth.ErrEmailAlreadyExists
	case "accounts_provider_key":
		return auth.ErrProviderLinked
	case "refresh_tokens_pkey", "password_reset_tokens_pkey":
		return auth.ErrDuplicateToken
	default:
		return errors.Join(auth.ErrConflict, err)
	}
}
