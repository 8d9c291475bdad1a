// Package mongostore implements the auth store contracts on MongoDB.
//
// Uniqueness is enforced by indexes created in EnsureIndexes. Transactions
// need a replica set; on a standalone server construct the Store with
// WithTransactions(false) and WithinTx runs without one.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/authcore/pkg/auth"
	mongox "github.com/dmitrymomot/authcore/pkg/mongo"
)

const (
	collAccounts      = "accounts"
	collRefreshTokens = "refresh_tokens"
	collResetTokens   = "password_reset_tokens"

	indexEmail    = "accounts_email_key"
	indexProvider = "accounts_provider_key"
)

var (
	_ auth.AccountStore      = (*Accounts)(nil)
	_ auth.RefreshTokenStore = (*RefreshTokens)(nil)
	_ auth.ResetTokenStore   = (*ResetTokens)(nil)
	_ auth.Transactor        = (*Store)(nil)
)

// Store binds the auth stores to a database.
type Store struct {
	db           *mongo.Database
	transactions bool
}

// Option configures a Store.
type Option func(*Store)

// WithTransactions toggles session transactions in WithinTx. Enabled by default.
func WithTransactions(enabled bool) Option {
	return func(s *Store) { s.transactions = enabled }
}

// New returns a Store on db.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{db: db, transactions: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stores returns s wired into auth.Stores.
func (s *Store) Stores() auth.Stores {
	return auth.Stores{
		Accounts:      &Accounts{coll: s.db.Collection(collAccounts)},
		RefreshTokens: &RefreshTokens{coll: s.db.Collection(collRefreshTokens)},
		ResetTokens:   &ResetTokens{coll: s.db.Collection(collResetTokens)},
		Tx:            s,
	}
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collAccounts).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexEmail),
		},
		{
			Keys: bson.D{{Key: "provider", Value: 1}, {Key: "provider_account_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(indexProvider).
				SetPartialFilterExpression(bson.D{{Key: "provider", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create account indexes: %w", err)
	}

	if _, err := s.db.Collection(collRefreshTokens).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "account_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create refresh token indexes: %w", err)
	}
	if _, err := s.db.Collection(collResetTokens).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create reset token indexes: %w", err)
	}
	return nil
}

// WithinTx runs fn inside a session transaction. A nested call joins the
// session already carried by ctx.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// mapWriteError translates duplicate key errors into auth conflicts.
func mapWriteError(err error) error {
	if !mongox.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexEmail):
		return auth.ErrEmailAlreadyExists
	case strings.Contains(msg, indexProvider):
		return auth.ErrProviderLinked
	case strings.Contains(msg, "_id_"):
		return auth.ErrDuplicateToken
	default:
		return errors.Join(auth.ErrConflict, err)
	}
}
