package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/authcore/pkg/auth"
	mongox "github.com/dmitrymomot/authcore/pkg/mongo"
)

type accountDoc struct {
	ID                string    `bson:"_id"`
	Email             string    `bson:"email"`
	PasswordHash      string    `bson:"password_hash"`
	FullName          string    `bson:"full_name"`
	IsActive          bool      `bson:"is_active"`
	Provider          string    `bson:"provider,omitempty"`
	ProviderAccountID string    `bson:"provider_account_id,omitempty"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func toAccountDoc(a *auth.Account) accountDoc {
	return accountDoc{
		ID:                a.ID.String(),
		Email:             auth.NormalizeEmail(a.Email),
		PasswordHash:      a.PasswordHash,
		FullName:          a.FullName,
		IsActive:          a.IsActive,
		Provider:          a.Provider,
		ProviderAccountID: a.ProviderAccountID,
		CreatedAt:         a.CreatedAt.UTC(),
		UpdatedAt:         a.UpdatedAt.UTC(),
	}
}

func (d accountDoc) account() (*auth.Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", d.ID, err)
	}
	return &auth.Account{
		ID:                id,
		Email:             d.Email,
		PasswordHash:      d.PasswordHash,
		FullName:          d.FullName,
		IsActive:          d.IsActive,
		Provider:          d.Provider,
		ProviderAccountID: d.ProviderAccountID,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

// Accounts is the MongoDB auth.AccountStore.
type Accounts struct{ coll *mongo.Collection }

func (a *Accounts) GetByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	return a.find(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (a *Accounts) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return a.find(ctx, bson.D{{Key: "email", Value: auth.NormalizeEmail(email)}})
}

func (a *Accounts) GetByProvider(ctx context.Context, provider, externalID string) (*auth.Account, error) {
	return a.find(ctx, bson.D{
		{Key: "provider", Value: provider},
		{Key: "provider_account_id", Value: externalID},
	})
}

func (a *Accounts) find(ctx context.Context, filter bson.D) (*auth.Account, error) {
	var doc accountDoc
	if err := a.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if mongox.IsNotFoundError(err) {
			return nil, auth.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return doc.account()
}

func (a *Accounts) Add(ctx context.Context, account *auth.Account) error {
	if _, err := a.coll.InsertOne(ctx, toAccountDoc(account)); err != nil {
		return mapWriteError(fmt.Errorf("failed to insert account: %w", err))
	}
	return nil
}

func (a *Accounts) Update(ctx context.Context, account *auth.Account) error {
	doc := toAccountDoc(account)
	res, err := a.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc)
	if err != nil {
		return mapWriteError(fmt.Errorf("failed to update account: %w", err))
	}
	if res.MatchedCount == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}
