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

type refreshTokenDoc struct {
	Token     string    `bson:"_id"`
	AccountID string    `bson:"account_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// RefreshTokens is the MongoDB auth.RefreshTokenStore.
type RefreshTokens struct{ coll *mongo.Collection }

func (r *RefreshTokens) GetByToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	var doc refreshTokenDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: token}}).Decode(&doc); err != nil {
		if mongox.IsNotFoundError(err) {
			return nil, auth.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	accountID, err := uuid.Parse(doc.AccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token owner %q: %w", doc.AccountID, err)
	}
	return &auth.RefreshToken{
		Token:     doc.Token,
		AccountID: accountID,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (r *RefreshTokens) Add(ctx context.Context, token *auth.RefreshToken) error {
	doc := refreshTokenDoc{
		Token:     token.Token,
		AccountID: token.AccountID.String(),
		ExpiresAt: token.ExpiresAt.UTC(),
		CreatedAt: token.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapWriteError(fmt.Errorf("failed to insert refresh token: %w", err))
	}
	return nil
}

func (r *RefreshTokens) Update(ctx context.Context, token *auth.RefreshToken) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: token.Token}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "account_id", Value: token.AccountID.String()},
		{Key: "expires_at", Value: token.ExpiresAt.UTC()},
	}}})
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrRefreshTokenNotFound
	}
	return nil
}

func (r *RefreshTokens) Delete(ctx context.Context, token string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: token}})
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if res.DeletedCount == 0 {
		return auth.ErrRefreshTokenNotFound
	}
	return nil
}

type resetTokenDoc struct {
	Token     string    `bson:"_id"`
	Email     string    `bson:"email"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// ResetTokens is the MongoDB auth.ResetTokenStore.
type ResetTokens struct{ coll *mongo.Collection }

func (r *ResetTokens) GetByToken(ctx context.Context, token string) (*auth.PasswordResetToken, error) {
	var doc resetTokenDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: token}}).Decode(&doc); err != nil {
		if mongox.IsNotFoundError(err) {
			return nil, auth.ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}
	return &auth.PasswordResetToken{
		Token:     doc.Token,
		Email:     doc.Email,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (r *ResetTokens) Add(ctx context.Context, token *auth.PasswordResetToken) error {
	doc := resetTokenDoc{
		Token:     token.Token,
		Email:     auth.NormalizeEmail(token.Email),
		ExpiresAt: token.ExpiresAt.UTC(),
		CreatedAt: token.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapWriteError(fmt.Errorf("failed to insert reset token: %w", err))
	}
	return nil
}

func (r *ResetTokens) Delete(ctx context.Context, token string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: token}})
	if err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}
	if res.DeletedCount == 0 {
		return auth.ErrResetTokenNotFound
	}
	return nil
}
