package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/authcore/pkg/auth"
	mongox "github.com/dmitrymomot/authcore/pkg/mongo"
)

func TestMapWriteError(t *testing.T) {
	t.Parallel()

	dup := func(index string) error {
		return fmt.Errorf("insert: %w", mongo.WriteException{WriteErrors: mongo.WriteErrors{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: authcore.accounts index: " + index + " dup key",
		}}})
	}

	assert.ErrorIs(t, mapWriteError(dup(indexEmail)), auth.ErrEmailAlreadyExists)
	assert.ErrorIs(t, mapWriteError(dup(indexProvider)), auth.ErrProviderLinked)
	assert.ErrorIs(t, mapWriteError(dup("_id_")), auth.ErrDuplicateToken)
	assert.ErrorIs(t, mapWriteError(dup("other")), auth.ErrConflict)

	plain := errors.New("timeout")
	assert.Equal(t, plain, mapWriteError(plain))
}

func TestAccountDoc(t *testing.T) {
	t.Parallel()

	acc := &auth.Account{
		ID:                uuid.New(),
		Email:             " Mixed@Example.com",
		FullName:          "Mixed",
		IsActive:          true,
		Provider:          "github",
		ProviderAccountID: "9",
		CreatedAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	doc := toAccountDoc(acc)
	assert.Equal(t, "mixed@example.com", doc.Email)

	back, err := doc.account()
	require.NoError(t, err)
	assert.Equal(t, acc.ID, back.ID)
	assert.Equal(t, acc.ProviderAccountID, back.ProviderAccountID)

	doc.ID = "not-a-uuid"
	_, err = doc.account()
	assert.Error(t, err)
}

// TestStore_Mongo runs against a live server when MONGOSTORE_TEST_URL is set.
func TestStore_Mongo(t *testing.T) {
	url := os.Getenv("MONGOSTORE_TEST_URL")
	if url == "" {
		t.Skip("MONGOSTORE_TEST_URL not set")
	}

	ctx := context.Background()
	db, err := mongox.ConnectDatabase(ctx, mongox.Config{
		ConnectionURL:  url,
		Database:       "authcore_test_" + uuid.NewString()[:8],
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  1,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = db.Client().Disconnect(context.Background())
	})

	store := New(db, WithTransactions(false))
	require.NoError(t, store.EnsureIndexes(ctx))
	stores := store.Stores()

	now := time.Now().UTC().Truncate(time.Millisecond)
	acc := &auth.Account{ID: uuid.New(), Email: "mongo@example.com", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, stores.Accounts.Add(ctx, acc))
	assert.ErrorIs(t, stores.Accounts.Add(ctx, &auth.Account{ID: uuid.New(), Email: "MONGO@example.com"}),
		auth.ErrEmailAlreadyExists)

	acc.Provider, acc.ProviderAccountID = "github", "55"
	require.NoError(t, stores.Accounts.Update(ctx, acc))
	got, err := stores.Accounts.GetByProvider(ctx, "github", "55")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	other := &auth.Account{ID: uuid.New(), Email: "other@example.com", Provider: "github", ProviderAccountID: "55"}
	assert.ErrorIs(t, stores.Accounts.Add(ctx, other), auth.ErrProviderLinked)

	rt := &auth.RefreshToken{Token: "t1", AccountID: acc.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, stores.RefreshTokens.Add(ctx, rt))
	assert.ErrorIs(t, stores.RefreshTokens.Add(ctx, rt), auth.ErrDuplicateToken)
	require.NoError(t, stores.RefreshTokens.Delete(ctx, "t1"))
	assert.ErrorIs(t, stores.RefreshTokens.Delete(ctx, "t1"), auth.ErrRefreshTokenNotFound)
}
