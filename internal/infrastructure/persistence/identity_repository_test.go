package persistence

import (
	"context"
	"testing"

	"github.com/shop/backend/internal/domain/bulk"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, email string) *identity.User {
	t.Helper()
	user, err := identity.NewUser(email, "Tr0ub4dor&3x", "Anna", "Smirnova")
	require.NoError(t, err)
	return user
}

func TestGormUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user := newTestUser(t, "anna@Example.com")
	require.NoError(t, repo.Save(ctx, user))
	require.NotZero(t, user.ID)

	t.Run("finds by normalized email", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "anna@EXAMPLE.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.False(t, found.IsActive)
		assert.True(t, found.VerifyPassword("Tr0ub4dor&3x"))

		exists, err := repo.ExistsByEmail(ctx, "anna@example.COM")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := newTestUser(t, "anna@example.com")
		assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("activation is persisted", func(t *testing.T) {
		user.Activate()
		require.NoError(t, user.SetType(identity.UserTypeShop))
		require.NoError(t, repo.Save(ctx, user))

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, found.IsActive)
		assert.True(t, found.IsShop())
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 9999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = repo.FindByEmail(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormContactRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormContactRepository(db)
	ctx := context.Background()

	city, street, phone := "Kazan", "Baumana", "+79991112233"
	newContact := func(userID int64) *identity.Contact {
		c, err := identity.NewContact(userID, identity.ContactDetails{City: &city, Street: &street, Phone: &phone})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
		return c
	}

	mine1 := newContact(1)
	mine2 := newContact(1)
	theirs := newContact(2)

	contacts, err := repo.FindByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, contacts, 2)

	_, err = repo.FindByIDForUser(ctx, 1, theirs.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	house := "7"
	require.NoError(t, mine1.Apply(identity.ContactDetails{House: &house}))
	require.NoError(t, repo.Save(ctx, mine1))
	found, err := repo.FindByIDForUser(ctx, 1, mine1.ID)
	require.NoError(t, err)
	assert.Equal(t, "7", found.House)

	n, err := repo.DeleteByIDs(ctx, 1, []int64{mine2.ID, theirs.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByIDForUser(ctx, 2, theirs.ID)
	assert.NoError(t, err)
}

func TestGormTokenRepositories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("confirm email tokens", func(t *testing.T) {
		repo := NewGormConfirmEmailTokenRepository(db)
		token := identity.NewConfirmEmailToken(3)
		require.NoError(t, repo.Create(ctx, token))

		byUser, err := repo.FindByUserID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, token.Key, byUser.Key)

		byKey, err := repo.FindByKey(ctx, token.Key)
		require.NoError(t, err)
		assert.Equal(t, int64(3), byKey.UserID)

		require.NoError(t, repo.Delete(ctx, token.ID))
		_, err = repo.FindByKey(ctx, token.Key)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("password reset tokens", func(t *testing.T) {
		repo := NewGormPasswordResetTokenRepository(db)
		first := identity.NewPasswordResetToken(4)
		second := identity.NewPasswordResetToken(4)
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		found, err := repo.FindByKey(ctx, second.Key)
		require.NoError(t, err)
		assert.Equal(t, int64(4), found.UserID)

		require.NoError(t, repo.DeleteByUser(ctx, 4))
		_, err = repo.FindByKey(ctx, first.Key)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormImportHistoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormImportHistoryRepository(db)
	ctx := context.Background()
	userID := int64(12)

	done, err := bulk.NewImportHistory(bulk.ImportSourceUpload, "prices.csv", &userID)
	require.NoError(t, err)
	require.NoError(t, done.StartProcessing("csv"))
	require.NoError(t, repo.Save(ctx, done))
	require.NoError(t, done.Complete("Shop", 3, 2, 1))
	require.NoError(t, repo.Save(ctx, done))

	failed, err := bulk.NewImportHistory(bulk.ImportSourceURL, "feed.yaml", &userID)
	require.NoError(t, err)
	require.NoError(t, failed.StartProcessing("yaml"))
	require.NoError(t, failed.Fail("bad price", 4))
	require.NoError(t, repo.Save(ctx, failed))

	histories, err := repo.FindByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, histories, 2)
	assert.Equal(t, failed.ID, histories[0].ID)
	assert.Equal(t, 4, histories[0].ErrorRow)
	assert.Equal(t, bulk.ImportStatusCompleted, histories[1].Status)
	assert.Equal(t, 2, histories[1].CreatedRows)

	none, err := repo.FindByUser(ctx, 99, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
