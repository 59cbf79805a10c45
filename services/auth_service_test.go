package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    config.DriverSQLite,
		DatabaseURI: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestService(t *testing.T) (*AuthService, *gorm.DB) {
	db := newTestDB(t)
	svc := NewAuthService(db, utils.NewTokenManager("test-secret", time.Hour), utils.NewMemoryRevocationStore(), zap.NewNop())
	return svc, db
}

type failingRevocationStore struct{}

func (failingRevocationStore) Revoke(context.Context, string, time.Time) error {
	return assert.AnError
}

func (failingRevocationStore) IsRevoked(context.Context, string) (bool, error) {
	return false, assert.AnError
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	user, err := svc.Register(ctx, "A@X.com ", "a", "p")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, "a@x.com", stored.Email)
	assert.NotEqual(t, "p", stored.PasswordHash)

	token, authed, err := svc.Authenticate(ctx, "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	id, err := svc.ResolveIdentity(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	_, err := svc.Register(ctx, "a@x.com", "a", "p")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "A@x.com", "other", "q")
	assert.ErrorIs(t, err, ErrEmailTaken)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAuthenticate_Failures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.Register(ctx, "a@x.com", "a", "p")
	require.NoError(t, err)

	token, user, err := svc.Authenticate(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
	assert.Nil(t, user)

	token, _, err = svc.Authenticate(ctx, "nobody@x.com", "p")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
}

func TestResolveIdentity_Invalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.ResolveIdentity(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ResolveIdentity(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _, err := utils.NewTokenManager("test-secret", -time.Minute).Generate(1)
	require.NoError(t, err)
	_, err = svc.ResolveIdentity(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged, _, err := utils.NewTokenManager("other-secret", time.Hour).Generate(1)
	require.NoError(t, err)
	_, err = svc.ResolveIdentity(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.Register(ctx, "a@x.com", "a", "p")
	require.NoError(t, err)

	first, _, err := svc.Authenticate(ctx, "a@x.com", "p")
	require.NoError(t, err)
	second, _, err := svc.Authenticate(ctx, "a@x.com", "p")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, first))

	_, err = svc.ResolveIdentity(ctx, first)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = svc.ResolveIdentity(ctx, second)
	assert.NoError(t, err, "other sessions stay valid")

	assert.ErrorIs(t, svc.Revoke(ctx, "garbage"), ErrInvalidToken)
}

func TestResolveIdentity_RevocationStoreDown(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(db, tokens, failingRevocationStore{}, zap.NewNop())

	token, _, err := tokens.Generate(9)
	require.NoError(t, err)

	id, err := svc.ResolveIdentity(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), id)
}
