//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ariffaisalsheam/menux-app/internal/database"
	"github.com/ariffaisalsheam/menux-app/internal/ids"
	"github.com/ariffaisalsheam/menux-app/internal/models"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("menux_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(dsn, zerolog.Nop()))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seedUser(t *testing.T, repo *UserRepository, email string, role models.UserRole) models.User {
	t.Helper()
	user := models.User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: []byte("hash"),
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepository(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@menux.app", models.RoleRestaurantOwner)
	seedUser(t, repo, "admin@menux.app", models.RoleSuperAdmin)

	err := repo.Create(ctx, models.User{ID: ids.New(), Email: "owner@menux.app", PasswordHash: []byte("x"), FirstName: "Dup", Role: models.RoleDiner})
	assert.ErrorIs(t, err, ErrEmailTaken)

	found, err := repo.FindByEmail(ctx, "owner@menux.app")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, found.ID)
	assert.Equal(t, models.RoleRestaurantOwner, found.Role)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	phone := "+8801700000000"
	found.FirstName = "Renamed"
	found.Phone = &phone
	updated, err := repo.UpdateProfile(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FirstName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	found.Email = "admin@menux.app"
	_, err = repo.UpdateProfile(ctx, found)
	assert.ErrorIs(t, err, ErrEmailTaken)

	withAvatar, err := repo.UpdateAvatar(ctx, owner.ID, "http://cdn/avatar.png")
	require.NoError(t, err)
	require.NotNil(t, withAvatar.AvatarURL)

	require.NoError(t, repo.SetActive(ctx, owner.ID, false))
	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{TotalUsers: 2, SuperAdmins: 1, RestaurantOwners: 1, ActiveUsers: 1}, stats)
}

func TestSessionRepository(t *testing.T) {
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	sessions := NewSessionRepository(pool)
	ctx := context.Background()

	user := seedUser(t, users, "owner@menux.app", models.RoleRestaurantOwner)

	live := models.Session{ID: ids.New(), UserID: user.ID, RefreshTokenHash: []byte("live"), ExpiresAt: time.Now().Add(time.Hour)}
	expired := models.Session{ID: ids.New(), UserID: user.ID, RefreshTokenHash: []byte("expired"), ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, sessions.Create(ctx, live))
	require.NoError(t, sessions.Create(ctx, expired))

	got, err := sessions.FindByRefreshHash(ctx, []byte("live"))
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = sessions.FindByRefreshHash(ctx, []byte("expired"))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	n, err := sessions.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	count, err := sessions.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, err = sessions.DeleteByUser(ctx, user.ID, live.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	require.NoError(t, sessions.DeleteByID(ctx, live.ID))
	assert.ErrorIs(t, sessions.DeleteByID(ctx, live.ID), ErrSessionNotFound)
}
