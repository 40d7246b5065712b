package integration

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/growup/backend/internal/app"
	"github.com/growup/backend/internal/config"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/sessions"
	"github.com/growup/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

// setupRedis connects to the test Redis server, skipping when it is not reachable
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	cfg, err := config.LoadTestConfig()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("Redis is not available at %s: %v", cfg.RedisAddr(), err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

// newSession returns a live session with a unique id so runs never collide
func newSession(userID string, ttl time.Duration) *models.Session {
	now := time.Now().UTC()
	return &models.Session{ID: uuid.NewString(), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func TestRedisSessionStore_Integration(t *testing.T) {
	rdb := setupRedis(t)
	redisSessions := sessions.NewRedisStore(rdb, zaptest.NewLogger(t))
	ctx := context.Background()

	t.Run("create get delete", func(t *testing.T) {
		userID := "user-" + uuid.NewString()
		session := newSession(userID, time.Hour)

		require.NoError(t, redisSessions.Create(ctx, session))

		got, err := redisSessions.Get(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.UserID, got.UserID)
		assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)

		ttl, err := rdb.TTL(ctx, "growup:session:"+session.ID).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Hour)

		require.NoError(t, redisSessions.Delete(ctx, session.ID))
		_, err = redisSessions.Get(ctx, session.ID)
		assert.ErrorIs(t, err, models.ErrNoSession)

		members, err := rdb.SMembers(ctx, "growup:session:user:"+userID).Result()
		require.NoError(t, err)
		assert.NotContains(t, members, session.ID)

		// Deleting again is not an error
		assert.NoError(t, redisSessions.Delete(ctx, session.ID))
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := redisSessions.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, models.ErrNoSession)
	})

	t.Run("delete by user revokes every session of the user", func(t *testing.T) {
		blocked := "user-" + uuid.NewString()
		other := "user-" + uuid.NewString()
		first := newSession(blocked, time.Hour)
		second := newSession(blocked, 2*time.Hour)
		kept := newSession(other, time.Hour)
		for _, s := range []*models.Session{first, second, kept} {
			require.NoError(t, redisSessions.Create(ctx, s))
		}

		require.NoError(t, redisSessions.DeleteByUser(ctx, blocked))

		for _, s := range []*models.Session{first, second} {
			_, err := redisSessions.Get(ctx, s.ID)
			assert.ErrorIs(t, err, models.ErrNoSession)
		}
		exists, err := rdb.Exists(ctx, "growup:session:user:"+blocked).Result()
		require.NoError(t, err)
		assert.Zero(t, exists)

		got, err := redisSessions.Get(ctx, kept.ID)
		require.NoError(t, err)
		assert.Equal(t, other, got.UserID)

		require.NoError(t, redisSessions.DeleteByUser(ctx, other))
		// A user without sessions is not an error
		assert.NoError(t, redisSessions.DeleteByUser(ctx, blocked))
	})
}

func TestIntegration_RedisSessions(t *testing.T) {
	rdb := setupRedis(t)
	logger := zaptest.NewLogger(t)

	portal, err := app.New(context.Background(), testConfig(), app.Dependencies{
		Backend:    store.NewMemoryBackend(),
		AuditLog:   store.NewMemoryAuditLog(),
		Sessions:   sessions.NewRedisStore(rdb, logger),
		BcryptCost: bcrypt.MinCost,
	}, logger)
	require.NoError(t, err)

	runPortalScenario(t, portal.Router)
}
