package services

import (
	"context"
	"fmt"
	"iter"
	"testing"
	"time"

	"github.com/growup/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOverviewService_Overview(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.overview.now = func() time.Time { return now }

	admin := env.addAdmin(t, "admin")
	env.addTeacher(t, "teacher")
	env.addStudent(t, "paid", "10", true)
	env.addStudent(t, "unpaid", "10", false)
	env.addUser(t, &models.User{
		ID:   "lapsed",
		Name: "Lapsed",
		Role: models.RoleStudent,
		Student: &models.StudentProfile{
			ClassGrade:         "9",
			SubscriptionType:   models.SubscriptionOverall,
			IsPaid:             true,
			SubscriptionExpiry: ptr(now.Add(-time.Hour)),
		},
	})
	env.addUser(t, &models.User{
		ID:   "renewed",
		Name: "Renewed",
		Role: models.RoleStudent,
		Student: &models.StudentProfile{
			ClassGrade:         "9",
			SubscriptionType:   models.SubscriptionOverall,
			IsPaid:             true,
			SubscriptionExpiry: ptr(now.Add(24 * time.Hour)),
		},
	})

	for i, status := range []models.PaymentStatus{models.PaymentSuccess, models.PaymentSuccess, models.PaymentPending, models.PaymentFailed} {
		_, err := env.store.Payments.Create(ctx, models.SystemActor, &models.PaymentRecord{
			ID:     fmt.Sprintf("pay-%d", i),
			UserID: "paid",
			Amount: 1000 * int64(i+1),
			Date:   now,
			Status: status,
		})
		require.NoError(t, err)
	}
	for _, id := range []string{"c1", "c2"} {
		_, err := env.store.Content.Create(ctx, "teacher", &models.Content{ID: id, Title: "Algebra " + id, ClassGrade: "10"})
		require.NoError(t, err)
	}

	overview, err := env.overview.Overview(ctx, admin)
	require.NoError(t, err)

	assert.Equal(t, int64(3000), overview.Revenue)
	assert.Equal(t, 2, overview.ActiveStudents)
	assert.Equal(t, 6, overview.TotalUsers)
	assert.Equal(t, 2, overview.ContentCount)
	require.Len(t, overview.RecentActivity, models.OverviewActivityLimit)
	assert.Equal(t, models.ActionContentCreate, overview.RecentActivity[0].Action)
	assert.Contains(t, overview.RecentActivity[0].Details, "content c2")
	for i := 1; i < len(overview.RecentActivity); i++ {
		assert.Greater(t, overview.RecentActivity[i-1].Seq, overview.RecentActivity[i].Seq)
	}
}

func TestOverviewService_Empty(t *testing.T) {
	env := setupTestEnv(t)
	admin := &models.User{ID: "admin", Role: models.RoleAdmin}

	overview, err := env.overview.Overview(context.Background(), admin)
	require.NoError(t, err)
	assert.Zero(t, overview.Revenue)
	assert.Zero(t, overview.TotalUsers)
	assert.NotNil(t, overview.RecentActivity)
	assert.Empty(t, overview.RecentActivity)
}

func TestOverviewService_Unauthorized(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name  string
		actor *models.User
	}{
		{name: "anonymous", actor: nil},
		{name: "teacher", actor: &models.User{ID: "t1", Role: models.RoleTeacher}},
		{name: "student", actor: &models.User{ID: "s1", Role: models.RoleStudent}},
		{name: "blocked admin", actor: &models.User{ID: "a1", Role: models.RoleAdmin, IsBlocked: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.overview.Overview(context.Background(), tt.actor)
			assert.ErrorIs(t, err, models.ErrUnauthorized)
		})
	}
}

// failingActivity is a mock implementation of RecentActivity that yields a single error
type failingActivity struct{}

func (failingActivity) Recent(ctx context.Context, n int) iter.Seq2[models.AuditLogEntry, error] {
	return func(yield func(models.AuditLogEntry, error) bool) {
		yield(models.AuditLogEntry{}, errStorage)
	}
}

func TestOverviewService_Errors(t *testing.T) {
	env := setupTestEnv(t)
	admin := &models.User{ID: "admin", Role: models.RoleAdmin}
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name string
		svc  *overviewService
	}{
		{
			name: "users unavailable",
			svc:  NewOverviewService(&mockCollection[models.User]{err: errStorage}, env.store.Content, env.store.Payments, env.audit, logger),
		},
		{
			name: "content unavailable",
			svc:  NewOverviewService(env.store.Users, &mockCollection[models.Content]{err: errStorage}, env.store.Payments, env.audit, logger),
		},
		{
			name: "payments unavailable",
			svc:  NewOverviewService(env.store.Users, env.store.Content, &mockCollection[models.PaymentRecord]{err: errStorage}, env.audit, logger),
		},
		{
			name: "audit log unavailable",
			svc:  NewOverviewService(env.store.Users, env.store.Content, env.store.Payments, failingActivity{}, logger),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overview, err := tt.svc.Overview(context.Background(), admin)
			assert.ErrorIs(t, err, errStorage)
			assert.Nil(t, overview)
		})
	}
}
