package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSubscriptionService_Quote(t *testing.T) {
	tests := []struct {
		name          string
		plans         []*models.Plan
		subType       models.SubscriptionType
		expectedPrice int64
		expectedPlan  string
		expectedError error
	}{
		{
			name:          "overall fallback",
			subType:       models.SubscriptionOverall,
			expectedPrice: FallbackOverallPrice,
		},
		{
			name:          "class-wise fallback",
			subType:       models.SubscriptionClassWise,
			expectedPrice: FallbackClassWisePrice,
		},
		{
			name: "inactive plan is ignored",
			plans: []*models.Plan{
				{ID: "p1", Type: models.SubscriptionOverall, Price: 100, DurationDays: 30},
			},
			subType:       models.SubscriptionOverall,
			expectedPrice: FallbackOverallPrice,
		},
		{
			name: "first active plan of the type wins",
			plans: []*models.Plan{
				{ID: "p1", Type: models.SubscriptionClassWise, Price: 300, DurationDays: 30, Active: true},
				{ID: "p2", Type: models.SubscriptionOverall, Price: 1500, DurationDays: 30, Active: true},
				{ID: "p3", Type: models.SubscriptionOverall, Price: 1200, DurationDays: 30, Active: true},
			},
			subType:       models.SubscriptionOverall,
			expectedPrice: 1500,
			expectedPlan:  "p2",
		},
		{
			name:          "invalid type",
			subType:       "YEARLY",
			expectedError: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			ctx := context.Background()
			for _, p := range tt.plans {
				_, err := env.store.Plans.Create(ctx, "admin", p)
				require.NoError(t, err)
			}

			price, plan, err := env.subscriptions.Quote(ctx, tt.subType)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPrice, price)
			if tt.expectedPlan == "" {
				assert.Nil(t, plan)
			} else {
				require.NotNil(t, plan)
				assert.Equal(t, tt.expectedPlan, plan.ID)
			}
		})
	}
}

func TestSubscriptionService_QuoteStorageError(t *testing.T) {
	logger := zaptest.NewLogger(t)
	subscriptions := NewSubscriptionService(nil, &mockCollection[models.Plan]{err: errStorage}, nil, logger)

	_, _, err := subscriptions.Quote(context.Background(), models.SubscriptionOverall)
	assert.ErrorIs(t, err, errStorage)
}

func TestPaymentService_InitiateAndConfirm(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	student, err := env.identity.Register(ctx, registerRequest("asha@example.com"))
	require.NoError(t, err)

	record, err := env.payments.Initiate(ctx, student, &models.InitiatePaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, record.Status)
	assert.Equal(t, FallbackClassWisePrice, record.Amount)
	assert.Equal(t, models.SubscriptionClassWise, record.SubscriptionType)
	assert.Equal(t, models.ClassGrade("10"), record.TargetClass)
	assert.Equal(t, "Physics", record.TargetSubject)
	assert.Empty(t, record.PlanID)

	confirm := &models.ConfirmPaymentRequest{PaymentID: record.ID, Status: models.PaymentSuccess, GatewayRef: "gw-1"}
	confirmed, err := env.payments.Confirm(ctx, confirm)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, confirmed.Status)
	assert.Equal(t, "gw-1", confirmed.GatewayRef)
	assert.NotNil(t, confirmed.AppliedAt)

	user, err := env.store.Users.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, user.Student.IsPaid)
	assert.Nil(t, user.Student.SubscriptionExpiry)
	assert.Equal(t, record.ID, user.Student.PaymentID)
	assert.True(t, env.subscriptions.IsActive(user))

	_, err = env.payments.Confirm(ctx, confirm)
	require.NoError(t, err)

	_, err = env.payments.Confirm(ctx, &models.ConfirmPaymentRequest{PaymentID: record.ID, Status: models.PaymentFailed})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	actions := env.actions(t)
	assert.Equal(t, 1, countAction(actions, models.ActionSubscriptionActivate))
	assert.Equal(t, 1, countAction(actions, models.ActionPaymentStatusChange))
	assert.Equal(t, 1, countAction(actions, models.ActionPaymentCreate))
}

func TestPaymentService_ConfirmFailedLeavesStudentUnpaid(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	student := env.addStudent(t, "s1", "11", false)

	record, err := env.payments.Initiate(ctx, student, &models.InitiatePaymentRequest{})
	require.NoError(t, err)

	failed, err := env.payments.Confirm(ctx, &models.ConfirmPaymentRequest{PaymentID: record.ID, Status: models.PaymentFailed})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, failed.Status)

	user, err := env.store.Users.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, user.Student.IsPaid)

	_, err = env.payments.Confirm(ctx, &models.ConfirmPaymentRequest{PaymentID: record.ID, Status: models.PaymentSuccess})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestPaymentService_PlanSetsExpiry(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.addAdmin(t, "a1")
	student := env.addStudent(t, "s1", "12", false)

	plan, err := env.plans.Create(ctx, admin, &models.CreatePlanRequest{
		Name:         "Full year",
		Type:         models.SubscriptionOverall,
		Price:        1500,
		DurationDays: 30,
	})
	require.NoError(t, err)

	record, err := env.payments.Initiate(ctx, student, &models.InitiatePaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), record.Amount)
	assert.Equal(t, plan.ID, record.PlanID)

	_, err = env.payments.Confirm(ctx, &models.ConfirmPaymentRequest{PaymentID: record.ID, Status: models.PaymentSuccess})
	require.NoError(t, err)

	user, err := env.store.Users.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, user.Student.SubscriptionExpiry)
	assert.True(t, user.Student.SubscriptionExpiry.After(time.Now().AddDate(0, 0, 29)))
	assert.True(t, user.Student.SubscriptionExpiry.Before(time.Now().AddDate(0, 0, 31)))
}

func TestPaymentService_InitiateRequiresStudent(t *testing.T) {
	env := setupTestEnv(t)
	teacher := env.addTeacher(t, "t1")

	_, err := env.payments.Initiate(context.Background(), teacher, &models.InitiatePaymentRequest{})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = env.payments.Initiate(context.Background(), nil, &models.InitiatePaymentRequest{})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSubscriptionService_MarkPaid(t *testing.T) {
	tests := []struct {
		name          string
		userID        string
		status        models.PaymentStatus
		paymentID     string
		expectedError error
	}{
		{
			name:          "unknown payment",
			userID:        "s1",
			status:        models.PaymentSuccess,
			paymentID:     "missing",
			expectedError: models.ErrNotFound,
		},
		{
			name:          "pending payment",
			userID:        "s1",
			status:        models.PaymentPending,
			paymentID:     "pay-1",
			expectedError: models.ErrInvalidTransition,
		},
		{
			name:          "payer is not a student",
			userID:        "t1",
			status:        models.PaymentSuccess,
			paymentID:     "pay-1",
			expectedError: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			ctx := context.Background()
			env.addStudent(t, "s1", "10", false)
			env.addTeacher(t, "t1")
			_, err := env.store.Payments.Create(ctx, models.SystemActor, &models.PaymentRecord{
				ID:               "pay-1",
				UserID:           tt.userID,
				Amount:           500,
				Status:           tt.status,
				SubscriptionType: models.SubscriptionOverall,
			})
			require.NoError(t, err)

			_, err = env.subscriptions.MarkPaid(ctx, tt.paymentID)
			assert.ErrorIs(t, err, tt.expectedError)

			record, err := env.store.Payments.GetByID(ctx, "pay-1")
			require.NoError(t, err)
			assert.Nil(t, record.AppliedAt)
			assert.Zero(t, countAction(env.actions(t), models.ActionSubscriptionActivate))
		})
	}
}

func TestSubscriptionService_MarkPaidConcurrentlyAppliesOnce(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.addStudent(t, "s1", "10", false)
	_, err := env.store.Payments.Create(ctx, models.SystemActor, &models.PaymentRecord{
		ID:               "pay-1",
		UserID:           "s1",
		Amount:           2000,
		Status:           models.PaymentSuccess,
		SubscriptionType: models.SubscriptionOverall,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := env.subscriptions.MarkPaid(ctx, "pay-1")
			assert.NoError(t, err)
			if assert.NotNil(t, user) {
				assert.True(t, user.Student.IsPaid)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, countAction(env.actions(t), models.ActionSubscriptionActivate))
}

func TestPaymentService_RecordManual(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.addAdmin(t, "a1")
	teacher := env.addTeacher(t, "t1")
	env.addStudent(t, "s1", "9", false)

	req := &models.ManualPaymentRequest{UserID: "s1", Amount: ptr(int64(750)), Reference: "cash-1"}

	_, err := env.payments.RecordManual(ctx, teacher, req)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = env.payments.RecordManual(ctx, admin, &models.ManualPaymentRequest{UserID: "t1"})
	assert.ErrorIs(t, err, models.ErrValidation)

	record, err := env.payments.RecordManual(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, record.Status)
	assert.Equal(t, int64(750), record.Amount)
	assert.Equal(t, "manual:cash-1", record.GatewayRef)
	assert.NotNil(t, record.AppliedAt)

	user, err := env.store.Users.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, user.Student.IsPaid)
}

func TestPaymentService_ExpireStale(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.addStudent(t, "s1", "10", false)
	now := time.Now().UTC()

	for _, p := range []*models.PaymentRecord{
		{ID: "old", UserID: "s1", Status: models.PaymentPending, Date: now.Add(-2 * time.Hour)},
		{ID: "fresh", UserID: "s1", Status: models.PaymentPending, Date: now},
		{ID: "done", UserID: "s1", Status: models.PaymentFailed, Date: now.Add(-3 * time.Hour)},
	} {
		_, err := env.store.Payments.Create(ctx, models.SystemActor, p)
		require.NoError(t, err)
	}

	expired, err := env.payments.ExpireStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	old, err := env.store.Payments.GetByID(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, old.Status)
	assert.Equal(t, "expired", old.GatewayRef)

	fresh, err := env.store.Payments.GetByID(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, fresh.Status)

	expired, err = env.payments.ExpireStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestPaymentService_List(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.addAdmin(t, "a1")
	s1 := env.addStudent(t, "s1", "10", false)
	s2 := env.addStudent(t, "s2", "10", false)

	for _, p := range []*models.PaymentRecord{
		{ID: "p1", UserID: "s1", Status: models.PaymentPending},
		{ID: "p2", UserID: "s2", Status: models.PaymentPending},
		{ID: "p3", UserID: "s1", Status: models.PaymentPending},
	} {
		_, err := env.store.Payments.Create(ctx, models.SystemActor, p)
		require.NoError(t, err)
	}

	_, err := env.payments.List(ctx, s1)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	all, err := env.payments.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "p3", all[0].ID)
	assert.Equal(t, "p1", all[2].ID)

	mine, err := env.payments.ListMine(ctx, s1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "p1", mine[0].ID)

	mine, err = env.payments.ListMine(ctx, s2)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

// staleReadCollection serves one outdated entity from GetByID before reading through
type staleReadCollection[T any] struct {
	Collection[T]
	stale *T
}

func (c *staleReadCollection[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if c.stale != nil {
		stale := c.stale
		c.stale = nil
		return stale, nil
	}
	return c.Collection.GetByID(ctx, id)
}

func TestPaymentService_ConfirmLosingConcurrentSuccessIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	student := env.addStudent(t, "s1", "10", false)

	record, err := env.payments.Initiate(ctx, student, &models.InitiatePaymentRequest{})
	require.NoError(t, err)
	pending := *record

	// The winning delivery completes between the loser's read and its transition.
	confirm := &models.ConfirmPaymentRequest{PaymentID: record.ID, Status: models.PaymentSuccess, GatewayRef: "gw-1"}
	_, err = env.payments.Confirm(ctx, confirm)
	require.NoError(t, err)

	loser := NewPaymentService(
		&staleReadCollection[models.PaymentRecord]{Collection: env.store.Payments, stale: &pending},
		env.store.Users,
		env.subscriptions,
		validation.New(),
		zaptest.NewLogger(t),
	)
	confirmed, err := loser.Confirm(ctx, confirm)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, confirmed.Status)
	assert.NotNil(t, confirmed.AppliedAt)

	actions := env.actions(t)
	assert.Equal(t, 1, countAction(actions, models.ActionSubscriptionActivate))
	assert.Equal(t, 1, countAction(actions, models.ActionPaymentStatusChange))

	// A losing FAILED delivery still reports the conflict.
	failing := NewPaymentService(
		&staleReadCollection[models.PaymentRecord]{Collection: env.store.Payments, stale: &pending},
		env.store.Users,
		env.subscriptions,
		validation.New(),
		zaptest.NewLogger(t),
	)
	_, err = failing.Confirm(ctx, &models.ConfirmPaymentRequest{PaymentID: record.ID, Status: models.PaymentFailed})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}
