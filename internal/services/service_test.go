package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/growup/backend/internal/auth"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/sessions"
	"github.com/growup/backend/internal/store"
	"github.com/growup/backend/internal/validation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret123"

// countingAuditLog is the audit log repository surface used by the tests
type countingAuditLog interface {
	AuditLogRepository
	Count(ctx context.Context) (int, error)
}

// testEnv wires every service over the in-memory store
type testEnv struct {
	store         *store.Store
	auditLog      countingAuditLog
	audit         *auditService
	identity      *identityService
	subscriptions *subscriptionService
	payments      *paymentService
	settings      *settingsService
	content       *contentService
	users         *userService
	plans         *planService
	ads           *adService
	overview      *overviewService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	validate := validation.New()
	verifier := auth.NewBcryptVerifier(bcrypt.MinCost)

	auditLog := store.NewMemoryAuditLog()
	audit := NewAuditService(auditLog, logger)
	s := store.New(store.NewMemoryBackend(), audit, logger)

	identity := NewIdentityService(s.Users, sessions.NewMemoryStore(), auth.NewTokenGenerator("test-secret"), verifier, validate, logger, time.Hour)
	subscriptions := NewSubscriptionService(s.Users, s.Plans, s.Payments, logger)
	settings := NewSettingsService(s.Settings, s.Users, logger)

	return &testEnv{
		store:         s,
		auditLog:      auditLog,
		audit:         audit,
		identity:      identity,
		subscriptions: subscriptions,
		payments:      NewPaymentService(s.Payments, s.Users, subscriptions, validate, logger),
		settings:      settings,
		content:       NewContentService(s.Content, settings, validate, logger),
		users:         NewUserService(s.Users, identity, verifier, validate, logger, true),
		plans:         NewPlanService(s.Plans, validate, logger),
		ads:           NewAdService(s.Ads, settings, validate, logger),
		overview:      NewOverviewService(s.Users, s.Content, s.Payments, audit, logger),
	}
}

// addUser stores u directly, bypassing the services
func (e *testEnv) addUser(t *testing.T, u *models.User) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u.PasswordHash = string(hash)
	if u.Email == "" {
		u.Email = u.ID + "@growup.test"
	}
	u.NormalizeProfile()
	created, err := e.store.Users.Create(context.Background(), models.SystemActor, u)
	require.NoError(t, err)
	return created
}

func (e *testEnv) addAdmin(t *testing.T, id string) *models.User {
	return e.addUser(t, &models.User{ID: id, Name: "Admin " + id, Role: models.RoleAdmin})
}

func (e *testEnv) addTeacher(t *testing.T, id string) *models.User {
	return e.addUser(t, &models.User{ID: id, Name: "Teacher " + id, Role: models.RoleTeacher})
}

func (e *testEnv) addStudent(t *testing.T, id string, class models.ClassGrade, paid bool) *models.User {
	return e.addUser(t, &models.User{
		ID:     id,
		Name:   "Student " + id,
		Mobile: "9000000000",
		Role:   models.RoleStudent,
		Student: &models.StudentProfile{
			ClassGrade:       class,
			SubscriptionType: models.SubscriptionOverall,
			IsPaid:           paid,
		},
	})
}

// actions returns the retained audit actions, oldest first
func (e *testEnv) actions(t *testing.T) []models.AuditAction {
	t.Helper()
	entries, err := e.auditLog.List(context.Background(), models.AuditLogCapacity)
	require.NoError(t, err)
	result := make([]models.AuditAction, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		result = append(result, entries[i].Action)
	}
	return result
}

func countAction(actions []models.AuditAction, action models.AuditAction) int {
	n := 0
	for _, a := range actions {
		if a == action {
			n++
		}
	}
	return n
}

// mockCollection is a mock implementation of Collection that fails every call with err
type mockCollection[T any] struct {
	err error
}

func (m *mockCollection[T]) Create(ctx context.Context, actorID string, entity *T) (*T, error) {
	return nil, m.err
}

func (m *mockCollection[T]) CreateAs(ctx context.Context, actorID string, action models.AuditAction, entity *T) (*T, error) {
	return nil, m.err
}

func (m *mockCollection[T]) Update(ctx context.Context, actorID, id string, patch store.Patch[T]) (*T, error) {
	return nil, m.err
}

func (m *mockCollection[T]) Delete(ctx context.Context, actorID, id string) error {
	return m.err
}

func (m *mockCollection[T]) GetAll(ctx context.Context) ([]T, error) {
	return nil, m.err
}

func (m *mockCollection[T]) GetByID(ctx context.Context, id string) (*T, error) {
	return nil, m.err
}

func (m *mockCollection[T]) FindByKey(ctx context.Context, key string) (*T, error) {
	return nil, m.err
}

var errStorage = errors.New("storage unavailable")

func ptr[T any](v T) *T {
	return &v
}
