package services

import (
	"context"
	"testing"

	"github.com/growup/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_GetStoresDefaultsOnce(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	first, err := env.settings.Get(ctx)
	require.NoError(t, err)
	second, err := env.settings.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultSettings().InstitutionName, first.InstitutionName)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, []models.AuditAction{models.ActionSettingsInit}, env.actions(t))
}

func TestSettingsService_Update(t *testing.T) {
	tests := []struct {
		name          string
		actorID       string
		patch         *models.SettingsPatch
		expectedError error
	}{
		{
			name:    "admin",
			actorID: "a1",
			patch:   &models.SettingsPatch{InstitutionName: ptr("Grow-up Academy"), EnableAds: ptr(false)},
		},
		{
			name:          "teacher",
			actorID:       "t1",
			patch:         &models.SettingsPatch{InstitutionName: ptr("Hijacked")},
			expectedError: models.ErrUnauthorized,
		},
		{
			name:          "student",
			actorID:       "s1",
			patch:         &models.SettingsPatch{InstitutionName: ptr("Hijacked")},
			expectedError: models.ErrUnauthorized,
		},
		{
			name:          "blocked admin",
			actorID:       "a2",
			patch:         &models.SettingsPatch{InstitutionName: ptr("Hijacked")},
			expectedError: models.ErrUnauthorized,
		},
		{
			name:          "unknown actor",
			actorID:       "ghost",
			patch:         &models.SettingsPatch{InstitutionName: ptr("Hijacked")},
			expectedError: models.ErrUnauthorized,
		},
		{
			name:          "invalid logo placement",
			actorID:       "a1",
			patch:         &models.SettingsPatch{LogoPlacement: ptr(models.LogoPlacement("SIDEBAR"))},
			expectedError: models.ErrValidation,
		},
		{
			name:          "duplicate watermark field",
			actorID:       "a1",
			patch:         &models.SettingsPatch{WatermarkFields: &[]models.WatermarkField{models.WatermarkName, models.WatermarkName}},
			expectedError: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			ctx := context.Background()
			env.addAdmin(t, "a1")
			env.addUser(t, &models.User{ID: "a2", Role: models.RoleAdmin, IsBlocked: true})
			env.addTeacher(t, "t1")
			env.addStudent(t, "s1", "10", true)

			updated, err := env.settings.Update(ctx, tt.patch, tt.actorID)

			current, getErr := env.settings.Get(ctx)
			require.NoError(t, getErr)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, models.DefaultSettings().InstitutionName, current.InstitutionName)
				assert.Zero(t, countAction(env.actions(t), models.ActionSettingsUpdate))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Grow-up Academy", updated.InstitutionName)
			assert.False(t, updated.EnableAds)
			assert.False(t, updated.UpdatedAt.IsZero())
			assert.Equal(t, models.SettingsID, current.ID)
			assert.Equal(t, "Grow-up Academy", current.InstitutionName)
			assert.Equal(t, 1, countAction(env.actions(t), models.ActionSettingsUpdate))
		})
	}
}

func TestSettingsService_PublicView(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.addAdmin(t, "a1")

	_, err := env.settings.Update(ctx, &models.SettingsPatch{ShowAdminMobile: ptr(false)}, "a1")
	require.NoError(t, err)

	view, err := env.settings.PublicView(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.AdminMobile)
	assert.NotEmpty(t, view.AdminAddress)

	full, err := env.settings.Get(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, full.AdminMobile)
}

func TestAdService_Active(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.addAdmin(t, "a1")
	teacher := env.addTeacher(t, "t1")
	student := env.addStudent(t, "s1", "10", false)

	_, err := env.ads.Create(ctx, teacher, &models.CreateAdRequest{Title: "x", LinkURL: "https://x.test", Placement: models.AdPlacementHeader})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	for _, req := range []*models.CreateAdRequest{
		{Title: "Header", LinkURL: "https://growup.test/a", Placement: models.AdPlacementHeader, Active: true},
		{Title: "Footer", LinkURL: "https://growup.test/b", Placement: models.AdPlacementFooter, Active: true},
		{Title: "Paused", LinkURL: "https://growup.test/c", Placement: models.AdPlacementHeader},
	} {
		_, err := env.ads.Create(ctx, admin, req)
		require.NoError(t, err)
	}

	ads, err := env.ads.Active(ctx, student, "")
	require.NoError(t, err)
	assert.Len(t, ads, 2)

	ads, err = env.ads.Active(ctx, nil, models.AdPlacementHeader)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "Header", ads[0].Title)

	ads, err = env.ads.Active(ctx, teacher, "")
	require.NoError(t, err)
	assert.Empty(t, ads)

	_, err = env.settings.Update(ctx, &models.SettingsPatch{EnableAds: ptr(false)}, "a1")
	require.NoError(t, err)

	ads, err = env.ads.Active(ctx, student, "")
	require.NoError(t, err)
	assert.Empty(t, ads)

	all, err := env.ads.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPlanService(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.addAdmin(t, "a1")
	teacher := env.addTeacher(t, "t1")

	_, err := env.plans.Create(ctx, teacher, &models.CreatePlanRequest{Name: "x", Type: models.SubscriptionOverall, DurationDays: 30})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = env.plans.Create(ctx, admin, &models.CreatePlanRequest{Name: "x", Type: models.SubscriptionOverall})
	assert.ErrorIs(t, err, models.ErrValidation)

	gold, err := env.plans.Create(ctx, admin, &models.CreatePlanRequest{Name: "Gold", Type: models.SubscriptionOverall, Price: 2500, DurationDays: 365})
	require.NoError(t, err)
	_, err = env.plans.Create(ctx, admin, &models.CreatePlanRequest{Name: "Draft", Type: models.SubscriptionClassWise, DurationDays: 30, Active: ptr(false)})
	require.NoError(t, err)

	active, err := env.plans.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, gold.ID, active[0].ID)

	_, err = env.plans.Update(ctx, teacher, gold.ID, &models.PlanPatch{Price: ptr(int64(1))})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = env.plans.Update(ctx, admin, gold.ID, &models.PlanPatch{Price: ptr(int64(-1))})
	assert.ErrorIs(t, err, models.ErrValidation)

	updated, err := env.plans.Update(ctx, admin, gold.ID, &models.PlanPatch{Active: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	require.NoError(t, env.plans.Delete(ctx, admin, gold.ID))
	all, err := env.plans.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
