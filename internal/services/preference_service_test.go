package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wedfulapp/wedful-notify/internal/database/testutil"
)

func newPreferenceService(t *testing.T) *PreferenceService {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewPreferenceService(db)
	require.NoError(t, err)
	return svc
}

func TestPreferenceServiceGetOrCreateDefaults(t *testing.T) {
	svc := newPreferenceService(t)
	ctx := context.Background()

	pref, err := svc.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, pref.DdayEnabled)
	require.True(t, pref.ScheduleEnabled)
	require.True(t, pref.ChecklistEnabled)
	require.True(t, pref.BudgetEnabled)
	require.True(t, pref.CoupleActivityEnabled)
	require.True(t, pref.AnnouncementEnabled)
	require.True(t, pref.DailyDigestEnabled)
	require.True(t, pref.PushEnabled)
	require.Equal(t, 9, pref.PreferredHour)

	again, err := svc.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, pref.ID, again.ID)
}

func TestPreferenceServiceGetOrCreateRequiresUser(t *testing.T) {
	svc := newPreferenceService(t)

	_, err := svc.GetOrCreate(context.Background(), "  ")
	require.Error(t, err)
}

func TestPreferenceServicePartialUpdate(t *testing.T) {
	svc := newPreferenceService(t)
	ctx := context.Background()

	disabled := false
	hour := 20
	updated, err := svc.Update(ctx, "user-1", UpdatePreferenceInput{
		BudgetEnabled: &disabled,
		PreferredHour: &hour,
	})
	require.NoError(t, err)
	require.False(t, updated.BudgetEnabled)
	require.Equal(t, 20, updated.PreferredHour)
	// untouched fields keep their defaults
	require.True(t, updated.DdayEnabled)
	require.True(t, updated.PushEnabled)

	reloaded, err := svc.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, reloaded.BudgetEnabled)
	require.Equal(t, 20, reloaded.PreferredHour)
}

func TestPreferenceServiceUpdateNoFields(t *testing.T) {
	svc := newPreferenceService(t)
	ctx := context.Background()

	pref, err := svc.Update(ctx, "user-1", UpdatePreferenceInput{})
	require.NoError(t, err)
	require.True(t, pref.DdayEnabled)
}

func TestPreferenceServiceUpdateRejectsBadHour(t *testing.T) {
	svc := newPreferenceService(t)

	hour := 24
	_, err := svc.Update(context.Background(), "user-1", UpdatePreferenceInput{PreferredHour: &hour})
	require.Error(t, err)
}

func TestNewPreferenceServiceRequiresDB(t *testing.T) {
	_, err := NewPreferenceService(nil)
	require.Error(t, err)
}
