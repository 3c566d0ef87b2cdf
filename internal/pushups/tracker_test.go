package pushups

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/2beens/pushstats/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

func newTestTracker(t *testing.T) (*Tracker, *TestStore) {
	t.Helper()

	store := NewTestStore()
	tracker := NewTracker(store, metrics.NewTestManager())
	tracker.NowFunc = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	idCounter := 0
	tracker.NewIDFunc = func() string {
		idCounter++
		return fmt.Sprintf("id-%d", idCounter)
	}
	return tracker, store
}

func loadedProfile() *UserProfile {
	return &UserProfile{
		ID:                    testUserID,
		Name:                  "Senkai",
		Email:                 "senkai@example.com",
		Level:                 1,
		DailyTarget:           50,
		DailyTargetSets:       5,
		CompletionWindowHours: 2,
		TargetBreakdown: []TargetItem{
			{ID: "b-1", Level: 1, Variation: "ノーマル", Count: 10},
		},
	}
}

func TestTracker_RecordSet_DailyFlow(t *testing.T) {
	tracker, store := newTestTracker(t)
	tracker.Replace(testUserID, loadedProfile(), nil)
	ctx := context.Background()

	res, err := tracker.RecordSet(ctx, 30, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-28", res.TodayLog.Date)
	assert.Equal(t, 30, res.TodayLog.TotalCount)
	assert.False(t, res.TodayLog.Achieved)
	assert.Equal(t, 1, res.TodayLog.CompletedSetsCount)
	assert.Equal(t, 30, res.Profile.XP)
	assert.Equal(t, 1, res.Profile.Level)
	assert.Equal(t, 30, res.Profile.TotalPushUps)
	assert.Equal(t, 0, res.Profile.CurrentStreak)

	// second batch crosses the daily target, the streak grows once
	res, err = tracker.RecordSet(ctx, 25, nil)
	require.NoError(t, err)
	assert.Equal(t, 55, res.TodayLog.TotalCount)
	assert.True(t, res.TodayLog.Achieved)
	assert.Equal(t, 2, res.TodayLog.CompletedSetsCount)
	assert.Equal(t, 1, res.Profile.CurrentStreak)
	assert.Equal(t, 1, res.Profile.BestStreak)
	assert.Equal(t, "2026-08-28", res.Profile.LastActiveDate)

	// further sets on an already achieved day leave the streak alone
	res, err = tracker.RecordSet(ctx, 10, nil)
	require.NoError(t, err)
	assert.True(t, res.TodayLog.Achieved)
	assert.Equal(t, 1, res.Profile.CurrentStreak)
	assert.Equal(t, 65, res.Profile.TotalPushUps)

	// everything reached the store
	require.NotNil(t, store.Profiles[testUserID])
	assert.Equal(t, 1, store.Profiles[testUserID].CurrentStreak)
	assert.Equal(t, 65, store.Profiles[testUserID].TotalPushUps)
	assert.Len(t, store.Workouts[testUserID], 3)
	require.Len(t, store.DailyLogs[testUserID], 1)
	assert.Equal(t, 65, store.DailyLogs[testUserID][0].TotalCount)
}

func TestTracker_RecordSet_ShortSetNotCompleted(t *testing.T) {
	tracker, _ := newTestTracker(t)
	tracker.Replace(testUserID, loadedProfile(), nil)

	// nominal set is 10 reps, 7 is below the 80% mark
	res, err := tracker.RecordSet(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TodayLog.CompletedSetsCount)

	// 8 reps is exactly on the mark
	res, err = tracker.RecordSet(context.Background(), 8, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TodayLog.CompletedSetsCount)
}

func TestTracker_RecordSet_EmptyBreakdown(t *testing.T) {
	tracker, _ := newTestTracker(t)
	profile := loadedProfile()
	profile.TargetBreakdown = nil
	tracker.Replace(testUserID, profile, nil)

	// with no breakdown every batch counts as a completed set
	res, err := tracker.RecordSet(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TodayLog.CompletedSetsCount)
}

func TestTracker_RecordSet_Details(t *testing.T) {
	tracker, store := newTestTracker(t)
	tracker.Replace(testUserID, loadedProfile(), nil)

	res, err := tracker.RecordSet(context.Background(), 25, []SetDetail{
		{Variation: "ノーマル", Count: 15},
		{Variation: "ダイヤモンド", Count: 10},
	})
	require.NoError(t, err)
	require.Len(t, res.TodayLog.Sets, 2)
	assert.Equal(t, "ノーマル", res.TodayLog.Sets[0].Variation)
	assert.Equal(t, 15, res.TodayLog.Sets[0].Count)
	assert.Equal(t, "ダイヤモンド", res.TodayLog.Sets[1].Variation)
	// timestamps stay ordered even within the same millisecond
	assert.Equal(t, res.TodayLog.Sets[0].Timestamp+1, res.TodayLog.Sets[1].Timestamp)
	assert.Equal(t, 25, res.TodayLog.TotalCount)
	assert.Len(t, store.Workouts[testUserID], 2)
}

func TestTracker_RecordSet_InvalidCount(t *testing.T) {
	tracker, _ := newTestTracker(t)
	tracker.Replace(testUserID, loadedProfile(), nil)

	_, err := tracker.RecordSet(context.Background(), 0, nil)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = tracker.RecordSet(context.Background(), -5, nil)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestTracker_RecordSet_NoProfile(t *testing.T) {
	tracker, _ := newTestTracker(t)
	_, err := tracker.RecordSet(context.Background(), 10, nil)
	assert.ErrorIs(t, err, ErrNoProfileLoaded)
}

func TestTracker_RecordSet_PersistFailureKeepsState(t *testing.T) {
	tracker, store := newTestTracker(t)
	tracker.Replace(testUserID, loadedProfile(), nil)
	store.SaveProfileErr = assert.AnError

	_, err := tracker.RecordSet(context.Background(), 30, nil)
	require.ErrorIs(t, err, assert.AnError)

	// the failed write must not leak into the held state
	profile, logs := tracker.Snapshot()
	require.NotNil(t, profile)
	assert.Equal(t, 0, profile.XP)
	assert.Equal(t, 0, profile.TotalPushUps)
	assert.Nil(t, profile.LastSetTimestamp)
	assert.Empty(t, logs)
}

func TestTracker_UpdateSettings(t *testing.T) {
	tracker, store := newTestTracker(t)
	tracker.Replace(testUserID, loadedProfile(), nil)

	newTarget := 100
	newSets := 4
	newWindow := 3
	updated, err := tracker.UpdateSettings(context.Background(), SettingsUpdate{
		DailyTarget:           &newTarget,
		DailyTargetSets:       &newSets,
		CompletionWindowHours: &newWindow,
		TargetBreakdown: []TargetItem{
			{Level: 2, Variation: "ワイド", Count: 15},
			{ID: "b-keep", Level: 1, Variation: "ノーマル", Count: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, updated.DailyTarget)
	assert.Equal(t, 4, updated.DailyTargetSets)
	assert.Equal(t, 3, updated.CompletionWindowHours)
	require.Len(t, updated.TargetBreakdown, 2)
	// a missing breakdown id gets generated, existing ones survive
	assert.Equal(t, "id-1", updated.TargetBreakdown[0].ID)
	assert.Equal(t, "b-keep", updated.TargetBreakdown[1].ID)

	assert.Equal(t, 100, store.Profiles[testUserID].DailyTarget)
	assert.Len(t, store.Breakdowns[testUserID], 2)
}

func TestTracker_UpdateSettings_Validation(t *testing.T) {
	tracker, _ := newTestTracker(t)
	tracker.Replace(testUserID, loadedProfile(), nil)
	ctx := context.Background()

	badTarget := 0
	_, err := tracker.UpdateSettings(ctx, SettingsUpdate{DailyTarget: &badTarget})
	assert.Error(t, err)

	badWindow := 25
	_, err = tracker.UpdateSettings(ctx, SettingsUpdate{CompletionWindowHours: &badWindow})
	assert.Error(t, err)

	emptyName := ""
	_, err = tracker.UpdateSettings(ctx, SettingsUpdate{Name: &emptyName})
	assert.Error(t, err)

	_, err = tracker.UpdateSettings(ctx, SettingsUpdate{
		TargetBreakdown: []TargetItem{{Level: 5, Count: 10}},
	})
	assert.Error(t, err)

	// nothing changed after all those rejections
	profile, _ := tracker.Snapshot()
	assert.Equal(t, 50, profile.DailyTarget)
	assert.Equal(t, 2, profile.CompletionWindowHours)
}

func TestTracker_UpdateSettings_ReplaceFailureKeepsState(t *testing.T) {
	tracker, store := newTestTracker(t)
	tracker.Replace(testUserID, loadedProfile(), nil)
	store.ReplaceErr = assert.AnError

	newTarget := 100
	_, err := tracker.UpdateSettings(context.Background(), SettingsUpdate{
		DailyTarget: &newTarget,
		TargetBreakdown: []TargetItem{
			{ID: "b-new", Level: 1, Variation: "ノーマル", Count: 12},
		},
	})
	require.ErrorIs(t, err, assert.AnError)

	// held state stays at the pre-update values
	profile, _ := tracker.Snapshot()
	assert.Equal(t, 50, profile.DailyTarget)
	require.Len(t, profile.TargetBreakdown, 1)
	assert.Equal(t, "b-1", profile.TargetBreakdown[0].ID)
	assert.Empty(t, store.Breakdowns[testUserID])
}

func TestTracker_UpdateSettings_NoProfile(t *testing.T) {
	tracker, _ := newTestTracker(t)
	target := 60
	_, err := tracker.UpdateSettings(context.Background(), SettingsUpdate{DailyTarget: &target})
	assert.ErrorIs(t, err, ErrNoProfileLoaded)
}

func TestTracker_Snapshot_ReturnsCopies(t *testing.T) {
	tracker, _ := newTestTracker(t)
	tracker.Replace(testUserID, loadedProfile(), []DailyLog{
		{Date: "2026-08-28", TotalCount: 30, Sets: []PushUpSet{{ID: "s-1", Count: 30}}},
	})

	profile, logs := tracker.Snapshot()
	profile.XP = 99999
	logs[0].TotalCount = 99999
	logs[0].Sets[0].Count = 99999

	fresh, freshLogs := tracker.Snapshot()
	assert.Equal(t, 0, fresh.XP)
	assert.Equal(t, 30, freshLogs[0].TotalCount)
	assert.Equal(t, 30, freshLogs[0].Sets[0].Count)
}

func TestTracker_ReplaceIfChanged(t *testing.T) {
	tracker, _ := newTestTracker(t)
	profile := loadedProfile()
	logs := []DailyLog{{Date: "2026-08-28", TotalCount: 30}}
	tracker.Replace(testUserID, profile, logs)

	// identical values are not swapped in
	sameProfile := *copyProfile(profile)
	tracker.ReplaceIfChanged(testUserID, &sameProfile, copyLogs(logs))
	held, _ := tracker.Snapshot()
	assert.Equal(t, profile.XP, held.XP)

	changed := *copyProfile(profile)
	changed.XP = 500
	tracker.ReplaceIfChanged(testUserID, &changed, copyLogs(logs))
	held, _ = tracker.Snapshot()
	assert.Equal(t, 500, held.XP)
}
