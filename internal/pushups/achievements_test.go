package pushups

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusByID(t *testing.T, statuses []AchievementStatus, id string) AchievementStatus {
	t.Helper()
	for _, s := range statuses {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("achievement %s not found", id)
	return AchievementStatus{}
}

func TestEvaluateAchievements(t *testing.T) {
	profile := &UserProfile{
		TotalPushUps: 1500,
		BestStreak:   3,
	}
	logs := []DailyLog{
		{Date: "2026-08-28", TotalCount: 120},
	}

	statuses := EvaluateAchievements(profile, logs)
	require.Len(t, statuses, len(Achievements))

	assert.True(t, statusByID(t, statuses, "first-step").Unlocked)
	assert.True(t, statusByID(t, statuses, "senkai-novice").Unlocked)
	assert.False(t, statusByID(t, statuses, "senkai-master").Unlocked)
	assert.False(t, statusByID(t, statuses, "streak-7").Unlocked)
	assert.False(t, statusByID(t, statuses, "one-day-1000").Unlocked)
}

func TestEvaluateAchievements_OneDayThousand(t *testing.T) {
	statuses := EvaluateAchievements(&UserProfile{}, []DailyLog{
		{Date: "2026-08-28", TotalCount: 1000},
	})
	assert.True(t, statusByID(t, statuses, "one-day-1000").Unlocked)
}

func TestEvaluateAchievements_EarlyBird(t *testing.T) {
	sevenAM := time.Date(2026, 8, 28, 7, 0, 0, 0, time.Local).UnixMilli()
	noon := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local).UnixMilli()

	// only 60 reps before 08:00, not enough
	statuses := EvaluateAchievements(&UserProfile{}, []DailyLog{
		{
			Date: "2026-08-28",
			Sets: []PushUpSet{
				{Count: 60, Timestamp: sevenAM},
				{Count: 100, Timestamp: noon},
			},
		},
	})
	assert.False(t, statusByID(t, statuses, "early-bird").Unlocked)

	statuses = EvaluateAchievements(&UserProfile{}, []DailyLog{
		{
			Date: "2026-08-28",
			Sets: []PushUpSet{
				{Count: 60, Timestamp: sevenAM},
				{Count: 40, Timestamp: sevenAM + 1},
			},
		},
	})
	assert.True(t, statusByID(t, statuses, "early-bird").Unlocked)
}
