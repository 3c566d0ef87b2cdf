package pushups

// Defaults applied to a freshly created profile.
const (
	DefaultDailyTarget           = 50
	DefaultDailyTargetSets       = 5
	DefaultCompletionWindowHours = 2
)

// PushUpSet is one recorded batch of repetitions. Immutable once
// created. The logical date derived from its timestamp decides which
// daily log it belongs to, regardless of when it was inserted.
type PushUpSet struct {
	ID        string `json:"id"`
	Count     int    `json:"count"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Variation string `json:"variationName,omitempty"`
}

// TargetItem is one entry of the profile's per-set exercise breakdown.
// Ordering is significant and persisted explicitly as a sort index.
type TargetItem struct {
	ID        string `json:"id"`
	Level     int    `json:"level"` // 1..4
	Variation string `json:"variationName"`
	Count     int    `json:"count"`
}

// DailyLog aggregates all sets of one logical date. Target and
// targetSets are snapshots of the profile settings at creation time,
// later settings changes only affect future days.
type DailyLog struct {
	Date               string      `json:"date"`
	Sets               []PushUpSet `json:"sets"`
	Target             int         `json:"target"`
	TotalCount         int         `json:"totalCount"`
	Achieved           bool        `json:"achieved"`
	TargetSets         int         `json:"targetSets"`
	CompletedSetsCount int         `json:"completedSetsCount"`
}

type UserProfile struct {
	ID                    string       `json:"id"`
	Name                  string       `json:"name"`
	Email                 string       `json:"email"`
	Level                 int          `json:"level"`
	XP                    int          `json:"xp"`
	TotalPushUps          int          `json:"totalPushUps"`
	CurrentStreak         int          `json:"currentStreak"`
	BestStreak            int          `json:"bestStreak"`
	LastActiveDate        string       `json:"lastActiveDate,omitempty"`
	DailyTarget           int          `json:"dailyTarget"`
	DailyTargetSets       int          `json:"dailyTargetSets"`
	CompletionWindowHours int          `json:"completionWindowHours"`
	LastSetTimestamp      *int64       `json:"lastSetTimestamp,omitempty"` // unix milliseconds
	TargetBreakdown       []TargetItem `json:"targetBreakdown"`
}

// NominalSetReps is the repetition total of one nominal set, the sum
// of the breakdown counts.
func (p *UserProfile) NominalSetReps() int {
	total := 0
	for _, item := range p.TargetBreakdown {
		total += item.Count
	}
	return total
}
