package pushups

import "time"

// Achievement is a static definition with a pure unlock predicate over
// the profile and daily logs.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	condition func(profile *UserProfile, logs []DailyLog) bool
}

// AchievementStatus is the per-user evaluation of one achievement.
type AchievementStatus struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
}

var Achievements = []Achievement{
	{
		ID:          "first-step",
		Title:       "最初の一歩",
		Description: "累計100回達成",
		Icon:        "👣",
		condition: func(profile *UserProfile, _ []DailyLog) bool {
			return profile.TotalPushUps >= 100
		},
	},
	{
		ID:          "senkai-novice",
		Title:       "千回の卵",
		Description: "累計1,000回達成",
		Icon:        "🐣",
		condition: func(profile *UserProfile, _ []DailyLog) bool {
			return profile.TotalPushUps >= 1000
		},
	},
	{
		ID:          "senkai-master",
		Title:       "千回の達人",
		Description: "累計10,000回達成",
		Icon:        "🐲",
		condition: func(profile *UserProfile, _ []DailyLog) bool {
			return profile.TotalPushUps >= 10000
		},
	},
	{
		ID:          "streak-7",
		Title:       "一週間の奇跡",
		Description: "7日連続達成",
		Icon:        "🔥",
		condition: func(profile *UserProfile, _ []DailyLog) bool {
			return profile.BestStreak >= 7
		},
	},
	{
		ID:          "one-day-1000",
		Title:       "千回超越",
		Description: "1日で1,000回達成",
		Icon:        "⚡",
		condition: func(_ *UserProfile, logs []DailyLog) bool {
			for _, l := range logs {
				if l.TotalCount >= 1000 {
					return true
				}
			}
			return false
		},
	},
	{
		ID:          "early-bird",
		Title:       "早起きの武士",
		Description: "午前8時前に100回完了",
		Icon:        "🌅",
		condition: func(_ *UserProfile, logs []DailyLog) bool {
			for _, l := range logs {
				earlyTotal := 0
				for _, s := range l.Sets {
					if time.UnixMilli(s.Timestamp).Hour() < 8 {
						earlyTotal += s.Count
					}
				}
				if earlyTotal >= 100 {
					return true
				}
			}
			return false
		},
	},
}

// EvaluateAchievements runs every unlock predicate against the given
// state.
func EvaluateAchievements(profile *UserProfile, logs []DailyLog) []AchievementStatus {
	statuses := make([]AchievementStatus, 0, len(Achievements))
	for _, a := range Achievements {
		statuses = append(statuses, AchievementStatus{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Icon:        a.Icon,
			Unlocked:    a.condition(profile, logs),
		})
	}
	return statuses
}
