package pushups

import "math"

// Summary are the aggregate numbers over all daily logs.
type Summary struct {
	TotalCount int `json:"totalCount"`
	AvgCount   int `json:"avgCount"`
	MaxCount   int `json:"maxCount"`
	ActiveDays int `json:"activeDays"`
}

// Summarize computes the aggregates. The average divides by at least
// one day so an empty history yields zeros instead of NaN.
func Summarize(logs []DailyLog) Summary {
	activeDays := len(logs)
	divisor := activeDays
	if divisor == 0 {
		divisor = 1
	}

	totalCount := 0
	maxCount := 0
	for _, l := range logs {
		totalCount += l.TotalCount
		if l.TotalCount > maxCount {
			maxCount = l.TotalCount
		}
	}

	return Summary{
		TotalCount: totalCount,
		AvgCount:   int(math.Round(float64(totalCount) / float64(divisor))),
		MaxCount:   maxCount,
		ActiveDays: activeDays,
	}
}
