package pushups

import "time"

// A training day does not end at midnight. Anything before 04:00 local
// time still belongs to the previous calendar date, so a session
// finished at 01:30 counts towards the evening it concluded.
const logicalDayBoundaryHour = 4

// LogicalDate maps a timestamp to the training day it belongs to,
// formatted YYYY-MM-DD.
func LogicalDate(t time.Time) string {
	if t.Hour() < logicalDayBoundaryHour {
		t = t.AddDate(0, 0, -1)
	}
	return t.Format("2006-01-02")
}

// LogicalDateNow is the convenience form for the current moment.
func LogicalDateNow() string {
	return LogicalDate(time.Now())
}

// LogicalDateFromMillis attributes a stored set timestamp to its
// training day.
func LogicalDateFromMillis(ms int64) string {
	return LogicalDate(time.UnixMilli(ms))
}
