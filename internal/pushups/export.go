package pushups

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExportCSV renders the daily logs for download. The sets column is a
// quoted, pipe-separated list of repetition counts; the quotes are
// always present so the column shape stays stable for consumers.
func ExportCSV(logs []DailyLog) string {
	var b strings.Builder
	b.WriteString("Date,Total Count,Target,Achieved,Sets Details")
	for _, l := range logs {
		counts := make([]string, 0, len(l.Sets))
		for _, s := range l.Sets {
			counts = append(counts, strconv.Itoa(s.Count))
		}
		achieved := "No"
		if l.Achieved {
			achieved = "Yes"
		}
		b.WriteString(fmt.Sprintf(
			"\n%s,%d,%d,%s,\"%s\"",
			l.Date, l.TotalCount, l.Target, achieved, strings.Join(counts, "|"),
		))
	}
	return b.String()
}

// ExportFilename names the download after the current training day.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("pushup_senkai_data_%s.csv", LogicalDate(now))
}
