package stats

import (
	"fmt"
	"math"
	"time"
)

// Granularity is the size of a time bucket.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Span thresholds, in whole days, for automatic granularity.
const (
	maxDailySpanDays  = 31
	maxWeeklySpanDays = 365
)

// SelectGranularity picks day, week or month from the requested span.
// Without both bounds the series is monthly.
func SelectGranularity(start, end *time.Time) Granularity {
	if start == nil || end == nil {
		return GranularityMonth
	}
	days := SpanDays(*start, *end)
	switch {
	case days <= maxDailySpanDays:
		return GranularityDay
	case days <= maxWeeklySpanDays:
		return GranularityWeek
	default:
		return GranularityMonth
	}
}

// SpanDays returns the number of whole days between two instants. An end bound
// already stretched to 23:59:59 still counts as the same calendar day.
func SpanDays(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Hours() / 24))
}

// SnapToStart normalizes a timestamp to the beginning of its bucket (0:00:00).
func SnapToStart(t time.Time, g Granularity) time.Time {
	if t.IsZero() {
		return t
	}
	switch g {
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case GranularityWeek:
		// Snap to Monday
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// BucketKey returns the sortable key of t's bucket: "2024-01-05", "2024-W01"
// (ISO week) or "2024-01". Keys of one granularity sort chronologically as strings.
func BucketKey(t time.Time, g Granularity) string {
	t = t.UTC()
	switch g {
	case GranularityDay:
		return t.Format("2006-01-02")
	case GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return t.Format("2006-01")
	}
}
