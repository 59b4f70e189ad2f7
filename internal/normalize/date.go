package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormat forces day/month assignment for ambiguous d/m/y triples.
type DateFormat string

const (
	DateAuto DateFormat = "auto"
	DateDMY  DateFormat = "dd/mm/yyyy"
	DateMDY  DateFormat = "mm/dd/yyyy"
)

// Bucket coarsens a date to a calendar granularity.
type Bucket string

const (
	BucketNone    Bucket = ""
	BucketDay     Bucket = "day"
	BucketWeek    Bucket = "week"
	BucketMonth   Bucket = "month"
	BucketQuarter Bucket = "quarter"
	BucketYear    Bucket = "year"
)

// genericLayouts is the fallback for values the structured path rejects.
var genericLayouts = []string{
	time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
	"Jan 2, 2006", "2 Jan 2006", "January 2, 2006", "2006-01", "Jan-06", "Jan 2006",
}

// ParseDate reads a raw cell as a calendar date at UTC midnight.
//
// Separators '-' and '.' normalize to '/'. ISO YYYY/MM/DD is recognized
// unconditionally. For ambiguous P1/P2/P3 triples a 2-digit year windows
// below 50 into the 2000s; format forces the day/month assignment, and in
// auto mode whichever of the first two parts exceeds 12 is the day, ties
// defaulting to day-first. Month or day out of range rejects the
// structured path; a generic layout parse of the original string is the
// last resort.
func ParseDate(cell any, format DateFormat) (time.Time, bool) {
	s, ok := cell.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	norm := strings.NewReplacer("-", "/", ".", "/").Replace(s)
	if t, ok := parseTriple(norm, format); ok {
		return t, true
	}
	for _, l := range genericLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseTriple(s string, format DateFormat) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	var year, month, day int
	if len(strings.TrimSpace(parts[0])) == 4 {
		// ISO YYYY/MM/DD wins regardless of the configured format.
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		year = nums[2]
		if year < 100 {
			if year < 50 {
				year += 2000
			} else {
				year += 1900
			}
		}
		switch format {
		case DateDMY:
			day, month = nums[0], nums[1]
		case DateMDY:
			month, day = nums[0], nums[1]
		default:
			if nums[0] > 12 {
				day, month = nums[0], nums[1]
			} else if nums[1] > 12 {
				day, month = nums[1], nums[0]
			} else {
				// Ambiguous: day-first.
				day, month = nums[0], nums[1]
			}
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// BucketKey renders t as the canonical key for the given bucket. Two equal
// calendar dates always map to the same key regardless of source format.
func BucketKey(t time.Time, b Bucket) string {
	switch b {
	case BucketYear:
		return strconv.Itoa(t.Year())
	case BucketQuarter:
		q := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", t.Year(), q)
	case BucketMonth:
		return t.Format("2006-01")
	case BucketWeek:
		return weekStart(t).Format("2006-01-02")
	default:
		return t.Format("2006-01-02")
	}
}

// BucketTime reconstructs a comparable date from a bucket key. Used for
// chronological sorting; unparsable keys report false and fall back to
// lexicographic order at the call site.
func BucketTime(key string, b Bucket) (time.Time, bool) {
	switch b {
	case BucketYear:
		y, err := strconv.Atoi(key)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC), true
	case BucketQuarter:
		var y, q int
		if _, err := fmt.Sscanf(key, "%d-Q%d", &y, &q); err != nil || q < 1 || q > 4 {
			return time.Time{}, false
		}
		return time.Date(y, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC), true
	case BucketMonth:
		t, err := time.Parse("2006-01", key)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		t, err := time.Parse("2006-01-02", key)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}

// AutoBucket picks a bucket size from the span of a date column: beyond
// 400 days months, beyond 120 days weeks, otherwise days.
func AutoBucket(min, max time.Time) Bucket {
	span := max.Sub(min).Hours() / 24
	switch {
	case span > 400:
		return BucketMonth
	case span > 120:
		return BucketWeek
	default:
		return BucketDay
	}
}

func weekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // Sunday belongs to the preceding Monday-started week
	}
	return time.Date(t.Year(), t.Month(), t.Day()-(wd-1), 0, 0, 0, 0, time.UTC)
}
