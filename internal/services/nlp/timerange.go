package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/invenio/internal/models"
)

var lastNDaysPattern = regexp.MustCompile(`last (\d+) days`)

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// resolveTimeRange matches lower-cased text against a fixed cascade of named
// windows. The first matching branch wins; the order below is the
// precedence order. Weeks are Sunday-aligned, months are calendar months.
func resolveTimeRange(lower string, now time.Time) *models.TimeRange {
	switch {
	case strings.Contains(lower, "today"):
		return dayRange(now, "today")

	case strings.Contains(lower, "yesterday"):
		return dayRange(now.AddDate(0, 0, -1), "yesterday")

	case strings.Contains(lower, "this week"):
		start := startOfWeek(now)
		return &models.TimeRange{
			Start:       start,
			End:         endOfDay(start.AddDate(0, 0, 6)),
			Description: "this week",
		}

	case strings.Contains(lower, "last week"):
		start := startOfWeek(now).AddDate(0, 0, -7)
		return &models.TimeRange{
			Start:       start,
			End:         endOfDay(start.AddDate(0, 0, 6)),
			Description: "last week",
		}

	case strings.Contains(lower, "this month"):
		return monthRange(now.Year(), now.Month(), now.Location(), "this month")

	case strings.Contains(lower, "last month"):
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		prev := firstOfMonth.AddDate(0, -1, 0)
		return monthRange(prev.Year(), prev.Month(), now.Location(), "last month")
	}

	for i, name := range monthNames {
		if !strings.Contains(lower, name) {
			continue
		}
		year := now.Year()
		description := name
		if strings.Contains(lower, "last year") {
			year--
			description = name + " last year"
		}
		return monthRange(year, time.Month(i+1), now.Location(), description)
	}

	if m := lastNDaysPattern.FindStringSubmatch(lower); m != nil {
		days, err := strconv.Atoi(m[1])
		if err == nil && days > 0 {
			return &models.TimeRange{
				Start:       startOfDay(now.AddDate(0, 0, -days)),
				End:         endOfDay(now),
				Description: m[0],
			}
		}
	}

	switch {
	case strings.Contains(lower, "this year"):
		return yearRange(now.Year(), now.Location(), "this year")
	case strings.Contains(lower, "last year"):
		return yearRange(now.Year()-1, now.Location(), "last year")
	}

	return nil
}

func dayRange(t time.Time, description string) *models.TimeRange {
	return &models.TimeRange{
		Start:       startOfDay(t),
		End:         endOfDay(t),
		Description: description,
	}
}

func monthRange(year int, month time.Month, loc *time.Location, description string) *models.TimeRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return &models.TimeRange{
		Start:       start,
		End:         start.AddDate(0, 1, 0).Add(-time.Nanosecond),
		Description: description,
	}
}

func yearRange(year int, loc *time.Location, description string) *models.TimeRange {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return &models.TimeRange{
		Start:       start,
		End:         start.AddDate(1, 0, 0).Add(-time.Nanosecond),
		Description: description,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// startOfWeek returns the Sunday that begins the week containing t.
func startOfWeek(t time.Time) time.Time {
	return startOfDay(t.AddDate(0, 0, -int(t.Weekday())))
}
