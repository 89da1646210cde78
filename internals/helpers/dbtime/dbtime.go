package dbtime

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
)

const (
	LocSchoolTimezone = "school_timezone" // string, e.g. "Asia/Jakarta"
	LocSchoolLoc      = "school_loc"      // *time.Location

	DateLayout      = "2006-01-02"
	DefaultTimezone = "Asia/Jakarta"
)

// GetSchoolLocation resolves the caller's school timezone:
// Locals("school_loc"), then Locals("school_timezone"), then Asia/Jakarta, then UTC.
func GetSchoolLocation(c *fiber.Ctx) *time.Location {
	if c == nil {
		return time.UTC
	}
	if loc, ok := c.Locals(LocSchoolLoc).(*time.Location); ok && loc != nil {
		return loc
	}
	if s, ok := c.Locals(LocSchoolTimezone).(string); ok && strings.TrimSpace(s) != "" {
		if loc, err := time.LoadLocation(strings.TrimSpace(s)); err == nil {
			c.Locals(LocSchoolLoc, loc)
			return loc
		}
	}
	return LoadLocation(DefaultTimezone)
}

func LoadLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.UTC
}

// ValidTimezone reports whether name is a known IANA zone.
func ValidTimezone(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

func NowInSchool(c *fiber.Ctx) time.Time {
	return time.Now().In(GetSchoolLocation(c))
}

// DateOnly keeps the calendar date of t and returns it as UTC midnight.
// Dates are stored this way so equality and range filters match across drivers.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TodayIn is the calendar date in loc, as UTC midnight.
func TodayIn(loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOnly(now.In(loc))
}

// ParseDate accepts "YYYY-MM-DD" or RFC3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate builds year-month-day, pulling day back to the month's last day.
func ClampedDate(year int, month time.Month, day int) time.Time {
	if day < 1 {
		day = 1
	}
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
