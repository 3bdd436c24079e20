package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ResearchAssistant/internal/domain"
)

// DaySet is a set of weekdays, bit i meaning day i with 0=Sunday.
type DaySet uint8

const (
	EveryDay DaySet = 1<<7 - 1
	Weekdays DaySet = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday
	Weekends DaySet = 1<<time.Sunday | 1<<time.Saturday
)

var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ParseDays reads "*", comma-separated day numbers and start-end ranges. A
// range whose start is after its end wraps through Saturday to Sunday.
func ParseDays(expr string) (DaySet, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == domain.AllDays {
		return EveryDay, nil
	}

	var set DaySet
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		start, end, isRange := strings.Cut(part, "-")
		if !isRange {
			day, err := parseDay(part, expr)
			if err != nil {
				return 0, err
			}
			set |= 1 << day
			continue
		}

		from, err := parseDay(start, expr)
		if err != nil {
			return 0, err
		}
		to, err := parseDay(end, expr)
		if err != nil {
			return 0, err
		}
		for day := from; ; day = (day + 1) % 7 {
			set |= 1 << day
			if day == to {
				break
			}
		}
	}
	return set, nil
}

func parseDay(raw, expr string) (int, error) {
	day, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.Validationf("Invalid day expression '%s'. Use *, day numbers 0-6 (0=Sun) and ranges like 1-5.", expr)
	}
	if day < 0 || day > 6 {
		return 0, domain.Validationf("Invalid day numbers in '%s'. Must be 0-6 (0=Sun).", expr)
	}
	return day, nil
}

// Contains reports whether day is in the set.
func (d DaySet) Contains(day time.Weekday) bool {
	return day >= time.Sunday && day <= time.Saturday && d&(1<<day) != 0
}

// Days lists the members in ascending order.
func (d DaySet) Days() []time.Weekday {
	var out []time.Weekday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if d.Contains(day) {
			out = append(out, day)
		}
	}
	return out
}

// String renders a canonical expression that ParseDays accepts.
func (d DaySet) String() string {
	if d == EveryDay {
		return domain.AllDays
	}
	days := d.Days()
	parts := make([]string, len(days))
	for i, day := range days {
		parts[i] = strconv.Itoa(int(day))
	}
	return strings.Join(parts, ",")
}

// Describe renders the set for humans.
func (d DaySet) Describe() string {
	switch d {
	case EveryDay:
		return "every day"
	case Weekdays:
		return "weekdays"
	case Weekends:
		return "weekends"
	}
	days := d.Days()
	names := make([]string, len(days))
	for i, day := range days {
		names[i] = dayNames[day]
	}
	return strings.Join(names, ", ")
}

// FormatDays describes a stored day expression, falling back to the raw text
// when it does not parse.
func FormatDays(expr string) string {
	set, err := ParseDays(expr)
	if err != nil {
		return fmt.Sprintf("invalid days %q", expr)
	}
	return set.Describe()
}
