package domain

import (
	"fmt"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday accepts full weekday names and the three-letter abbreviation,
// case-insensitively. Older snapshots mixed the two forms, so both stay valid.
func ParseWeekday(name string) (time.Weekday, error) {
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// NormalizeWeekdays maps a list of weekday names to canonical full names,
// dropping duplicates and preserving first-seen order.
func NormalizeWeekdays(names []string) ([]string, error) {
	var out []string
	seen := map[time.Weekday]bool{}
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d.String())
	}
	return out, nil
}

// CantWork reports whether the employee is unavailable on the given weekday.
func (e Employee) CantWork(day time.Weekday) bool {
	for _, n := range e.CantWorkDays {
		if d, err := ParseWeekday(n); err == nil && d == day {
			return true
		}
	}
	return false
}
