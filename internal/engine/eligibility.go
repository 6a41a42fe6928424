package engine

import (
	"time"

	"github.com/UFUNY/LiUNA-Dispatch/internal/config"
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
)

// EligibleEmployees returns active employees who can work the day named by
// dateKey. For the no-date key the behavior follows the configured
// unscheduled policy: "today" checks against today's weekday, "any" skips
// the weekday check entirely.
func (e *Engine) EligibleEmployees(dateKey string) []domain.Employee {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eligibleLocked(dateKey)
}

func (e *Engine) eligibleLocked(dateKey string) []domain.Employee {
	checkDay := true
	var day time.Weekday
	switch {
	case dateKey == domain.NoDateKey || dateKey == "":
		if e.Config.Picker.UnscheduledPolicy == config.UnscheduledAny {
			checkDay = false
		} else {
			day = e.now().In(e.Config.Location()).Weekday()
		}
	default:
		dt, err := time.Parse("2006-01-02", dateKey)
		if err != nil {
			return nil
		}
		day = dt.Weekday()
	}

	var out []domain.Employee
	for _, emp := range e.employees {
		if emp.Status != domain.StatusActive {
			continue
		}
		if checkDay && emp.CantWork(day) {
			continue
		}
		out = append(out, cloneEmployee(emp))
	}
	return out
}
