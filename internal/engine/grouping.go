package engine

import (
	"sort"
	"time"

	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
)

// DayGroup is one calendar date's worth of active jobs, sorted by start time.
type DayGroup struct {
	DateKey string       `json:"date_key"`
	Label   string       `json:"label"`
	Today   bool         `json:"today"`
	Jobs    []domain.Job `json:"jobs"`
}

// BoardView is the dispatch board view-model: active jobs grouped by day,
// inactive jobs flat, plus per-status counts.
type BoardView struct {
	Groups        []DayGroup   `json:"groups"`
	Inactive      []domain.Job `json:"inactive"`
	ActiveCount   int          `json:"active_count"`
	InactiveCount int          `json:"inactive_count"`
}

// Board builds the grouped/sorted view. Group order: today's group first,
// remaining dated groups chronologically ascending, the no-date group always
// last. Repeated calls on the same input produce the same order.
func (e *Engine) Board() BoardView {
	e.mu.Lock()
	defer e.mu.Unlock()

	todayKey := e.todayKey()
	byKey := map[string][]domain.Job{}
	var view BoardView
	for _, j := range e.jobs {
		if j.Status != domain.StatusActive {
			view.Inactive = append(view.Inactive, cloneJob(j))
			continue
		}
		key := j.DateKey()
		byKey[key] = append(byKey[key], cloneJob(j))
	}
	view.InactiveCount = len(view.Inactive)
	sortJobsByStart(view.Inactive)

	for key, jobs := range byKey {
		sortJobsByStart(jobs)
		view.ActiveCount += len(jobs)
		view.Groups = append(view.Groups, DayGroup{
			DateKey: key,
			Label:   formatDayLabel(key, todayKey),
			Today:   key == todayKey,
			Jobs:    jobs,
		})
	}
	sort.Slice(view.Groups, func(i, k int) bool {
		return lessGroupKey(view.Groups[i].DateKey, view.Groups[k].DateKey, todayKey)
	})
	return view
}

func lessGroupKey(a, b, todayKey string) bool {
	if a == todayKey && b != todayKey {
		return true
	}
	if b == todayKey && a != todayKey {
		return false
	}
	if a == domain.NoDateKey && b != domain.NoDateKey {
		return false
	}
	if b == domain.NoDateKey && a != domain.NoDateKey {
		return true
	}
	return a < b
}

func formatDayLabel(dateKey, todayKey string) string {
	if dateKey == domain.NoDateKey {
		return "No Date"
	}
	dt, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		return dateKey
	}
	label := dt.Format("Monday") + " — " + dt.Format("Jan 2")
	if dateKey == todayKey {
		label = "Today • " + label
	}
	return label
}
