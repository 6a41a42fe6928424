package engine

import (
	"context"
	"time"

	"github.com/UFUNY/LiUNA-Dispatch/internal/activity"
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
)

// Sweep deactivates every active job whose scheduled date is strictly before
// today, clearing its start time and assignments. Unscheduled jobs are left
// alone. The sweep is idempotent: a second run over the same state changes
// nothing.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	todayKey := e.todayKey()
	type prior struct {
		idx       int
		startTime string
		employees []string
		updatedAt string
	}
	var reverted []prior
	now := e.now().UTC().Format(time.RFC3339)
	for i := range e.jobs {
		j := &e.jobs[i]
		if j.Status != domain.StatusActive {
			continue
		}
		key := j.DateKey()
		if key == domain.NoDateKey || key >= todayKey {
			continue
		}
		reverted = append(reverted, prior{i, j.StartTime, j.EmployeeIDs, j.UpdatedAt})
		j.Status = domain.StatusInactive
		j.StartTime = ""
		j.EmployeeIDs = []string{}
		j.UpdatedAt = now
	}
	if len(reverted) == 0 {
		return 0, nil
	}
	if err := e.saveJobs(ctx); err != nil {
		for _, p := range reverted {
			j := &e.jobs[p.idx]
			j.Status = domain.StatusActive
			j.StartTime = p.startTime
			j.EmployeeIDs = p.employees
			j.UpdatedAt = p.updatedAt
		}
		return 0, err
	}
	for _, p := range reverted {
		j := e.jobs[p.idx]
		e.record(ctx, activity.Entry{
			Type:     activity.TypeJobAutoDeactivate,
			EntityID: j.ID,
			Name:     j.Name,
			Detail:   p.startTime,
		})
	}
	return len(reverted), nil
}
