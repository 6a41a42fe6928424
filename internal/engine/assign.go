package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/UFUNY/LiUNA-Dispatch/internal/activity"
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
)

// ConflictError reports that an employee already holds an assignment on
// another active job scheduled for the same date. Callers resolve it by
// retrying with Confirm set.
type ConflictError struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	JobID        string `json:"job_id"`
	JobName      string `json:"job_name"`
	DateKey      string `json:"date_key"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is already assigned to %q on %s", e.EmployeeName, e.JobName, e.DateKey)
}

// Assignment identifies one job an employee is assigned to.
type Assignment struct {
	JobID     string `json:"job_id"`
	JobName   string `json:"job_name"`
	StartTime string `json:"start_time,omitempty"`
	DateKey   string `json:"date_key"`
	Status    string `json:"status"`
}

// PickerEntry is one candidate in the assignment picker. Conflict is non-nil
// when the employee already works another active job on the target date.
type PickerEntry struct {
	Employee domain.Employee `json:"employee"`
	Conflict *Assignment     `json:"conflict,omitempty"`
}

type PickerOptions struct {
	JobID string
	Query string
}

// Picker lists employees eligible for the job's date, conflict-annotated and
// sorted with unconflicted candidates first, then by name. Jobs without a
// scheduled date never produce conflicts. Picker does not mutate any state.
func (e *Engine) Picker(opts PickerOptions) ([]PickerEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.jobIndex(opts.JobID)
	if idx < 0 {
		return nil, ErrNotFound
	}
	job := e.jobs[idx]
	dateKey := job.DateKey()

	var entries []PickerEntry
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	for _, emp := range e.eligibleLocked(dateKey) {
		if query != "" && !matchesEmployee(emp, query) {
			continue
		}
		entry := PickerEntry{Employee: emp}
		if dateKey != domain.NoDateKey {
			entry.Conflict = e.conflictFor(emp.ID, job.ID, dateKey)
		}
		entries = append(entries, entry)
	}

	coll := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(entries, func(i, k int) bool {
		a, b := entries[i], entries[k]
		if (a.Conflict == nil) != (b.Conflict == nil) {
			return a.Conflict == nil
		}
		return coll.CompareString(a.Employee.Name, b.Employee.Name) < 0
	})
	return entries, nil
}

func matchesEmployee(emp domain.Employee, query string) bool {
	return strings.Contains(strings.ToLower(emp.Name), query) ||
		strings.Contains(strings.ToLower(emp.Classification), query) ||
		strings.Contains(strings.ToLower(emp.Phone), query)
}

// conflictFor finds another active dated job on the same date that already
// lists the employee. Returns nil if there is none.
func (e *Engine) conflictFor(employeeID, excludeJobID, dateKey string) *Assignment {
	for _, j := range e.jobs {
		if j.ID == excludeJobID || j.Status != domain.StatusActive {
			continue
		}
		if j.DateKey() != dateKey {
			continue
		}
		if containsString(j.EmployeeIDs, employeeID) {
			return &Assignment{
				JobID:     j.ID,
				JobName:   j.Name,
				StartTime: j.StartTime,
				DateKey:   dateKey,
				Status:    j.Status,
			}
		}
	}
	return nil
}

type AssignOptions struct {
	JobID      string
	EmployeeID string
	// Confirm authorizes moving the employee off any conflicting assignment.
	Confirm bool
}

// Assign adds the employee to the job. When the employee already works
// another active job on the same date, Assign returns a *ConflictError
// unless opts.Confirm is set, in which case the employee is removed from
// every conflicting job first.
func (e *Engine) Assign(ctx context.Context, opts AssignOptions) (domain.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.jobIndex(opts.JobID)
	if idx < 0 {
		return domain.Job{}, ErrNotFound
	}
	job := e.jobs[idx]
	emp, ok := e.findEmployee(opts.EmployeeID)
	if !ok {
		// Unknown IDs are ignored, same as stale IDs submitted on create.
		return cloneJob(job), nil
	}
	if containsString(job.EmployeeIDs, emp.ID) {
		return cloneJob(job), nil
	}

	dateKey := job.DateKey()
	reassigned := false
	prev := snapshotAssignments(e.jobs)
	if dateKey != domain.NoDateKey {
		if c := e.conflictFor(emp.ID, job.ID, dateKey); c != nil {
			if !opts.Confirm {
				cc := *c
				return domain.Job{}, &ConflictError{
					EmployeeID:   emp.ID,
					EmployeeName: emp.Name,
					JobID:        cc.JobID,
					JobName:      cc.JobName,
					DateKey:      dateKey,
				}
			}
			for i := range e.jobs {
				j := &e.jobs[i]
				if j.ID == job.ID || j.Status != domain.StatusActive || j.DateKey() != dateKey {
					continue
				}
				if removed := removeString(&j.EmployeeIDs, emp.ID); removed {
					j.UpdatedAt = e.now().UTC().Format(time.RFC3339)
					reassigned = true
				}
			}
		}
	}

	e.jobs[idx].EmployeeIDs = append(e.jobs[idx].EmployeeIDs, emp.ID)
	e.jobs[idx].UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.saveJobs(ctx); err != nil {
		restoreAssignments(e.jobs, prev)
		return domain.Job{}, err
	}

	kind := activity.TypeAssign
	if reassigned {
		kind = activity.TypeReassign
	}
	e.record(ctx, activity.Entry{
		Type:     kind,
		EntityID: job.ID,
		Name:     job.Name,
		Detail:   emp.Name,
	})
	return cloneJob(e.jobs[idx]), nil
}

// Unassign removes the employee from the job. Removing an employee who is
// not assigned is a no-op.
func (e *Engine) Unassign(ctx context.Context, jobID, employeeID string) (domain.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.jobIndex(jobID)
	if idx < 0 {
		return domain.Job{}, ErrNotFound
	}
	job := &e.jobs[idx]
	prev := append([]string(nil), job.EmployeeIDs...)
	if !removeString(&job.EmployeeIDs, employeeID) {
		return cloneJob(*job), nil
	}
	job.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.saveJobs(ctx); err != nil {
		job.EmployeeIDs = prev
		return domain.Job{}, err
	}

	detail := employeeID
	if emp, ok := e.findEmployee(employeeID); ok {
		detail = emp.Name
	}
	e.record(ctx, activity.Entry{
		Type:     activity.TypeUnassign,
		EntityID: job.ID,
		Name:     job.Name,
		Detail:   detail,
	})
	return cloneJob(*job), nil
}

// EmployeeAssignments lists every job, active or not, that currently carries
// the employee, ordered by start time.
func (e *Engine) EmployeeAssignments(employeeID string) ([]Assignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.findEmployee(employeeID); !ok {
		return nil, ErrNotFound
	}
	var out []Assignment
	for _, j := range e.jobs {
		if !containsString(j.EmployeeIDs, employeeID) {
			continue
		}
		out = append(out, Assignment{
			JobID:     j.ID,
			JobName:   j.Name,
			StartTime: j.StartTime,
			DateKey:   j.DateKey(),
			Status:    j.Status,
		})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].StartTime != out[k].StartTime {
			return out[i].StartTime < out[k].StartTime
		}
		return out[i].JobID < out[k].JobID
	})
	return out, nil
}

func removeString(list *[]string, v string) bool {
	for i, s := range *list {
		if s == v {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

func snapshotAssignments(jobs []domain.Job) map[string][]string {
	m := make(map[string][]string, len(jobs))
	for _, j := range jobs {
		m[j.ID] = append([]string(nil), j.EmployeeIDs...)
	}
	return m
}

func restoreAssignments(jobs []domain.Job, prev map[string][]string) {
	for i := range jobs {
		if ids, ok := prev[jobs[i].ID]; ok {
			jobs[i].EmployeeIDs = ids
		}
	}
}
