package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UFUNY/LiUNA-Dispatch/internal/activity"
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
)

// EmployeeCreateOptions are parameters for adding a roster member.
type EmployeeCreateOptions struct {
	Name           string
	Classification string
	Status         string
	Email          string
	Phone          string
	Address        string
	Emergency      domain.EmergencyContact
	CantWorkDays   []string
	Skills         []string
	Certs          []string
}

func (e *Engine) CreateEmployee(ctx context.Context, opts EmployeeCreateOptions) (domain.Employee, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Employee{}, errors.New("employee name is required")
	}
	if opts.Classification == "" {
		opts.Classification = domain.Classifications[0]
	}
	if !domain.ValidClassification(opts.Classification) {
		return domain.Employee{}, fmt.Errorf("unknown classification %q", opts.Classification)
	}
	if opts.Status == "" {
		opts.Status = domain.StatusActive
	}
	if opts.Status != domain.StatusActive && opts.Status != domain.StatusInactive {
		return domain.Employee{}, fmt.Errorf("invalid employee status %q", opts.Status)
	}
	days, err := domain.NormalizeWeekdays(opts.CantWorkDays)
	if err != nil {
		return domain.Employee{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().UTC().Format(time.RFC3339)
	emp := domain.Employee{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(opts.Name),
		Classification: opts.Classification,
		Status:         opts.Status,
		Email:          opts.Email,
		Phone:          opts.Phone,
		Address:        opts.Address,
		Emergency:      opts.Emergency,
		CantWorkDays:   days,
		Skills:         opts.Skills,
		Certs:          opts.Certs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if emp.CantWorkDays == nil {
		emp.CantWorkDays = []string{}
	}
	e.employees = append(e.employees, emp)
	if err := e.saveEmployees(ctx); err != nil {
		e.employees = e.employees[:len(e.employees)-1]
		return domain.Employee{}, err
	}
	e.record(ctx, activity.Entry{Type: activity.TypeEmployeeCreate, EntityID: emp.ID, Name: emp.Name})
	return cloneEmployee(emp), nil
}

// EmployeeUpdateOptions encapsulates allowed partial updates.
type EmployeeUpdateOptions struct {
	ID             string
	Name           *string
	Classification *string
	Status         *string
	Email          *string
	Phone          *string
	Address        *string
	Emergency      *domain.EmergencyContact
	CantWorkDays   *[]string
	Skills         *[]string
	Certs          *[]string
}

func (e *Engine) UpdateEmployee(ctx context.Context, opts EmployeeUpdateOptions) (domain.Employee, error) {
	if opts.Name != nil && strings.TrimSpace(*opts.Name) == "" {
		return domain.Employee{}, errors.New("employee name is required")
	}
	if opts.Classification != nil && !domain.ValidClassification(*opts.Classification) {
		return domain.Employee{}, fmt.Errorf("unknown classification %q", *opts.Classification)
	}
	if opts.Status != nil && *opts.Status != domain.StatusActive && *opts.Status != domain.StatusInactive {
		return domain.Employee{}, fmt.Errorf("invalid employee status %q", *opts.Status)
	}
	var days []string
	if opts.CantWorkDays != nil {
		var err error
		days, err = domain.NormalizeWeekdays(*opts.CantWorkDays)
		if err != nil {
			return domain.Employee{}, err
		}
		if days == nil {
			days = []string{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	emp, ok := e.findEmployee(opts.ID)
	if !ok {
		return domain.Employee{}, ErrNotFound
	}
	original := *emp
	if opts.Name != nil {
		emp.Name = strings.TrimSpace(*opts.Name)
	}
	if opts.Classification != nil {
		emp.Classification = *opts.Classification
	}
	if opts.Status != nil {
		emp.Status = *opts.Status
	}
	if opts.Email != nil {
		emp.Email = *opts.Email
	}
	if opts.Phone != nil {
		emp.Phone = *opts.Phone
	}
	if opts.Address != nil {
		emp.Address = *opts.Address
	}
	if opts.Emergency != nil {
		emp.Emergency = *opts.Emergency
	}
	if opts.CantWorkDays != nil {
		emp.CantWorkDays = days
	}
	if opts.Skills != nil {
		emp.Skills = *opts.Skills
	}
	if opts.Certs != nil {
		emp.Certs = *opts.Certs
	}
	emp.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.saveEmployees(ctx); err != nil {
		*emp = original
		return domain.Employee{}, err
	}
	e.record(ctx, activity.Entry{Type: activity.TypeEmployeeEdit, EntityID: emp.ID, Name: emp.Name})
	return cloneEmployee(*emp), nil
}

// DeleteEmployee removes a roster member and scrubs their ID from every
// job's assignment list so no dangling references remain.
func (e *Engine) DeleteEmployee(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i := range e.employees {
		if e.employees[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	// Scrub assignments before touching the roster so the persisted jobs
	// bucket never references an employee the roster no longer has.
	type scrub struct {
		idx int
		ids []string
	}
	var scrubbed []scrub
	for i := range e.jobs {
		j := &e.jobs[i]
		for k, eid := range j.EmployeeIDs {
			if eid == id {
				scrubbed = append(scrubbed, scrub{i, append([]string(nil), j.EmployeeIDs...)})
				j.EmployeeIDs = append(j.EmployeeIDs[:k], j.EmployeeIDs[k+1:]...)
				break
			}
		}
	}
	if len(scrubbed) > 0 {
		if err := e.saveJobs(ctx); err != nil {
			for _, s := range scrubbed {
				e.jobs[s.idx].EmployeeIDs = s.ids
			}
			return err
		}
	}

	removed := e.employees[idx]
	e.employees = append(e.employees[:idx], e.employees[idx+1:]...)
	if err := e.saveEmployees(ctx); err != nil {
		e.employees = append(e.employees[:idx], append([]domain.Employee{removed}, e.employees[idx:]...)...)
		return err
	}
	e.record(ctx, activity.Entry{Type: activity.TypeEmployeeDelete, EntityID: removed.ID, Name: removed.Name})
	return nil
}

func (e *Engine) GetEmployee(id string) (domain.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	emp, ok := e.findEmployee(id)
	if !ok {
		return domain.Employee{}, ErrNotFound
	}
	return cloneEmployee(*emp), nil
}

// EmployeeFilters narrow ListEmployees output. Query matches name,
// classification, or phone as a case-insensitive substring.
type EmployeeFilters struct {
	Classifications []string
	Statuses        []string
	Query           string
}

func (e *Engine) ListEmployees(f EmployeeFilters) []domain.Employee {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := strings.ToLower(f.Query)
	var out []domain.Employee
	for _, emp := range e.employees {
		if len(f.Classifications) > 0 && !containsString(f.Classifications, emp.Classification) {
			continue
		}
		if len(f.Statuses) > 0 && !containsString(f.Statuses, emp.Status) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(emp.Name), q) &&
			!strings.Contains(strings.ToLower(emp.Classification), q) &&
			!strings.Contains(strings.ToLower(emp.Phone), q) {
			continue
		}
		out = append(out, cloneEmployee(emp))
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
