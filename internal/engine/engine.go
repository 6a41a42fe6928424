package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/UFUNY/LiUNA-Dispatch/internal/activity"
	"github.com/UFUNY/LiUNA-Dispatch/internal/config"
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
	"github.com/UFUNY/LiUNA-Dispatch/internal/geo"
	"github.com/UFUNY/LiUNA-Dispatch/internal/store"
)

var ErrNotFound = store.ErrNotFound

// Engine owns the in-memory job and employee collections and is the single
// writer against the bucket store. View-models returned from it are copies;
// callers never see live internal state.
type Engine struct {
	Store    store.Store
	Config   *config.Config
	Activity *activity.Log
	Geocoder geo.Geocoder
	Router   geo.Router
	Now      func() time.Time
	Log      zerolog.Logger

	mu        sync.Mutex
	jobs      []domain.Job
	employees []domain.Employee
}

// New loads both snapshots from the store. Malformed or missing snapshots
// degrade to empty collections so the system always starts usable.
func New(ctx context.Context, st store.Store, cfg *config.Config, log zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		Store:    st,
		Config:   cfg,
		Activity: activity.New(st, cfg.Activity.MaxEntries),
		Now:      time.Now,
		Log:      log,
	}
	e.jobs = loadBucket[domain.Job](ctx, st, store.BucketJobs, log)
	e.employees = loadBucket[domain.Employee](ctx, st, store.BucketEmployees, log)
	e.resolveLegacyAssignments()
	return e, nil
}

func loadBucket[T any](ctx context.Context, st store.Store, bucket string, log zerolog.Logger) []T {
	data, err := st.Get(ctx, bucket)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("bucket", bucket).Msg("load snapshot failed, starting empty")
		}
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Msg("malformed snapshot, starting empty")
		return nil
	}
	return items
}

// resolveLegacyAssignments rewrites name-keyed assignee lists from old
// snapshots into ID references. Names with no roster match are dropped.
func (e *Engine) resolveLegacyAssignments() {
	byName := map[string]string{}
	for _, emp := range e.employees {
		byName[emp.Name] = emp.ID
	}
	for i := range e.jobs {
		j := &e.jobs[i]
		if len(j.LegacyEmployees) == 0 {
			continue
		}
		if len(j.EmployeeIDs) == 0 {
			for _, name := range j.LegacyEmployees {
				if id, ok := byName[name]; ok {
					j.EmployeeIDs = append(j.EmployeeIDs, id)
				}
			}
		}
		j.LegacyEmployees = nil
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// todayKey is today's date key in the configured timezone.
func (e *Engine) todayKey() string {
	return e.now().In(e.Config.Location()).Format("2006-01-02")
}

func (e *Engine) saveJobs(ctx context.Context) error {
	data, err := json.Marshal(e.jobs)
	if err != nil {
		return fmt.Errorf("marshal jobs: %w", err)
	}
	if err := e.Store.Set(ctx, store.BucketJobs, data); err != nil {
		return fmt.Errorf("persist jobs: %w", err)
	}
	return nil
}

func (e *Engine) saveEmployees(ctx context.Context) error {
	data, err := json.Marshal(e.employees)
	if err != nil {
		return fmt.Errorf("marshal employees: %w", err)
	}
	if err := e.Store.Set(ctx, store.BucketEmployees, data); err != nil {
		return fmt.Errorf("persist employees: %w", err)
	}
	return nil
}

func (e *Engine) record(ctx context.Context, entry activity.Entry) {
	if e.Activity == nil {
		return
	}
	if err := e.Activity.Append(ctx, entry); err != nil {
		e.Log.Warn().Err(err).Str("type", entry.Type).Msg("append activity entry failed")
	}
}

// validateStartTime accepts the empty string (unscheduled) or the
// fixed-width datetime-local format.
func validateStartTime(v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02T15:04", v); err != nil {
		return fmt.Errorf("invalid start time %q: expected YYYY-MM-DDTHH:MM", v)
	}
	return nil
}

func validateLocation(loc *domain.Location) error {
	if loc == nil {
		return nil
	}
	if loc.Lat < -90 || loc.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", loc.Lat)
	}
	if loc.Lng < -180 || loc.Lng > 180 {
		return fmt.Errorf("longitude %v out of range", loc.Lng)
	}
	return nil
}

// JobCreateOptions are parameters for creating a job.
type JobCreateOptions struct {
	Name        string
	Description string
	Address     string
	Scope       string
	StartTime   string
	Client      domain.Client
	EmployeeIDs []string
	Location    *domain.Location
}

func (e *Engine) CreateJob(ctx context.Context, opts JobCreateOptions) (domain.Job, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Job{}, errors.New("job name is required")
	}
	if err := validateStartTime(opts.StartTime); err != nil {
		return domain.Job{}, err
	}
	if err := validateLocation(opts.Location); err != nil {
		return domain.Job{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().UTC().Format(time.RFC3339)
	j := domain.Job{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(opts.Name),
		Description: opts.Description,
		Address:     opts.Address,
		Scope:       opts.Scope,
		StartTime:   opts.StartTime,
		Client:      opts.Client,
		EmployeeIDs: e.knownEmployeeIDs(opts.EmployeeIDs),
		Status:      domain.StatusActive,
		Location:    opts.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e.jobs = append(e.jobs, j)
	if err := e.saveJobs(ctx); err != nil {
		e.jobs = e.jobs[:len(e.jobs)-1]
		return domain.Job{}, err
	}
	e.record(ctx, activity.Entry{Type: activity.TypeJobCreate, EntityID: j.ID, Name: j.Name})
	return cloneJob(j), nil
}

// knownEmployeeIDs filters the requested assignees down to roster members;
// unknown IDs are ignored rather than rejected.
func (e *Engine) knownEmployeeIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := e.findEmployee(id); ok {
			out = append(out, id)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// JobUpdateOptions encapsulates allowed partial updates.
type JobUpdateOptions struct {
	ID          string
	Name        *string
	Description *string
	Address     *string
	Scope       *string
	StartTime   *string
	Client      *domain.Client
	Location    *domain.Location
	EmployeeIDs *[]string
}

func (e *Engine) UpdateJob(ctx context.Context, opts JobUpdateOptions) (domain.Job, error) {
	if opts.Name != nil && strings.TrimSpace(*opts.Name) == "" {
		return domain.Job{}, errors.New("job name is required")
	}
	if opts.StartTime != nil {
		if err := validateStartTime(*opts.StartTime); err != nil {
			return domain.Job{}, err
		}
	}
	if err := validateLocation(opts.Location); err != nil {
		return domain.Job{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.jobIndex(opts.ID)
	if idx < 0 {
		return domain.Job{}, ErrNotFound
	}
	original := e.jobs[idx]
	j := &e.jobs[idx]
	if opts.Name != nil {
		j.Name = strings.TrimSpace(*opts.Name)
	}
	if opts.Description != nil {
		j.Description = *opts.Description
	}
	if opts.Address != nil {
		j.Address = *opts.Address
	}
	if opts.Scope != nil {
		j.Scope = *opts.Scope
	}
	if opts.StartTime != nil {
		j.StartTime = *opts.StartTime
	}
	if opts.Client != nil {
		j.Client = *opts.Client
	}
	if opts.Location != nil {
		j.Location = opts.Location
	}
	if opts.EmployeeIDs != nil {
		j.EmployeeIDs = e.knownEmployeeIDs(*opts.EmployeeIDs)
	}
	j.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.saveJobs(ctx); err != nil {
		e.jobs[idx] = original
		return domain.Job{}, err
	}
	e.record(ctx, activity.Entry{Type: activity.TypeJobEdit, EntityID: j.ID, Name: j.Name})
	return cloneJob(*j), nil
}

// SetJobStatus toggles a job between active and inactive. Inactivation is a
// hard reset of scheduling attributes: start time and assignees are cleared.
// Reactivation restores nothing.
func (e *Engine) SetJobStatus(ctx context.Context, id, status string) (domain.Job, error) {
	if status != domain.StatusActive && status != domain.StatusInactive {
		return domain.Job{}, fmt.Errorf("invalid job status %q", status)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.jobIndex(id)
	if idx < 0 {
		return domain.Job{}, ErrNotFound
	}
	original := e.jobs[idx]
	j := &e.jobs[idx]
	j.Status = status
	if status == domain.StatusInactive {
		j.StartTime = ""
		j.EmployeeIDs = []string{}
	}
	j.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.saveJobs(ctx); err != nil {
		e.jobs[idx] = original
		return domain.Job{}, err
	}
	e.record(ctx, activity.Entry{Type: activity.TypeJobStatus, EntityID: j.ID, Name: j.Name, Detail: status})
	return cloneJob(*j), nil
}

// SetJobLocation records resolved coordinates on a job.
func (e *Engine) SetJobLocation(ctx context.Context, id string, loc domain.Location) (domain.Job, error) {
	if err := validateLocation(&loc); err != nil {
		return domain.Job{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.jobIndex(id)
	if idx < 0 {
		return domain.Job{}, ErrNotFound
	}
	original := e.jobs[idx]
	j := &e.jobs[idx]
	j.Location = &loc
	j.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.saveJobs(ctx); err != nil {
		e.jobs[idx] = original
		return domain.Job{}, err
	}
	return cloneJob(*j), nil
}

// LocateJob resolves the job's address through the geocoder. On a geocoding
// failure with the fallback enabled, the placeholder location is recorded and
// the failure reason is returned as a notice instead of an error.
func (e *Engine) LocateJob(ctx context.Context, id string) (domain.Job, string, error) {
	if e.Geocoder == nil {
		return domain.Job{}, "", errors.New("geocoder not configured")
	}
	j, err := e.GetJob(id)
	if err != nil {
		return domain.Job{}, "", err
	}
	if strings.TrimSpace(j.Address) == "" {
		return domain.Job{}, "", errors.New("job has no address")
	}
	loc, err := e.Geocoder.Resolve(ctx, j.Address)
	if err != nil {
		var ge *geo.Error
		fb := e.Config.Geocode.Fallback
		if errors.As(err, &ge) && fb.Enabled {
			j, serr := e.SetJobLocation(ctx, id, domain.Location{Lat: fb.Lat, Lng: fb.Lng})
			if serr != nil {
				return domain.Job{}, "", serr
			}
			return j, string(ge.Reason), nil
		}
		return domain.Job{}, "", err
	}
	j, err = e.SetJobLocation(ctx, id, loc)
	return j, "", err
}

func (e *Engine) DeleteJob(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.jobIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	removed := e.jobs[idx]
	e.jobs = append(e.jobs[:idx], e.jobs[idx+1:]...)
	if err := e.saveJobs(ctx); err != nil {
		e.jobs = append(e.jobs[:idx], append([]domain.Job{removed}, e.jobs[idx:]...)...)
		return err
	}
	e.record(ctx, activity.Entry{Type: activity.TypeJobDelete, EntityID: removed.ID, Name: removed.Name})
	return nil
}

func (e *Engine) GetJob(id string) (domain.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.jobIndex(id)
	if idx < 0 {
		return domain.Job{}, ErrNotFound
	}
	return cloneJob(e.jobs[idx]), nil
}

// JobFilters narrow ListJobs output. Query matches the job name as a
// case-insensitive substring; the empty query matches everything.
type JobFilters struct {
	Status string
	Query  string
}

func (e *Engine) ListJobs(f JobFilters) []domain.Job {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := strings.ToLower(f.Query)
	var out []domain.Job
	for _, j := range e.jobs {
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(j.Name), q) {
			continue
		}
		out = append(out, cloneJob(j))
	}
	return out
}

func (e *Engine) jobIndex(id string) int {
	for i := range e.jobs {
		if e.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) findEmployee(id string) (*domain.Employee, bool) {
	for i := range e.employees {
		if e.employees[i].ID == id {
			return &e.employees[i], true
		}
	}
	return nil, false
}

func cloneJob(j domain.Job) domain.Job {
	j.EmployeeIDs = append([]string(nil), j.EmployeeIDs...)
	if j.Location != nil {
		loc := *j.Location
		j.Location = &loc
	}
	return j
}

func cloneEmployee(emp domain.Employee) domain.Employee {
	emp.CantWorkDays = append([]string(nil), emp.CantWorkDays...)
	emp.Skills = append([]string(nil), emp.Skills...)
	emp.Certs = append([]string(nil), emp.Certs...)
	return emp
}

// sortJobsByStart orders jobs by start time ascending (lexicographic works
// for the fixed-width format), with the job ID as a deterministic tiebreak.
func sortJobsByStart(jobs []domain.Job) {
	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].StartTime != jobs[k].StartTime {
			return jobs[i].StartTime < jobs[k].StartTime
		}
		return jobs[i].ID < jobs[k].ID
	})
}
