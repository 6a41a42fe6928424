package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/UFUNY/LiUNA-Dispatch/internal/config"
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
	"github.com/UFUNY/LiUNA-Dispatch/internal/engine"
	"github.com/UFUNY/LiUNA-Dispatch/internal/store"
)

func seedEmployee(t *testing.T, env testEnv, name string, cantWork ...string) domain.Employee {
	t.Helper()
	emp, err := env.Engine.CreateEmployee(env.Ctx, engine.EmployeeCreateOptions{
		Name:         name,
		CantWorkDays: cantWork,
	})
	if err != nil {
		t.Fatalf("create employee %s: %v", name, err)
	}
	return emp
}

func seedJob(t *testing.T, env testEnv, name, start string) domain.Job {
	t.Helper()
	job, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: name, StartTime: start})
	if err != nil {
		t.Fatalf("create job %s: %v", name, err)
	}
	return job
}

func TestEligibilityExcludesUnavailableWeekday(t *testing.T) {
	env := newTestEnv(t)
	seedEmployee(t, env, "Ada")
	seedEmployee(t, env, "Ben", "Monday")

	// 2025-03-10 is a Monday
	got := env.Engine.EligibleEmployees("2025-03-10")
	if len(got) != 1 || got[0].Name != "Ada" {
		t.Fatalf("expected only Ada, got %v", names(got))
	}
	// Tuesday frees Ben up
	got = env.Engine.EligibleEmployees("2025-03-11")
	if len(got) != 2 {
		t.Fatalf("expected both on Tuesday, got %v", names(got))
	}
}

func TestEligibilityExcludesInactive(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Ada")
	status := domain.StatusInactive
	if _, err := env.Engine.UpdateEmployee(env.Ctx, engine.EmployeeUpdateOptions{ID: emp.ID, Status: &status}); err != nil {
		t.Fatal(err)
	}
	if got := env.Engine.EligibleEmployees("2025-03-11"); len(got) != 0 {
		t.Fatalf("inactive employee must be excluded, got %v", names(got))
	}
}

func TestUnscheduledPolicy(t *testing.T) {
	env := newTestEnv(t)
	seedEmployee(t, env, "Ben", "Monday")

	// default policy checks today's weekday (a Monday here)
	if got := env.Engine.EligibleEmployees(domain.NoDateKey); len(got) != 0 {
		t.Fatalf("today policy should exclude Ben, got %v", names(got))
	}
	env.Config.Picker.UnscheduledPolicy = config.UnscheduledAny
	if got := env.Engine.EligibleEmployees(domain.NoDateKey); len(got) != 1 {
		t.Fatalf("any policy should include Ben")
	}
}

func TestAbbreviatedWeekdaysAccepted(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Cal", "mon", "WED")
	if len(emp.CantWorkDays) != 2 || emp.CantWorkDays[0] != "Monday" || emp.CantWorkDays[1] != "Wednesday" {
		t.Fatalf("expected normalized days, got %v", emp.CantWorkDays)
	}
	if got := env.Engine.EligibleEmployees("2025-03-12"); len(got) != 0 {
		t.Fatalf("Wednesday should exclude Cal")
	}
}

func TestAssignDetectsConflict(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Ada")
	first := seedJob(t, env, "North pour", "2025-03-12T08:00")
	second := seedJob(t, env, "South pour", "2025-03-12T13:00")

	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: first.ID, EmployeeID: emp.ID}); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: second.ID, EmployeeID: emp.ID})
	var conflict *engine.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if conflict.JobID != first.ID || conflict.DateKey != "2025-03-12" {
		t.Fatalf("unexpected conflict %+v", conflict)
	}
	// unconfirmed attempt must not change either job
	got, _ := env.Engine.GetJob(second.ID)
	if len(got.EmployeeIDs) != 0 {
		t.Fatalf("conflicted assign must not apply")
	}
}

func TestConfirmedAssignReassigns(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Ada")
	first := seedJob(t, env, "North pour", "2025-03-12T08:00")
	second := seedJob(t, env, "South pour", "2025-03-12T13:00")

	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: first.ID, EmployeeID: emp.ID}); err != nil {
		t.Fatal(err)
	}
	job, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: second.ID, EmployeeID: emp.ID, Confirm: true})
	if err != nil {
		t.Fatalf("confirmed assign: %v", err)
	}
	if len(job.EmployeeIDs) != 1 || job.EmployeeIDs[0] != emp.ID {
		t.Fatalf("expected assignment on target, got %v", job.EmployeeIDs)
	}
	prev, _ := env.Engine.GetJob(first.ID)
	if len(prev.EmployeeIDs) != 0 {
		t.Fatalf("expected removal from conflicting job, got %v", prev.EmployeeIDs)
	}
}

func TestNoDateJobsNeverConflict(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Ada")
	a := seedJob(t, env, "Backlog A", "")
	b := seedJob(t, env, "Backlog B", "")

	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: a.ID, EmployeeID: emp.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: b.ID, EmployeeID: emp.ID}); err != nil {
		t.Fatalf("unscheduled jobs must not conflict: %v", err)
	}
}

func TestAssignIdempotent(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Ada")
	job := seedJob(t, env, "Pour", "2025-03-12T08:00")
	for i := 0; i < 2; i++ {
		got, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: job.ID, EmployeeID: emp.ID})
		if err != nil {
			t.Fatalf("assign %d: %v", i, err)
		}
		if len(got.EmployeeIDs) != 1 {
			t.Fatalf("expected single assignment, got %v", got.EmployeeIDs)
		}
	}
}

func TestAssignUnknownEmployeeIgnored(t *testing.T) {
	env := newTestEnv(t)
	job := seedJob(t, env, "Pour", "2025-03-12T08:00")
	got, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: job.ID, EmployeeID: "no-such-id"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(got.EmployeeIDs) != 0 {
		t.Fatalf("unknown employee must not be recorded, got %v", got.EmployeeIDs)
	}
}

func TestUnassign(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Ada")
	job := seedJob(t, env, "Pour", "2025-03-12T08:00")
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: job.ID, EmployeeID: emp.ID}); err != nil {
		t.Fatal(err)
	}
	got, err := env.Engine.Unassign(env.Ctx, job.ID, emp.ID)
	if err != nil || len(got.EmployeeIDs) != 0 {
		t.Fatalf("unassign: %v %v", err, got.EmployeeIDs)
	}
	// unassigning again is a no-op
	if _, err := env.Engine.Unassign(env.Ctx, job.ID, emp.ID); err != nil {
		t.Fatalf("repeat unassign: %v", err)
	}
}

func TestPickerOrdersUnconflictedFirst(t *testing.T) {
	env := newTestEnv(t)
	ada := seedEmployee(t, env, "Ada")
	seedEmployee(t, env, "Ben")
	seedEmployee(t, env, "zoe") // case-insensitive name ordering
	other := seedJob(t, env, "Other", "2025-03-12T08:00")
	target := seedJob(t, env, "Target", "2025-03-12T13:00")
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: other.ID, EmployeeID: ada.ID}); err != nil {
		t.Fatal(err)
	}

	entries, err := env.Engine.Picker(engine.PickerOptions{JobID: target.ID})
	if err != nil {
		t.Fatalf("picker: %v", err)
	}
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.Employee.Name)
	}
	want := []string{"Ben", "zoe", "Ada"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("picker order %v, want %v", got, want)
		}
	}
	if entries[2].Conflict == nil || entries[2].Conflict.JobID != other.ID {
		t.Fatalf("expected conflict annotation for Ada")
	}
	if entries[0].Conflict != nil {
		t.Fatalf("Ben must not be conflicted")
	}
}

func TestPickerQueryFilters(t *testing.T) {
	env := newTestEnv(t)
	seedEmployee(t, env, "Ada Lovelace")
	seedEmployee(t, env, "Ben King")
	job := seedJob(t, env, "Target", "2025-03-12T08:00")

	entries, err := env.Engine.Picker(engine.PickerOptions{JobID: job.ID, Query: "love"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Employee.Name != "Ada Lovelace" {
		t.Fatalf("unexpected picker result %v", entries)
	}
}

func TestDeleteEmployeeScrubsAssignments(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Ada")
	job := seedJob(t, env, "Pour", "2025-03-12T08:00")
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: job.ID, EmployeeID: emp.ID}); err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteEmployee(env.Ctx, emp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := env.Engine.GetJob(job.ID)
	if len(got.EmployeeIDs) != 0 {
		t.Fatalf("expected assignment scrubbed, got %v", got.EmployeeIDs)
	}
}

func TestDeleteEmployeeRosterSaveFailure(t *testing.T) {
	env, fst := newFlakyEnv(t)
	emp := seedEmployee(t, env, "Ada")
	job := seedJob(t, env, "Pour", "2025-03-12T08:00")
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: job.ID, EmployeeID: emp.ID}); err != nil {
		t.Fatal(err)
	}

	fst.FailBucket = store.BucketEmployees
	if err := env.Engine.DeleteEmployee(env.Ctx, emp.ID); err == nil {
		t.Fatalf("expected roster save failure")
	}
	if _, err := env.Engine.GetEmployee(emp.ID); err != nil {
		t.Fatalf("employee must survive a failed delete: %v", err)
	}

	// the persisted buckets stay consistent: the roster keeps the employee
	// and no job references an ID the roster could lose
	reloaded, err := engine.New(context.Background(), env.Store, env.Config, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reloaded.GetEmployee(emp.ID); err != nil {
		t.Fatalf("persisted roster lost employee: %v", err)
	}
	got, err := reloaded.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range got.EmployeeIDs {
		if _, err := reloaded.GetEmployee(id); err != nil {
			t.Fatalf("persisted job references missing employee %s", id)
		}
	}
}

func TestEmployeeAssignments(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Ada")
	a := seedJob(t, env, "Late", "2025-03-13T08:00")
	b := seedJob(t, env, "Early", "2025-03-12T08:00")
	for _, id := range []string{a.ID, b.ID} {
		if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{JobID: id, EmployeeID: emp.ID}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := env.Engine.EmployeeAssignments(emp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].JobName != "Early" {
		t.Fatalf("unexpected assignments %v", got)
	}
}

func names(emps []domain.Employee) []string {
	out := make([]string, 0, len(emps))
	for _, e := range emps {
		out = append(out, e.Name)
	}
	return out
}
