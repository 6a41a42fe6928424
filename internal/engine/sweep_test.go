package engine_test

import (
	"testing"
	"time"

	"github.com/UFUNY/LiUNA-Dispatch/internal/activity"
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
	"github.com/UFUNY/LiUNA-Dispatch/internal/engine"
	"github.com/UFUNY/LiUNA-Dispatch/internal/store"
)

func TestSweepDeactivatesPastJobs(t *testing.T) {
	env := newTestEnv(t)
	emp := seedEmployee(t, env, "Ada")
	past, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{
		Name:        "Yesterday",
		StartTime:   "2025-03-09T08:00",
		EmployeeIDs: []string{emp.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	today := seedJob(t, env, "Today", "2025-03-10T08:00")
	future := seedJob(t, env, "Future", "2025-03-12T08:00")
	backlog := seedJob(t, env, "Backlog", "")

	n, err := env.Engine.Sweep(env.Ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	got, _ := env.Engine.GetJob(past.ID)
	if got.Status != domain.StatusInactive || got.StartTime != "" || len(got.EmployeeIDs) != 0 {
		t.Fatalf("past job not reset: %+v", got)
	}
	for _, id := range []string{today.ID, future.ID, backlog.ID} {
		j, _ := env.Engine.GetJob(id)
		if j.Status != domain.StatusActive {
			t.Fatalf("job %s should remain active", j.Name)
		}
	}
}

func TestSweepIdempotent(t *testing.T) {
	env := newTestEnv(t)
	seedJob(t, env, "Yesterday", "2025-03-09T08:00")
	if n, err := env.Engine.Sweep(env.Ctx); err != nil || n != 1 {
		t.Fatalf("first sweep: %d %v", n, err)
	}
	if n, err := env.Engine.Sweep(env.Ctx); err != nil || n != 0 {
		t.Fatalf("second sweep must be a no-op: %d %v", n, err)
	}
}

func TestSweepRollsBackOnSaveFailure(t *testing.T) {
	env, fst := newFlakyEnv(t)
	job := seedJob(t, env, "Yesterday", "2025-03-09T08:00")

	fst.FailBucket = store.BucketJobs
	env.Engine.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	if n, err := env.Engine.Sweep(env.Ctx); err == nil || n != 0 {
		t.Fatalf("expected save failure, got %d %v", n, err)
	}

	got, err := env.Engine.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusActive || got.StartTime != "2025-03-09T08:00" {
		t.Fatalf("rollback incomplete: %+v", got)
	}
	if got.UpdatedAt != job.UpdatedAt {
		t.Fatalf("UpdatedAt mutated on failed sweep: %q != %q", got.UpdatedAt, job.UpdatedAt)
	}
}

func TestSweepLogsActivity(t *testing.T) {
	env := newTestEnv(t)
	seedJob(t, env, "Yesterday", "2025-03-09T08:00")
	if _, err := env.Engine.Sweep(env.Ctx); err != nil {
		t.Fatal(err)
	}
	entries, err := env.Engine.Activity.Tail(env.Ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Type != activity.TypeJobAutoDeactivate {
		t.Fatalf("expected auto-deactivate entry, got %v", entries)
	}
}
