package engine_test

import (
	"testing"

	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
	"github.com/UFUNY/LiUNA-Dispatch/internal/engine"
)

func TestBoardGroupOrder(t *testing.T) {
	env := newTestEnv(t)
	// created out of order on purpose
	starts := []string{"2025-03-11T08:00", "", "2025-03-10T08:00", "2025-03-14T07:30"}
	for i, s := range starts {
		if _, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: "job", StartTime: s}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	board := env.Engine.Board()
	keys := make([]string, 0, len(board.Groups))
	for _, g := range board.Groups {
		keys = append(keys, g.DateKey)
	}
	want := []string{"2025-03-10", "2025-03-11", "2025-03-14", domain.NoDateKey}
	if len(keys) != len(want) {
		t.Fatalf("expected %d groups, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("group order %v, want %v", keys, want)
		}
	}
	if !board.Groups[0].Today {
		t.Fatalf("first group should be today")
	}
	if board.ActiveCount != 4 || board.InactiveCount != 0 {
		t.Fatalf("counts %d/%d", board.ActiveCount, board.InactiveCount)
	}
}

func TestBoardGroupsByCalendarDate(t *testing.T) {
	env := newTestEnv(t)
	for _, s := range []string{"2025-03-12T08:00", "2025-03-12T13:00", "2025-03-13T08:00"} {
		if _, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: "j", StartTime: s}); err != nil {
			t.Fatal(err)
		}
	}
	board := env.Engine.Board()
	if len(board.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(board.Groups))
	}
	g := board.Groups[0]
	if g.DateKey != "2025-03-12" || len(g.Jobs) != 2 {
		t.Fatalf("unexpected first group %q with %d jobs", g.DateKey, len(g.Jobs))
	}
	if g.Jobs[0].StartTime > g.Jobs[1].StartTime {
		t.Fatalf("jobs not sorted by start time")
	}
}

func TestBoardInactiveSeparated(t *testing.T) {
	env := newTestEnv(t)
	job, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: "done", StartTime: "2025-03-12T08:00"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SetJobStatus(env.Ctx, job.ID, domain.StatusInactive); err != nil {
		t.Fatal(err)
	}
	board := env.Engine.Board()
	if len(board.Groups) != 0 {
		t.Fatalf("inactive job must not appear in groups")
	}
	if board.InactiveCount != 1 || len(board.Inactive) != 1 {
		t.Fatalf("expected 1 inactive, got %d", board.InactiveCount)
	}
}

func TestBoardLabels(t *testing.T) {
	env := newTestEnv(t)
	for _, s := range []string{"2025-03-10T08:00", "2025-03-12T08:00", ""} {
		if _, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: "j", StartTime: s}); err != nil {
			t.Fatal(err)
		}
	}
	board := env.Engine.Board()
	if board.Groups[0].Label != "Today • Monday — Mar 10" {
		t.Fatalf("today label %q", board.Groups[0].Label)
	}
	if board.Groups[1].Label != "Wednesday — Mar 12" {
		t.Fatalf("dated label %q", board.Groups[1].Label)
	}
	if board.Groups[2].Label != "No Date" {
		t.Fatalf("no-date label %q", board.Groups[2].Label)
	}
}
