package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/UFUNY/LiUNA-Dispatch/internal/activity"
	"github.com/UFUNY/LiUNA-Dispatch/internal/migrate"
	"github.com/UFUNY/LiUNA-Dispatch/internal/store"
)

func newLog(t *testing.T, max int) *activity.Log {
	t.Helper()
	conn, err := store.Open(store.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return activity.New(store.NewSQLite(conn), max)
}

func TestAppendNewestFirst(t *testing.T) {
	l := newLog(t, 10)
	ctx := context.Background()
	for _, name := range []string{"first", "second", "third"} {
		if err := l.Append(ctx, activity.Entry{Type: activity.TypeJobCreate, Name: name}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	entries, err := l.Tail(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name != "third" || entries[1].Name != "second" {
		t.Fatalf("unexpected order %v", entries)
	}
	if entries[0].TS == 0 {
		t.Fatalf("expected timestamp set")
	}
}

func TestAppendCapped(t *testing.T) {
	l := newLog(t, 3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := l.Append(ctx, activity.Entry{Type: activity.TypeAssign}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := l.Tail(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(entries))
	}
}

func TestMalformedLogDegradesToEmpty(t *testing.T) {
	conn, err := store.Open(store.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	st := store.NewSQLite(conn)
	ctx := context.Background()
	if err := st.Set(ctx, store.BucketActivity, []byte("][")); err != nil {
		t.Fatal(err)
	}
	l := activity.New(st, 10)
	entries, err := l.Tail(ctx, 0)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty log, got %v %v", entries, err)
	}
	// append still works after degrading
	l.Now = func() time.Time { return time.UnixMilli(42) }
	if err := l.Append(ctx, activity.Entry{Type: activity.TypeJobDelete}); err != nil {
		t.Fatalf("append after degrade: %v", err)
	}
	entries, _ = l.Tail(ctx, 0)
	if len(entries) != 1 || entries[0].TS != 42 {
		t.Fatalf("unexpected entries %v", entries)
	}
}
