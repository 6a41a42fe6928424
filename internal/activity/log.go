package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UFUNY/LiUNA-Dispatch/internal/store"
)

// Entry types written by the engine.
const (
	TypeJobCreate         = "job_create"
	TypeJobEdit           = "job_edit"
	TypeJobDelete         = "job_delete"
	TypeJobStatus         = "job_status"
	TypeJobAutoDeactivate = "job_auto_deactivate"
	TypeAssign            = "assign"
	TypeUnassign          = "unassign"
	TypeReassign          = "reassign"
	TypeEmployeeCreate    = "employee_create"
	TypeEmployeeEdit      = "employee_edit"
	TypeEmployeeDelete    = "employee_delete"
)

const DefaultMaxEntries = 200

type Entry struct {
	Type     string `json:"type"`
	EntityID string `json:"id"`
	Name     string `json:"name,omitempty"`
	Detail   string `json:"detail,omitempty"`
	TS       int64  `json:"ts"` // unix milliseconds
}

// Log appends entries to the activity bucket, newest first, capped at Max.
type Log struct {
	Store store.Store
	Max   int
	Now   func() time.Time
}

func New(st store.Store, max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{Store: st, Max: max, Now: time.Now}
}

func (l *Log) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Log) Append(ctx context.Context, e Entry) error {
	entries, err := l.load(ctx)
	if err != nil {
		return err
	}
	e.TS = l.now().UnixMilli()
	entries = append([]Entry{e}, entries...)
	if len(entries) > l.Max {
		entries = entries[:l.Max]
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal activity log: %w", err)
	}
	return l.Store.Set(ctx, store.BucketActivity, data)
}

// Tail returns the newest n entries (all of them when n <= 0).
func (l *Log) Tail(ctx context.Context, n int) ([]Entry, error) {
	entries, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// load degrades to an empty log on a missing bucket or a malformed snapshot.
func (l *Log) load(ctx context.Context) ([]Entry, error) {
	data, err := l.Store.Get(ctx, store.BucketActivity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil
	}
	return entries, nil
}
