package store

import (
	"context"
	"errors"
)

// Bucket names used by the engine.
const (
	BucketJobs      = "jobs"
	BucketEmployees = "employees"
	BucketActivity  = "activity_log"
)

var ErrNotFound = errors.New("not found")

// Store is a synchronous key-value store holding JSON snapshots keyed by
// named buckets. Get returns ErrNotFound for a bucket that was never written.
type Store interface {
	Get(ctx context.Context, bucket string) ([]byte, error)
	Set(ctx context.Context, bucket string, snapshot []byte) error
	Delete(ctx context.Context, bucket string) error
}
