package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
	"github.com/UFUNY/LiUNA-Dispatch/internal/engine"
	"github.com/UFUNY/LiUNA-Dispatch/internal/geo"
)

type stubGeocoder struct {
	loc domain.Location
	err error
}

func (s stubGeocoder) Resolve(ctx context.Context, address string) (domain.Location, error) {
	return s.loc, s.err
}

func TestLocateJobResolves(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Geocoder = stubGeocoder{loc: domain.Location{Lat: 33.9, Lng: -118.4}}
	job, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: "Pour", Address: "400 Site Rd"})
	if err != nil {
		t.Fatal(err)
	}
	got, notice, err := env.Engine.LocateJob(env.Ctx, job.ID)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if notice != "" {
		t.Fatalf("unexpected notice %q", notice)
	}
	if got.Location == nil || got.Location.Lat != 33.9 || got.Location.Lng != -118.4 {
		t.Fatalf("unexpected location %+v", got.Location)
	}
}

func TestLocateJobFallsBackOnGeocodeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Geocoder = stubGeocoder{err: &geo.Error{Op: "geocode", Reason: geo.ReasonNoResults}}
	job, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: "Pour", Address: "nowhere at all"})
	if err != nil {
		t.Fatal(err)
	}
	got, notice, err := env.Engine.LocateJob(env.Ctx, job.ID)
	if err != nil {
		t.Fatalf("fallback path must not error: %v", err)
	}
	if notice != string(geo.ReasonNoResults) {
		t.Fatalf("unexpected notice %q", notice)
	}
	fb := env.Config.Geocode.Fallback
	if got.Location == nil || got.Location.Lat != fb.Lat || got.Location.Lng != fb.Lng {
		t.Fatalf("expected fallback location %v/%v, got %+v", fb.Lat, fb.Lng, got.Location)
	}
	// placeholder is persisted on the job
	reread, err := env.Engine.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reread.Location == nil || reread.Location.Lat != fb.Lat {
		t.Fatalf("fallback location not recorded: %+v", reread.Location)
	}
}

func TestLocateJobFallbackDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.Config.Geocode.Fallback.Enabled = false
	env.Engine.Geocoder = stubGeocoder{err: &geo.Error{Op: "geocode", Reason: geo.ReasonQuotaExceeded}}
	job, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: "Pour", Address: "400 Site Rd"})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = env.Engine.LocateJob(env.Ctx, job.ID)
	var ge *geo.Error
	if !errors.As(err, &ge) || ge.Reason != geo.ReasonQuotaExceeded {
		t.Fatalf("expected geocode error, got %v", err)
	}
	reread, _ := env.Engine.GetJob(job.ID)
	if reread.Location != nil {
		t.Fatalf("job must stay unplaced, got %+v", reread.Location)
	}
}
