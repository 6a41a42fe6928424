package geo

import (
	"context"
	"fmt"

	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
)

// Failure reasons surfaced to the operator. No reason is retried
// automatically; a failed attempt requires a new user-triggered one.
type Reason string

const (
	ReasonNoResults     Reason = "no_results"
	ReasonQuotaExceeded Reason = "quota_exceeded"
	ReasonDenied        Reason = "request_denied"
	ReasonInvalid       Reason = "invalid_request"
	ReasonUnavailable   Reason = "unavailable"
)

type Error struct {
	Op     string
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Geocoder converts a street address to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (domain.Location, error)
}

// Route is a drivable path between two points.
type Route struct {
	Polyline       string `json:"polyline"`
	Bounds         Bounds `json:"bounds"`
	DistanceMeters int    `json:"distance_meters"`
	DurationSecs   int    `json:"duration_secs"`
}

type Bounds struct {
	NorthEast domain.Location `json:"northeast"`
	SouthWest domain.Location `json:"southwest"`
}

// Router computes a route between an origin and a destination.
type Router interface {
	Route(ctx context.Context, origin, dest domain.Location) (Route, error)
}
