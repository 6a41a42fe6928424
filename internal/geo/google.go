package geo

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
)

// Google wraps the Maps Platform web services for geocoding and directions.
type Google struct {
	client *maps.Client
}

func NewGoogle(apiKey string) (*Google, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &Google{client: c}, nil
}

func (g *Google) Resolve(ctx context.Context, address string) (domain.Location, error) {
	if strings.TrimSpace(address) == "" {
		return domain.Location{}, &Error{Op: "geocode", Reason: ReasonInvalid}
	}
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return domain.Location{}, &Error{Op: "geocode", Reason: classify(err), Err: err}
	}
	if len(results) == 0 {
		return domain.Location{}, &Error{Op: "geocode", Reason: ReasonNoResults}
	}
	loc := results[0].Geometry.Location
	return domain.Location{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (g *Google) Route(ctx context.Context, origin, dest domain.Location) (Route, error) {
	routes, _, err := g.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", dest.Lat, dest.Lng),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return Route{}, &Error{Op: "route", Reason: classify(err), Err: err}
	}
	if len(routes) == 0 {
		return Route{}, &Error{Op: "route", Reason: ReasonNoResults}
	}
	r := routes[0]
	out := Route{
		Polyline: r.OverviewPolyline.Points,
		Bounds: Bounds{
			NorthEast: domain.Location{Lat: r.Bounds.NorthEast.Lat, Lng: r.Bounds.NorthEast.Lng},
			SouthWest: domain.Location{Lat: r.Bounds.SouthWest.Lat, Lng: r.Bounds.SouthWest.Lng},
		},
	}
	for _, leg := range r.Legs {
		out.DistanceMeters += leg.Distance.Meters
		out.DurationSecs += int(leg.Duration.Seconds())
	}
	return out, nil
}

// classify maps the web service status strings onto the local taxonomy.
func classify(err error) Reason {
	msg := strings.ToUpper(err.Error())
	switch {
	case strings.Contains(msg, "ZERO_RESULTS"):
		return ReasonNoResults
	case strings.Contains(msg, "OVER_QUERY_LIMIT") || strings.Contains(msg, "OVER_DAILY_LIMIT"):
		return ReasonQuotaExceeded
	case strings.Contains(msg, "REQUEST_DENIED"):
		return ReasonDenied
	case strings.Contains(msg, "INVALID_REQUEST"):
		return ReasonInvalid
	default:
		return ReasonUnavailable
	}
}
