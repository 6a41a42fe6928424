package geo

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  string
		want Reason
	}{
		{"maps: ZERO_RESULTS", ReasonNoResults},
		{"maps: OVER_QUERY_LIMIT", ReasonQuotaExceeded},
		{"maps: OVER_DAILY_LIMIT", ReasonQuotaExceeded},
		{"maps: REQUEST_DENIED - key invalid", ReasonDenied},
		{"maps: INVALID_REQUEST", ReasonInvalid},
		{"dial tcp: connection refused", ReasonUnavailable},
	}
	for _, c := range cases {
		if got := classify(errors.New(c.msg)); got != c.want {
			t.Errorf("classify(%q) = %q, want %q", c.msg, got, c.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("resolving site: %w", &Error{Op: "geocode", Reason: ReasonQuotaExceeded, Err: cause})
	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected geo error in chain")
	}
	if ge.Reason != ReasonQuotaExceeded {
		t.Fatalf("unexpected reason %q", ge.Reason)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
}
