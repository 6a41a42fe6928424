package domain_test

import (
	"testing"
	"time"

	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
)

func TestDateKeyFromStart(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-03-12T08:00", "2025-03-12"},
		{"2025-03-12T08:00:30", "2025-03-12"},
		{"", domain.NoDateKey},
		{"2025-03-12", domain.NoDateKey},
		{"garbage", domain.NoDateKey},
	}
	for _, c := range cases {
		if got := domain.DateKeyFromStart(c.in); got != c.want {
			t.Errorf("DateKeyFromStart(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeWeekdays(t *testing.T) {
	got, err := domain.NormalizeWeekdays([]string{"mon", "Monday", "WED", " friday "})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []string{"Monday", "Wednesday", "Friday"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if _, err := domain.NormalizeWeekdays([]string{"funday"}); err == nil {
		t.Fatalf("expected error for unknown weekday")
	}
}

func TestCantWorkMixedForms(t *testing.T) {
	emp := domain.Employee{CantWorkDays: []string{"Monday", "wed"}}
	if !emp.CantWork(time.Monday) || !emp.CantWork(time.Wednesday) {
		t.Fatalf("expected both forms to match")
	}
	if emp.CantWork(time.Friday) {
		t.Fatalf("Friday should be free")
	}
}

func TestValidClassification(t *testing.T) {
	if !domain.ValidClassification("APP-3") || !domain.ValidClassification("FM") {
		t.Fatalf("known classifications rejected")
	}
	if domain.ValidClassification("apprentice") {
		t.Fatalf("unknown classification accepted")
	}
}
