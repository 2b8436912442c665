package analytics

import (
	"testing"
	"time"
)

func ev(name, session string, value float64, createdAt string) Event {
	return Event{Name: name, SessionID: session, Value: value, CreatedAt: createdAt}
}

func TestSummarizeEmptyWindow(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	s := Summarize(nil, from, to)

	if s.TotalEvents != 0 || s.Sessions != 0 {
		t.Errorf("empty window counted events: %+v", s)
	}
	if s.ConversionRate != 0 || s.CartRevenue != 0 || s.VerifiedRevenue != 0 {
		t.Errorf("empty window produced non-zero metrics: %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	events := []Event{
		ev(EventChatMessage, "s1", 0, "2026-03-01T10:00:00Z"),
		ev(EventRecommendationShown, "s1", 0, "2026-03-01T10:00:05Z"),
		ev(EventRecommendationShown, "s2", 0, "2026-03-02T09:00:00Z"),
		ev(EventRecommendationShown, "s3", 0, "2026-03-02T11:00:00Z"),
		ev(EventRecommendationShown, "s3", 0, "2026-03-02T11:05:00Z"),
		ev(EventProductAddedToCart, "s1", 29.99, "2026-03-01T10:01:00Z"),
		ev(EventProductAddedToCart, "s3", 45.50, "2026-03-02T11:06:00Z"),
		ev(EventPurchaseVerified, "s1", 29.99, "2026-03-01T10:20:00Z"),
		ev(EventPurchaseVerified, "", 75.00, "2026-03-03T08:00:00Z"), // unattributed
	}

	s := Summarize(events, from, to)

	if s.TotalEvents != 9 {
		t.Errorf("TotalEvents = %d, want 9", s.TotalEvents)
	}
	if s.Sessions != 3 {
		t.Errorf("Sessions = %d, want 3", s.Sessions)
	}
	if s.Recommendations != 4 || s.CartAdds != 2 || s.VerifiedPurchases != 2 {
		t.Errorf("funnel counts wrong: %+v", s)
	}
	if got, want := s.ConversionRate, 0.5; got != want {
		t.Errorf("ConversionRate = %v, want %v", got, want)
	}
	if got, want := s.CartRevenue, 29.99+45.50; got != want {
		t.Errorf("CartRevenue = %v, want %v", got, want)
	}
	if got, want := s.VerifiedRevenue, 29.99+75.00; got != want {
		t.Errorf("VerifiedRevenue = %v, want %v", got, want)
	}
	if s.CountsByName[EventChatMessage] != 1 || s.CountsByName[EventRecommendationShown] != 4 {
		t.Errorf("CountsByName wrong: %v", s.CountsByName)
	}
}

func TestSummarizeNoRecommendations(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		ev(EventProductAddedToCart, "s1", 10, "2026-03-01T10:00:00Z"),
	}
	s := Summarize(events, from, from.AddDate(0, 0, 1))
	if s.ConversionRate != 0 {
		t.Errorf("conversion with zero recommendations should be 0, got %v", s.ConversionRate)
	}
}

func TestMakeDelta(t *testing.T) {
	cases := []struct {
		name     string
		current  float64
		previous float64
		wantNil  bool
		wantPct  float64
	}{
		{"growth", 150, 100, false, 50},
		{"decline", 50, 100, false, -50},
		{"flat", 100, 100, false, 0},
		{"both zero", 0, 0, false, 0},
		{"previous zero current nonzero", 10, 0, true, 0},
		{"current zero previous nonzero", 0, 40, false, -100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := makeDelta(tc.current, tc.previous)
			if tc.wantNil {
				if d.ChangePct != nil {
					t.Errorf("ChangePct = %v, want nil", *d.ChangePct)
				}
				return
			}
			if d.ChangePct == nil {
				t.Fatal("ChangePct = nil, want value")
			}
			if *d.ChangePct != tc.wantPct {
				t.Errorf("ChangePct = %v, want %v", *d.ChangePct, tc.wantPct)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	cur := Summary{TotalEvents: 20, CartAdds: 4, Recommendations: 8, CartRevenue: 200}
	prev := Summary{TotalEvents: 10, CartAdds: 2, Recommendations: 8, CartRevenue: 100}

	c := Compare(cur, prev)

	if c.Events.ChangePct == nil || *c.Events.ChangePct != 100 {
		t.Errorf("Events delta wrong: %+v", c.Events)
	}
	if c.CartRevenue.ChangePct == nil || *c.CartRevenue.ChangePct != 100 {
		t.Errorf("CartRevenue delta wrong: %+v", c.CartRevenue)
	}
	if c.VerifiedRevenue.ChangePct == nil || *c.VerifiedRevenue.ChangePct != 0 {
		t.Errorf("zero/zero VerifiedRevenue should be 0%%: %+v", c.VerifiedRevenue)
	}
}

func TestSalesWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	from, to, err := SalesWindow("week", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC); !to.Equal(want) {
		t.Errorf("week to = %v, want %v", to, want)
	}
	if want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Errorf("week from = %v, want %v", from, want)
	}

	if _, _, err := SalesWindow("quarter", now); err == nil {
		t.Error("unknown granularity should error")
	}
}

func TestBucketSalesWeek(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	events := []Event{
		ev(EventProductAddedToCart, "s1", 25, "2026-03-14T12:00:00Z"),
		ev(EventProductAddedToCart, "s2", 10, "2026-03-14T18:00:00Z"),
		ev(EventPurchaseVerified, "s1", 25, "2026-03-15T09:00:00Z"),
		ev(EventRecommendationShown, "s1", 0, "2026-03-14T11:59:00Z"), // ignored
		ev(EventProductAddedToCart, "s3", 99, "2026-02-01T00:00:00Z"), // outside window
	}

	points, err := BucketSales(events, "week", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}
	if points[0].Label != "2026-03-09" || points[6].Label != "2026-03-15" {
		t.Errorf("label range wrong: %s .. %s", points[0].Label, points[6].Label)
	}

	byLabel := map[string]SalesPoint{}
	for _, p := range points {
		byLabel[p.Label] = p
	}
	if got := byLabel["2026-03-14"].CartRevenue; got != 35 {
		t.Errorf("2026-03-14 CartRevenue = %v, want 35", got)
	}
	if got := byLabel["2026-03-15"]; got.Orders != 1 || got.VerifiedRevenue != 25 {
		t.Errorf("2026-03-15 point wrong: %+v", got)
	}
	if got := byLabel["2026-03-10"]; got.CartRevenue != 0 || got.Orders != 0 {
		t.Errorf("empty bucket should be zero: %+v", got)
	}
}

func TestBucketSalesYearLabels(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	points, err := BucketSales(nil, "year", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 12 {
		t.Fatalf("got %d points, want 12", len(points))
	}
	if points[0].Label != "2025-04" || points[11].Label != "2026-03" {
		t.Errorf("label range wrong: %s .. %s", points[0].Label, points[11].Label)
	}
}
