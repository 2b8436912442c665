package analytics

import (
	"fmt"
	"time"
)

// Summary is one aggregation window. CartRevenue sums cart-add event values
// and is a revenue proxy; VerifiedRevenue sums webhook-confirmed purchases.
// The dashboard shows both and labels the proxy as an approximation.
type Summary struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	TotalEvents  int            `json:"totalEvents"`
	CountsByName map[string]int `json:"countsByName"`

	Sessions          int     `json:"sessions"`
	Recommendations   int     `json:"recommendations"`
	CartAdds          int     `json:"cartAdds"`
	VerifiedPurchases int     `json:"verifiedPurchases"`
	ConversionRate    float64 `json:"conversionRate"`
	CartRevenue       float64 `json:"cartRevenue"`
	VerifiedRevenue   float64 `json:"verifiedRevenue"`
}

// Summarize is a single pass over the window's events.
func Summarize(events []Event, from, to time.Time) Summary {
	s := Summary{
		From:         from,
		To:           to,
		CountsByName: map[string]int{},
	}

	sessions := map[string]bool{}
	for _, ev := range events {
		s.TotalEvents++
		s.CountsByName[ev.Name]++
		if ev.SessionID != "" {
			sessions[ev.SessionID] = true
		}

		switch ev.Name {
		case EventRecommendationShown:
			s.Recommendations++
		case EventProductAddedToCart:
			s.CartAdds++
			if ev.Value > 0 {
				s.CartRevenue += ev.Value
			}
		case EventPurchaseVerified:
			s.VerifiedPurchases++
			if ev.Value > 0 {
				s.VerifiedRevenue += ev.Value
			}
		}
	}
	s.Sessions = len(sessions)

	if s.Recommendations > 0 {
		s.ConversionRate = float64(s.CartAdds) / float64(s.Recommendations)
	}
	return s
}

// Delta compares one metric across two windows. ChangePct is nil when the
// previous window is zero and the current is not (percentage undefined), and
// zero when both windows are zero.
type Delta struct {
	Current   float64  `json:"current"`
	Previous  float64  `json:"previous"`
	ChangePct *float64 `json:"changePct"`
}

func makeDelta(current, previous float64) Delta {
	d := Delta{Current: current, Previous: previous}
	switch {
	case previous != 0:
		pct := (current - previous) / previous * 100
		d.ChangePct = &pct
	case current == 0:
		zero := 0.0
		d.ChangePct = &zero
	}
	return d
}

// Comparison is the period-over-period dashboard block.
type Comparison struct {
	Events          Delta `json:"events"`
	Sessions        Delta `json:"sessions"`
	Recommendations Delta `json:"recommendations"`
	CartAdds        Delta `json:"cartAdds"`
	CartRevenue     Delta `json:"cartRevenue"`
	VerifiedRevenue Delta `json:"verifiedRevenue"`
}

func Compare(current, previous Summary) Comparison {
	return Comparison{
		Events:          makeDelta(float64(current.TotalEvents), float64(previous.TotalEvents)),
		Sessions:        makeDelta(float64(current.Sessions), float64(previous.Sessions)),
		Recommendations: makeDelta(float64(current.Recommendations), float64(previous.Recommendations)),
		CartAdds:        makeDelta(float64(current.CartAdds), float64(previous.CartAdds)),
		CartRevenue:     makeDelta(current.CartRevenue, previous.CartRevenue),
		VerifiedRevenue: makeDelta(current.VerifiedRevenue, previous.VerifiedRevenue),
	}
}

// SalesPoint is one bucket of the sales chart.
type SalesPoint struct {
	Label           string  `json:"label"`
	CartRevenue     float64 `json:"cartRevenue"`
	VerifiedRevenue float64 `json:"verifiedRevenue"`
	Orders          int     `json:"orders"`
}

// SalesWindow maps a chart granularity to its query window ending at now:
// week = 7 daily buckets, month = 30 daily buckets, year = 12 monthly buckets.
func SalesWindow(granularity string, now time.Time) (from, to time.Time, err error) {
	now = now.UTC()
	to = now.Truncate(24 * time.Hour).AddDate(0, 0, 1)
	switch granularity {
	case "week":
		return to.AddDate(0, 0, -7), to, nil
	case "month":
		return to.AddDate(0, 0, -30), to, nil
	case "year":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
		return start, to, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("granularity must be week, month or year")
	}
}

// BucketSales buckets events into the chart series for the given granularity.
// Daily buckets are labelled YYYY-MM-DD, monthly buckets YYYY-MM. Buckets with
// no events are emitted as zero points so the chart axis is continuous.
func BucketSales(events []Event, granularity string, now time.Time) ([]SalesPoint, error) {
	from, to, err := SalesWindow(granularity, now)
	if err != nil {
		return nil, err
	}

	monthly := granularity == "year"
	label := func(t time.Time) string {
		if monthly {
			return t.UTC().Format("2006-01")
		}
		return t.UTC().Format("2006-01-02")
	}

	var labels []string
	if monthly {
		for t := from; t.Before(to); t = t.AddDate(0, 1, 0) {
			labels = append(labels, label(t))
		}
	} else {
		for t := from; t.Before(to); t = t.AddDate(0, 0, 1) {
			labels = append(labels, label(t))
		}
	}

	byLabel := map[string]*SalesPoint{}
	points := make([]SalesPoint, len(labels))
	for i, l := range labels {
		points[i] = SalesPoint{Label: l}
		byLabel[l] = &points[i]
	}

	for _, ev := range events {
		t, terr := time.Parse(time.RFC3339, ev.CreatedAt)
		if terr != nil {
			continue
		}
		p, ok := byLabel[label(t)]
		if !ok {
			continue
		}
		switch ev.Name {
		case EventProductAddedToCart:
			if ev.Value > 0 {
				p.CartRevenue += ev.Value
			}
		case EventPurchaseVerified:
			p.Orders++
			if ev.Value > 0 {
				p.VerifiedRevenue += ev.Value
			}
		}
	}

	return points, nil
}
