package shopify

import (
	"testing"
	"time"
)

func TestParseOrder(t *testing.T) {
	body := []byte(`{
		"id": 5551234,
		"name": "#1042",
		"note": "",
		"total_price": "84.97",
		"currency": "USD",
		"note_attributes": [{"name": "_chatbot_session", "value": "sess-1"}],
		"line_items": [{"title": "Omega-3", "quantity": 2, "price": "19.99", "properties": []}],
		"customer": {"id": 777, "email": "a@b.com"},
		"processed_at": "2026-03-14T10:00:00-05:00"
	}`)

	o, err := ParseOrder(body)
	if err != nil {
		t.Fatal(err)
	}
	if o.ID != 5551234 || o.Name != "#1042" {
		t.Errorf("order identity wrong: %+v", o)
	}
	if o.Total() != 84.97 {
		t.Errorf("Total = %v, want 84.97", o.Total())
	}
	want := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	if !o.ProcessedTime().Equal(want) {
		t.Errorf("ProcessedTime = %v, want %v", o.ProcessedTime(), want)
	}
	if SessionIDFromOrder(o) != "sess-1" {
		t.Errorf("attribution lost in parse")
	}
}

func TestOrderFallbacks(t *testing.T) {
	o := &Order{TotalPrice: "not-a-price", CreatedAt: "2026-03-01T00:00:00Z"}
	if o.Total() != 0 {
		t.Errorf("unparseable total should be 0, got %v", o.Total())
	}
	if got := o.ProcessedTime(); !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("should fall back to created_at, got %v", got)
	}

	// No usable timestamps: now-ish, just confirm it's not zero.
	empty := &Order{}
	if empty.ProcessedTime().IsZero() {
		t.Error("ProcessedTime should never be zero")
	}
}
