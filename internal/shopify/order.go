package shopify

import (
	"encoding/json"
	"strconv"
	"time"
)

// Order is the subset of the orders/create webhook payload this service
// reads. Everything else in the payload is ignored.
type Order struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Note           string          `json:"note"`
	NoteAttributes []NameValue     `json:"note_attributes"`
	LineItems      []OrderLineItem `json:"line_items"`
	TotalPrice     string          `json:"total_price"`
	Currency       string          `json:"currency"`
	Customer       *OrderCustomer  `json:"customer"`
	CreatedAt      string          `json:"created_at"`
	ProcessedAt    string          `json:"processed_at"`
}

type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type OrderLineItem struct {
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	Price      string      `json:"price"`
	ProductID  int64       `json:"product_id"`
	Properties []NameValue `json:"properties"`
}

type OrderCustomer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func ParseOrder(body []byte) (*Order, error) {
	var o Order
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Total returns the order total as a float. Shopify sends money as strings.
func (o *Order) Total() float64 {
	f, err := strconv.ParseFloat(o.TotalPrice, 64)
	if err != nil {
		return 0
	}
	return f
}

// ProcessedTime prefers processed_at, falls back to created_at, then now.
func (o *Order) ProcessedTime() time.Time {
	for _, s := range []string{o.ProcessedAt, o.CreatedAt} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
