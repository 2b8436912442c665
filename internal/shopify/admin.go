package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Customer is the subset of the Admin REST customer resource we read.
type Customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Tags      string `json:"tags"`
}

type customerSearchResponse struct {
	Customers []Customer `json:"customers"`
}

// FindCustomerByEmail looks up a customer via Admin REST search. Returns
// (nil, nil) when no customer matches.
func FindCustomerByEmail(ctx context.Context, shopDomain, apiVersion, accessToken, email string) (*Customer, error) {
	endpoint := fmt.Sprintf(
		"https://%s/admin/api/%s/customers/search.json?query=%s&limit=1",
		shopDomain, apiVersion, url.QueryEscape("email:"+email),
	)

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("customer search failed: http %d: %s", res.StatusCode, string(raw))
	}

	var out customerSearchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if len(out.Customers) == 0 {
		return nil, nil
	}
	return &out.Customers[0], nil
}
