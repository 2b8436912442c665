package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

type GraphQLError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

type GraphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// PostStorefront sends a query to the Storefront API, which authenticates
// with a public storefront token rather than an Admin access token.
func PostStorefront[T any](ctx context.Context, shopDomain, apiVersion, storefrontToken, query string, variables any) (*GraphQLResponse[T], int, error) {
	endpoint := fmt.Sprintf("https://%s/api/%s/graphql.json", shopDomain, apiVersion)

	body := map[string]any{
		"query":     query,
		"variables": variables,
	}
	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	req.Header.Set("content-type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", storefrontToken)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)

	var out GraphQLResponse[T]
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, res.StatusCode, err
	}

	return &out, res.StatusCode, nil
}

// StorefrontConfig is resolved from env once per invocation.
type StorefrontConfig struct {
	ShopDomain string
	APIVersion string
	Token      string
}

func StorefrontConfigFromEnv() (StorefrontConfig, error) {
	cfg := StorefrontConfig{
		ShopDomain: strings.TrimSpace(os.Getenv("SHOPIFY_STORE_DOMAIN")),
		APIVersion: strings.TrimSpace(os.Getenv("SHOPIFY_API_VERSION")),
		Token:      strings.TrimSpace(os.Getenv("SHOPIFY_STOREFRONT_TOKEN")),
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2026-01"
	}
	if cfg.ShopDomain == "" || cfg.Token == "" {
		return cfg, fmt.Errorf("missing SHOPIFY_STORE_DOMAIN or SHOPIFY_STOREFRONT_TOKEN")
	}
	return cfg, nil
}

type CartLineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

type Cart struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
	TotalQty    int    `json:"totalQuantity"`
}

type cartPayload struct {
	Cart struct {
		Id            string `json:"id"`
		CheckoutUrl   string `json:"checkoutUrl"`
		TotalQuantity int    `json:"totalQuantity"`
	} `json:"cart"`
	UserErrors []struct {
		Field   []string `json:"field"`
		Message string   `json:"message"`
	} `json:"userErrors"`
}

type cartCreateData struct {
	CartCreate cartPayload `json:"cartCreate"`
}

type cartLinesAddData struct {
	CartLinesAdd cartPayload `json:"cartLinesAdd"`
}

const cartCreateMutation = `
mutation CartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart { id checkoutUrl totalQuantity }
    userErrors { field message }
  }
}`

const cartLinesAddMutation = `
mutation CartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { id checkoutUrl totalQuantity }
    userErrors { field message }
  }
}`

// CartCreate builds a new cart. The chat session id travels as a cart
// attribute so orders placed from this cart can be attributed later.
func CartCreate(ctx context.Context, cfg StorefrontConfig, sessionID string, lines []CartLineInput) (*Cart, error) {
	input := map[string]any{
		"lines": lines,
	}
	if strings.TrimSpace(sessionID) != "" {
		input["attributes"] = []map[string]string{
			{"key": "_chatbot_session", "value": sessionID},
		}
	}

	resp, status, err := PostStorefront[cartCreateData](ctx, cfg.ShopDomain, cfg.APIVersion, cfg.Token, cartCreateMutation, map[string]any{"input": input})
	if err != nil {
		return nil, err
	}
	return cartFromPayload(resp.Errors, status, resp.Data.CartCreate)
}

func CartLinesAdd(ctx context.Context, cfg StorefrontConfig, cartID string, lines []CartLineInput) (*Cart, error) {
	vars := map[string]any{
		"cartId": cartID,
		"lines":  lines,
	}

	resp, status, err := PostStorefront[cartLinesAddData](ctx, cfg.ShopDomain, cfg.APIVersion, cfg.Token, cartLinesAddMutation, vars)
	if err != nil {
		return nil, err
	}
	return cartFromPayload(resp.Errors, status, resp.Data.CartLinesAdd)
}

func cartFromPayload(gqlErrs []GraphQLError, status int, p cartPayload) (*Cart, error) {
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("storefront api status %d", status)
	}
	if len(gqlErrs) > 0 {
		return nil, fmt.Errorf("storefront graphql: %s", gqlErrs[0].Message)
	}
	if len(p.UserErrors) > 0 {
		return nil, fmt.Errorf("cart mutation rejected: %s", p.UserErrors[0].Message)
	}
	if p.Cart.Id == "" {
		return nil, fmt.Errorf("cart mutation returned no cart")
	}
	return &Cart{
		ID:          p.Cart.Id,
		CheckoutURL: p.Cart.CheckoutUrl,
		TotalQty:    p.Cart.TotalQuantity,
	}, nil
}
