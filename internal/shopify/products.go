package shopify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Product is the catalog entry handed to the recommendation prompt and the
// chat widget.
type Product struct {
	ID          string   `json:"id"`
	VariantID   string   `json:"variantId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
}

type productsData struct {
	Products struct {
		Edges []struct {
			Node struct {
				Id             string   `json:"id"`
				Title          string   `json:"title"`
				Description    string   `json:"description"`
				Tags           []string `json:"tags"`
				OnlineStoreUrl string   `json:"onlineStoreUrl"`
				Variants       struct {
					Edges []struct {
						Node struct {
							Id    string `json:"id"`
							Price struct {
								Amount       string `json:"amount"`
								CurrencyCode string `json:"currencyCode"`
							} `json:"price"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"variants"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

const productsQuery = `
query Catalog($first: Int!) {
  products(first: $first) {
    edges {
      node {
        id
        title
        description
        tags
        onlineStoreUrl
        variants(first: 1) {
          edges { node { id price { amount currencyCode } } }
        }
      }
    }
  }
}`

// FetchProducts pulls the catalog from the Storefront API.
func FetchProducts(ctx context.Context, cfg StorefrontConfig, first int) ([]Product, error) {
	if first <= 0 || first > 100 {
		first = 50
	}

	resp, status, err := PostStorefront[productsData](ctx, cfg.ShopDomain, cfg.APIVersion, cfg.Token, productsQuery, map[string]any{"first": first})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("storefront api status %d", status)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("storefront graphql: %s", resp.Errors[0].Message)
	}

	out := make([]Product, 0, len(resp.Data.Products.Edges))
	for _, e := range resp.Data.Products.Edges {
		n := e.Node
		p := Product{
			ID:          n.Id,
			Title:       n.Title,
			Description: n.Description,
			Tags:        n.Tags,
			URL:         n.OnlineStoreUrl,
		}
		if len(n.Variants.Edges) > 0 {
			v := n.Variants.Edges[0].Node
			p.VariantID = v.Id
			p.Currency = v.Price.CurrencyCode
			var amt float64
			fmt.Sscanf(v.Price.Amount, "%f", &amt)
			p.Price = amt
		}
		out = append(out, p)
	}
	return out, nil
}

var productCache struct {
	mu        sync.RWMutex
	items     []Product
	fetchedAt time.Time
}

const productCacheTTL = 5 * time.Minute

// CachedProducts returns the warm catalog, fetching synchronously on a cold
// cache. Stale entries are still returned while a refresh is kicked off.
func CachedProducts(ctx context.Context, cfg StorefrontConfig) ([]Product, error) {
	productCache.mu.RLock()
	items := productCache.items
	age := time.Since(productCache.fetchedAt)
	productCache.mu.RUnlock()

	if len(items) > 0 {
		if age > productCacheTTL {
			PrefetchProducts(cfg)
		}
		return items, nil
	}

	fresh, err := FetchProducts(ctx, cfg, 50)
	if err != nil {
		return nil, err
	}
	productCache.mu.Lock()
	productCache.items = fresh
	productCache.fetchedAt = time.Now()
	productCache.mu.Unlock()
	return fresh, nil
}

// PrefetchProducts warms the catalog cache in the background. Fire-and-forget:
// callers get no completion signal and failures only log.
func PrefetchProducts(cfg StorefrontConfig) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		fresh, err := FetchProducts(ctx, cfg, 50)
		if err != nil {
			log.Printf("product prefetch failed: %v", err)
			return
		}
		productCache.mu.Lock()
		productCache.items = fresh
		productCache.fetchedAt = time.Now()
		productCache.mu.Unlock()
	}()
}
