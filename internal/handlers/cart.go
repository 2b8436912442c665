package handlers

import (
	"context"
	"encoding/json"
	"log"

	"backend/internal/analytics"
	"backend/internal/db"
	"backend/internal/shopify"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type CartHandler struct {
	ddb *dynamodb.Client
}

func NewCartHandler(cfg aws.Config) *CartHandler {
	return &CartHandler{ddb: dynamodb.NewFromConfig(cfg)}
}

type CartLine struct {
	VariantID string  `json:"variantId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1,max=50"`
	Price     float64 `json:"price" validate:"omitempty,min=0"`
	Title     string  `json:"title"`
}

type CartCreateRequest struct {
	SessionID string     `json:"sessionId" validate:"required,max=128"`
	UserID    string     `json:"userId" validate:"omitempty,max=128"`
	Lines     []CartLine `json:"lines" validate:"required,min=1,max=50,dive"`
}

type CartLinesAddRequest struct {
	SessionID string     `json:"sessionId" validate:"required,max=128"`
	UserID    string     `json:"userId" validate:"omitempty,max=128"`
	CartID    string     `json:"cartId" validate:"required"`
	Lines     []CartLine `json:"lines" validate:"required,min=1,max=50,dive"`
}

func (h *CartHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.RequestContext.HTTP.Method != "POST" {
		return errResp(405, "method not allowed")
	}

	switch req.RawPath {
	case "/api/cart":
		return h.create(ctx, req)
	case "/api/cart/lines":
		return h.addLines(ctx, req)
	default:
		return errResp(404, "not found")
	}
}

func (h *CartHandler) create(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in CartCreateRequest
	if err := json.Unmarshal(rawBody(req), &in); err != nil {
		return errResp(400, "invalid json body")
	}
	if err := validate.Struct(in); err != nil {
		return errResp(400, "sessionId and at least one line are required")
	}

	cfg, err := shopify.StorefrontConfigFromEnv()
	if err != nil {
		return errResp(500, "storefront not configured")
	}

	cart, err := shopify.CartCreate(ctx, cfg, in.SessionID, toStorefrontLines(in.Lines))
	if err != nil {
		log.Printf("cart: create failed: %v", err)
		return errResp(502, "cart create failed")
	}

	h.trackCartAdds(ctx, in.SessionID, in.UserID, cart.ID, in.Lines)

	return jsonResp(200, cart)
}

func (h *CartHandler) addLines(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in CartLinesAddRequest
	if err := json.Unmarshal(rawBody(req), &in); err != nil {
		return errResp(400, "invalid json body")
	}
	if err := validate.Struct(in); err != nil {
		return errResp(400, "sessionId, cartId and at least one line are required")
	}

	cfg, err := shopify.StorefrontConfigFromEnv()
	if err != nil {
		return errResp(500, "storefront not configured")
	}

	cart, err := shopify.CartLinesAdd(ctx, cfg, in.CartID, toStorefrontLines(in.Lines))
	if err != nil {
		log.Printf("cart: add lines failed: %v", err)
		return errResp(502, "cart update failed")
	}

	h.trackCartAdds(ctx, in.SessionID, in.UserID, cart.ID, in.Lines)

	return jsonResp(200, cart)
}

func toStorefrontLines(lines []CartLine) []shopify.CartLineInput {
	out := make([]shopify.CartLineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, shopify.CartLineInput{
			MerchandiseID: l.VariantID,
			Quantity:      l.Quantity,
		})
	}
	return out
}

// trackCartAdds records one cart-add event per line. The line value is the
// dashboard's revenue proxy, so price*quantity rides along as Value.
func (h *CartHandler) trackCartAdds(ctx context.Context, sessionID, userID, cartID string, lines []CartLine) {
	table := db.EventsTableName()
	for _, l := range lines {
		if _, err := analytics.Track(ctx, h.ddb, table, analytics.TrackInput{
			Name:      analytics.EventProductAddedToCart,
			SessionID: sessionID,
			UserID:    userID,
			Value:     l.Price * float64(l.Quantity),
			Props: map[string]any{
				"variantId": l.VariantID,
				"quantity":  l.Quantity,
				"title":     l.Title,
				"cartId":    cartID,
			},
		}); err != nil {
			log.Printf("cart: track cart-add failed: %v", err)
		}
	}
}
