package handlers

import (
	"context"
	"log"

	"backend/internal/alerts"
	"backend/internal/analytics"
	"backend/internal/db"
	"backend/internal/shopify"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type WebhookHandler struct {
	ddb *dynamodb.Client
	sns *sns.Client
}

func NewWebhookHandler(cfg aws.Config) *WebhookHandler {
	return &WebhookHandler{
		ddb: dynamodb.NewFromConfig(cfg),
		sns: sns.NewFromConfig(cfg),
	}
}

// Handle processes orders/create. The contract with Shopify: 401 only on a
// bad signature; everything else returns 200 so Shopify doesn't hammer the
// endpoint with retries for conditions a retry cannot fix.
func (h *WebhookHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.RequestContext.HTTP.Method != "POST" {
		return errResp(405, "method not allowed")
	}
	if req.RawPath != "/api/webhooks/shopify/orders-create" {
		return errResp(404, "not found")
	}

	body := rawBody(req)
	if !shopify.CheckWebhookRequest(body, header(req, "x-shopify-hmac-sha256")) {
		return errResp(401, "invalid webhook signature")
	}

	topic := header(req, "x-shopify-topic")
	shopDomain := header(req, "x-shopify-shop-domain")
	webhookID := header(req, "x-shopify-webhook-id")

	dup, err := shopify.ClaimWebhook(ctx, h.ddb, webhookID, shopDomain, topic)
	if err != nil {
		log.Printf("webhook: dedupe claim failed: %v", err)
		// Processing continues; a duplicate event is better than a lost one.
	}
	if dup {
		return jsonResp(200, map[string]any{"ok": true, "duplicate": true})
	}

	order, err := shopify.ParseOrder(body)
	if err != nil {
		log.Printf("webhook: order parse failed: %v", err)
		return errResp(400, "invalid order payload")
	}

	sessionID := shopify.SessionIDFromOrder(order)

	props := map[string]any{
		"orderId":    order.ID,
		"orderName":  order.Name,
		"currency":   order.Currency,
		"itemCount":  len(order.LineItems),
		"attributed": sessionID != "",
	}
	if order.Customer != nil {
		props["customerId"] = order.Customer.ID
	}

	userID := ""
	if order.Customer != nil && order.Customer.ID != 0 {
		userID = shopifyUserID(order.Customer.ID)
	}

	if _, err := analytics.Track(ctx, h.ddb, db.EventsTableName(), analytics.TrackInput{
		Name:      analytics.EventPurchaseVerified,
		SessionID: sessionID,
		UserID:    userID,
		Value:     order.Total(),
		Props:     props,
		At:        order.ProcessedTime(),
	}); err != nil {
		// A failed write is worth a retry from Shopify's side.
		log.Printf("webhook: track purchase failed: %v", err)
		return errResp(500, "failed to record purchase")
	}

	if err := alerts.PublishPurchaseAlert(ctx, h.sns, order, sessionID); err != nil {
		log.Printf("webhook: purchase alert failed: %v", err)
	}

	return jsonResp(200, map[string]any{
		"ok":         true,
		"attributed": sessionID != "",
	})
}
