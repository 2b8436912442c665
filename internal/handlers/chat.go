package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"backend/internal/ai"
	"backend/internal/analytics"
	"backend/internal/db"
	"backend/internal/profiles"
	"backend/internal/shopify"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	bedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type ChatHandler struct {
	ddb *dynamodb.Client
	br  *bedrockruntime.Client
}

func NewChatHandler(cfg aws.Config) *ChatHandler {
	return &ChatHandler{
		ddb: dynamodb.NewFromConfig(cfg),
		br:  bedrockruntime.NewFromConfig(cfg),
	}
}

type ChatRequest struct {
	Message   string        `json:"message" validate:"required,max=2000"`
	SessionID string        `json:"sessionId" validate:"required,max=128"`
	UserID    string        `json:"userId" validate:"omitempty,max=128"`
	History   []ai.ChatTurn `json:"history" validate:"max=40,dive"`
}

type ChatResponse struct {
	Message         string              `json:"message"`
	Recommendations []ai.Recommendation `json:"recommendations"`
	SessionID       string              `json:"sessionId"`
}

func (h *ChatHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.RequestContext.HTTP.Method != "POST" {
		return errResp(405, "method not allowed")
	}

	var in ChatRequest
	if err := json.Unmarshal(rawBody(req), &in); err != nil {
		return errResp(400, "invalid json body")
	}
	if err := validate.Struct(in); err != nil {
		return errResp(400, "message and sessionId are required")
	}

	sfCfg, err := shopify.StorefrontConfigFromEnv()
	if err != nil {
		return errResp(500, "storefront not configured")
	}

	products, err := shopify.CachedProducts(ctx, sfCfg)
	if err != nil {
		return errResp(502, "failed to load product catalog")
	}

	var profile *profiles.Profile
	if in.UserID != "" {
		profile, err = profiles.Get(ctx, h.ddb, db.ProfilesTableName(), in.UserID)
		if err != nil {
			// Recommendations degrade gracefully without a profile.
			log.Printf("chat: profile load failed for %s: %v", in.UserID, err)
		}
	}

	start := time.Now()
	res, err := ai.Recommend(ctx, h.br, ai.RecommendRequest{
		Message:  in.Message,
		History:  in.History,
		Profile:  profile,
		Products: products,
	})
	if err != nil {
		log.Printf("chat: bedrock call failed: %v", err)
		return errResp(502, "assistant unavailable")
	}

	if uerr := ai.RecordUsage(ctx, h.ddb, db.AIUsageTableName(), ai.UsageRecord{
		RequestType:  "chat_recommendation",
		Model:        res.ModelID,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		CostUSD:      ai.EstimateCostUSD(res.InputTokens, res.OutputTokens),
		DurationMs:   time.Since(start).Milliseconds(),
		SessionID:    in.SessionID,
	}); uerr != nil {
		log.Printf("chat: usage record failed: %v", uerr)
	}

	h.trackChatEvents(ctx, in, res)

	return jsonResp(200, ChatResponse{
		Message:         res.Message,
		Recommendations: res.Recommendations,
		SessionID:       in.SessionID,
	})
}

func (h *ChatHandler) trackChatEvents(ctx context.Context, in ChatRequest, res *ai.RecommendResult) {
	table := db.EventsTableName()

	if _, err := analytics.Track(ctx, h.ddb, table, analytics.TrackInput{
		Name:      analytics.EventChatMessage,
		SessionID: in.SessionID,
		UserID:    in.UserID,
	}); err != nil {
		log.Printf("chat: track message event failed: %v", err)
	}

	if len(res.Recommendations) == 0 {
		return
	}
	props := map[string]any{"count": len(res.Recommendations)}
	ids := make([]string, 0, len(res.Recommendations))
	for _, r := range res.Recommendations {
		ids = append(ids, r.ProductID)
	}
	props["productIds"] = ids

	if _, err := analytics.Track(ctx, h.ddb, table, analytics.TrackInput{
		Name:      analytics.EventRecommendationShown,
		SessionID: in.SessionID,
		UserID:    in.UserID,
		Props:     props,
	}); err != nil {
		log.Printf("chat: track recommendation event failed: %v", err)
	}
}
