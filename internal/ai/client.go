package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"backend/internal/profiles"
	"backend/internal/shopify"

	"github.com/aws/aws-sdk-go-v2/aws"
	bedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type BedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// RecommendRequest is one chat turn plus everything the model needs for
// grounded product suggestions.
type RecommendRequest struct {
	Message  string
	History  []ChatTurn
	Profile  *profiles.Profile
	Products []shopify.Product
}

type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Recommendation is one suggested product, referencing the catalog by id so
// the widget can render an add-to-cart button.
type Recommendation struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Title     string `json:"title"`
	Reason    string `json:"reason"`
}

// RecommendResult carries the assistant reply plus token usage for the call.
type RecommendResult struct {
	Message         string           `json:"message"`
	Recommendations []Recommendation `json:"recommendations"`
	InputTokens     int64            `json:"-"`
	OutputTokens    int64            `json:"-"`
	ModelID         string           `json:"-"`
}

func BuildPrompt(r RecommendRequest) string {
	var b strings.Builder

	b.WriteString("You are a friendly supplement advisor for an online store.\n")
	b.WriteString("Recommend ONLY products from the catalog below. Never invent products.\n")
	b.WriteString("Respect the customer's budget when one is given.\n")
	b.WriteString("OUTPUT: valid JSON ONLY, matching:\n")
	b.WriteString(`{"message":"...","recommendations":[{"product_id":"...","variant_id":"...","title":"...","reason":"..."}]}` + "\n\n")

	if r.Profile != nil {
		b.WriteString("CUSTOMER PROFILE:\n")
		pj, _ := json.Marshal(r.Profile)
		b.Write(pj)
		b.WriteString("\n\n")
	}

	b.WriteString("CATALOG:\n")
	for _, p := range r.Products {
		line, _ := json.Marshal(map[string]any{
			"product_id": p.ID,
			"variant_id": p.VariantID,
			"title":      p.Title,
			"price":      p.Price,
			"tags":       p.Tags,
		})
		b.Write(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(r.History) > 0 {
		b.WriteString("CONVERSATION SO FAR:\n")
		for _, t := range r.History {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("CUSTOMER MESSAGE:\n")
	b.WriteString(r.Message)
	return b.String()
}

// Recommend invokes Claude on Bedrock and parses its JSON reply.
func Recommend(ctx context.Context, c BedrockClient, req RecommendRequest) (*RecommendResult, error) {
	modelID := strings.TrimSpace(os.Getenv("BEDROCK_MODEL_ID"))
	if modelID == "" {
		return nil, fmt.Errorf("missing env BEDROCK_MODEL_ID")
	}

	payload := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        900,
		"temperature":       0.3,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": BuildPrompt(req)},
				},
			},
		},
	}
	body, _ := json.Marshal(payload)

	out, err := c.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock InvokeModel: %w", err)
	}

	var raw struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int64 `json:"input_tokens"`
			OutputTokens int64 `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(out.Body, &raw); err != nil {
		return nil, fmt.Errorf("bedrock response unmarshal: %w", err)
	}

	var text string
	for _, c := range raw.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}

	jsonStr := extractFirstJSONObject(strings.TrimSpace(text))
	if jsonStr == "" {
		return nil, fmt.Errorf("model did not return a JSON object")
	}

	var res RecommendResult
	if err := json.Unmarshal([]byte(jsonStr), &res); err != nil {
		return nil, fmt.Errorf("model JSON parse failed: %w; raw=%s", err, truncate(jsonStr, 800))
	}
	res.InputTokens = raw.Usage.InputTokens
	res.OutputTokens = raw.Usage.OutputTokens
	res.ModelID = modelID
	return &res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// extractFirstJSONObject finds the first balanced {...} block. Good enough for
// model output that is JSON with occasional surrounding prose.
func extractFirstJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
