package ai

import (
	"context"
	"encoding/json"
	"testing"

	bedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type fakeBedrock struct {
	response any
	err      error
}

func (f *fakeBedrock) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := json.Marshal(f.response)
	return &bedrockruntime.InvokeModelOutput{Body: b}, nil
}

func claudeReply(text string, in, out int64) any {
	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
		"usage":   map[string]any{"input_tokens": in, "output_tokens": out},
	}
}

func TestRecommendParsesModelReply(t *testing.T) {
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku")

	reply := `{"message":"Try creatine.","recommendations":[{"product_id":"gid://shopify/Product/1","variant_id":"gid://shopify/ProductVariant/2","title":"Creatine","reason":"strength goal"}]}`
	c := &fakeBedrock{response: claudeReply(reply, 420, 88)}

	res, err := Recommend(context.Background(), c, RecommendRequest{Message: "what should I take?"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "Try creatine." {
		t.Errorf("message = %q", res.Message)
	}
	if len(res.Recommendations) != 1 || res.Recommendations[0].ProductID != "gid://shopify/Product/1" {
		t.Errorf("recommendations wrong: %+v", res.Recommendations)
	}
	if res.InputTokens != 420 || res.OutputTokens != 88 {
		t.Errorf("usage wrong: in=%d out=%d", res.InputTokens, res.OutputTokens)
	}
}

func TestRecommendToleratesSurroundingProse(t *testing.T) {
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku")

	reply := "Here you go:\n" + `{"message":"ok","recommendations":[]}` + "\nHope that helps!"
	c := &fakeBedrock{response: claudeReply(reply, 10, 5)}

	res, err := Recommend(context.Background(), c, RecommendRequest{Message: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "ok" || len(res.Recommendations) != 0 {
		t.Errorf("parsed result wrong: %+v", res)
	}
}

func TestRecommendRejectsNonJSON(t *testing.T) {
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku")

	c := &fakeBedrock{response: claudeReply("sorry, I can't help with that", 10, 5)}
	if _, err := Recommend(context.Background(), c, RecommendRequest{Message: "hi"}); err == nil {
		t.Error("prose-only reply should error")
	}
}

func TestRecommendRequiresModelID(t *testing.T) {
	t.Setenv("BEDROCK_MODEL_ID", "")
	c := &fakeBedrock{response: claudeReply("{}", 0, 0)}
	if _, err := Recommend(context.Background(), c, RecommendRequest{Message: "hi"}); err == nil {
		t.Error("missing BEDROCK_MODEL_ID should error")
	}
}

func TestExtractFirstJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{`noise {"a":{"b":2}} tail`, `{"a":{"b":2}}`},
		{`no braces here`, ``},
		{`{"unbalanced":`, ``},
	}
	for _, tc := range cases {
		if got := extractFirstJSONObject(tc.in); got != tc.want {
			t.Errorf("extractFirstJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEstimateCostUSD(t *testing.T) {
	t.Setenv("AI_COST_PER_1K_INPUT", "0.002")
	t.Setenv("AI_COST_PER_1K_OUTPUT", "0.010")

	got := EstimateCostUSD(1000, 500)
	want := 0.002 + 0.005
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("cost = %v, want %v", got, want)
	}

	t.Setenv("AI_COST_PER_1K_INPUT", "not-a-number")
	if EstimateCostUSD(1000, 0) != 0.003 {
		t.Error("invalid rate should fall back to default")
	}
}
