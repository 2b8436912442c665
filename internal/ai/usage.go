package ai

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
)

// UsageRecord is one appended per LLM call, keyed like the events table so
// daily cost rollups reuse the same partition walk.
type UsageRecord struct {
	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"id"`

	Provider     string  `dynamodbav:"Provider" json:"provider"`
	RequestType  string  `dynamodbav:"RequestType" json:"requestType"`
	Model        string  `dynamodbav:"Model" json:"model"`
	InputTokens  int64   `dynamodbav:"InputTokens" json:"inputTokens"`
	OutputTokens int64   `dynamodbav:"OutputTokens" json:"outputTokens"`
	CostUSD      float64 `dynamodbav:"CostUSD" json:"costUsd"`
	DurationMs   int64   `dynamodbav:"DurationMs" json:"durationMs"`
	SessionID    string  `dynamodbav:"SessionID,omitempty" json:"sessionId,omitempty"`
	CreatedAt    string  `dynamodbav:"CreatedAt" json:"createdAt"`
}

// EstimateCostUSD prices a call from per-1K-token env rates. Defaults match
// the provider list price for the configured Claude tier.
func EstimateCostUSD(inputTokens, outputTokens int64) float64 {
	in := envRate("AI_COST_PER_1K_INPUT", 0.003)
	out := envRate("AI_COST_PER_1K_OUTPUT", 0.015)
	return float64(inputTokens)/1000*in + float64(outputTokens)/1000*out
}

func envRate(name string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

// RecordUsage appends a usage record. Failures are the caller's to ignore:
// accounting must never fail a chat request.
func RecordUsage(ctx context.Context, client *dynamodb.Client, table string, rec UsageRecord) error {
	if strings.TrimSpace(table) == "" {
		return fmt.Errorf("ai usage table not configured")
	}

	now := time.Now().UTC()
	rec.PK = "DAY#" + now.Format("2006-01-02")
	rec.SK = fmt.Sprintf("TS#%s#%s", now.Format("2006-01-02T15:04:05.000000000Z07:00"), uuid.NewString())
	rec.CreatedAt = now.Format(time.RFC3339)
	if rec.Provider == "" {
		rec.Provider = "bedrock"
	}

	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return err
	}
	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	})
	return err
}
