package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/db"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ClaimWebhook records the webhook id with a conditional put so redelivered
// webhooks are processed once. Returns (isDuplicate, error); on duplicate the
// caller should ack and exit early.
func ClaimWebhook(ctx context.Context, ddb *dynamodb.Client, webhookID, shopDomain, topic string) (bool, error) {
	table := strings.TrimSpace(db.WebhookDedupeTableName())
	if table == "" {
		// Not configured: don't block processing
		return false, nil
	}
	webhookID = strings.TrimSpace(webhookID)
	if webhookID == "" {
		return false, nil
	}

	// Shopify retries for up to 48h; keep claims for 7 days.
	exp := time.Now().UTC().Add(7 * 24 * time.Hour).Unix()

	_, err := ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: fmt.Sprintf("WH#%s", webhookID)},
			"Shop":      &types.AttributeValueMemberS{Value: shopDomain},
			"Topic":     &types.AttributeValueMemberS{Value: topic},
			"CreatedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
			"ExpiresAt": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", exp)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return true, nil
		}
		return false, err
	}

	return false, nil
}
