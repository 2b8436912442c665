package alerts

import (
	"context"
	"fmt"
	"os"
	"strings"

	"backend/internal/shopify"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// PublishPurchaseAlert notifies the merchant's SNS topic about a verified
// purchase. Best effort: webhook processing never fails on alert errors.
func PublishPurchaseAlert(ctx context.Context, client *sns.Client, order *shopify.Order, sessionID string) error {
	topicArn := strings.TrimSpace(os.Getenv("ALERTS_TOPIC_ARN"))
	if topicArn == "" {
		return nil
	}

	attribution := "unattributed"
	if sessionID != "" {
		attribution = "chat session " + sessionID
	}

	subject := fmt.Sprintf("Purchase verified: %s", order.Name)
	message := fmt.Sprintf(
		"Order %s for %s %s (%s).\nItems: %d\nProcessed: %s\n",
		order.Name, order.TotalPrice, order.Currency, attribution,
		len(order.LineItems), order.ProcessedTime().Format("2006-01-02 15:04:05 MST"),
	)

	_, err := client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	return err
}
