package shopify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"backend/internal/db"
	"backend/internal/security"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IntegrationItem mirrors the DynamoDB integrations record for a shop.
type IntegrationItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	Shop           string `dynamodbav:"Shop"`
	AccessTokenEnc string `dynamodbav:"AccessTokenEnc"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
}

// integrationKey normalizes the shop domain so store and load agree on the
// key regardless of env or request casing.
func integrationKey(shopDomain string) (pk, sk string) {
	shop := strings.ToLower(strings.TrimSpace(shopDomain))
	return fmt.Sprintf("SHOP#%s", shop), "ADMIN_TOKEN"
}

// StoreAdminToken encrypts and upserts the Admin API access token for a shop.
func StoreAdminToken(ctx context.Context, ddb *dynamodb.Client, shopDomain, token string) error {
	table := strings.TrimSpace(db.IntegrationsTableName())
	if table == "" {
		return errors.New("INTEGRATIONS_TABLE not configured")
	}

	key, err := security.KeyFromBase64(os.Getenv("TOKEN_ENC_KEY_B64"))
	if err != nil {
		return fmt.Errorf("invalid TOKEN_ENC_KEY_B64: %w", err)
	}
	enc, err := security.EncryptToken(key, token)
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}

	pk, sk := integrationKey(shopDomain)
	item := IntegrationItem{
		PK:             pk,
		SK:             sk,
		Shop:           shopDomain,
		AccessTokenEnc: enc,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}

	_, err = ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	})
	return err
}

// LoadAdminToken returns the decrypted Admin API token for a shop. A token
// stored in DynamoDB wins; SHOPIFY_ADMIN_TOKEN is the single-store fallback.
func LoadAdminToken(ctx context.Context, ddb *dynamodb.Client, shopDomain string) (string, error) {
	table := strings.TrimSpace(db.IntegrationsTableName())
	if table != "" && ddb != nil {
		pk, sk := integrationKey(shopDomain)

		out, err := ddb.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(table),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: pk},
				"SK": &types.AttributeValueMemberS{Value: sk},
			},
		})
		if err != nil {
			return "", err
		}
		if out.Item != nil {
			var integ IntegrationItem
			if err := attributevalue.UnmarshalMap(out.Item, &integ); err != nil {
				return "", err
			}
			if enc := strings.TrimSpace(integ.AccessTokenEnc); enc != "" {
				key, err := security.KeyFromBase64(os.Getenv("TOKEN_ENC_KEY_B64"))
				if err != nil {
					return "", fmt.Errorf("invalid TOKEN_ENC_KEY_B64: %w", err)
				}
				token, err := security.DecryptToken(key, enc)
				if err != nil {
					return "", fmt.Errorf("decrypt token: %w", err)
				}
				return token, nil
			}
		}
	}

	if t := strings.TrimSpace(os.Getenv("SHOPIFY_ADMIN_TOKEN")); t != "" {
		return t, nil
	}
	return "", fmt.Errorf("no admin token for shop %s", shopDomain)
}
