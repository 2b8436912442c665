package profiles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Profile holds the onboarding answers the recommendation prompt is
// conditioned on. Created on onboarding or on the first Shopify-authenticated
// visit; upsert only, no deletion path.
type Profile struct {
	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"-"`

	UserID            string   `dynamodbav:"UserID" json:"userId"`
	Age               int      `dynamodbav:"Age,omitempty" json:"age,omitempty"`
	Gender            string   `dynamodbav:"Gender,omitempty" json:"gender,omitempty"`
	Goals             []string `dynamodbav:"Goals,omitempty" json:"goals,omitempty"`
	ActivityLevel     string   `dynamodbav:"ActivityLevel,omitempty" json:"activityLevel,omitempty"`
	DietaryFlags      []string `dynamodbav:"DietaryFlags,omitempty" json:"dietaryFlags,omitempty"`
	BudgetMin         float64  `dynamodbav:"BudgetMin,omitempty" json:"budgetMin,omitempty"`
	BudgetMax         float64  `dynamodbav:"BudgetMax,omitempty" json:"budgetMax,omitempty"`
	ShopifyCustomerID int64    `dynamodbav:"ShopifyCustomerID,omitempty" json:"shopifyCustomerId,omitempty"`
	Email             string   `dynamodbav:"Email,omitempty" json:"email,omitempty"`
	CreatedAt         string   `dynamodbav:"CreatedAt" json:"createdAt"`
	UpdatedAt         string   `dynamodbav:"UpdatedAt" json:"updatedAt"`
}

func key(userID string) (pk, sk string) {
	return fmt.Sprintf("USER#%s", userID), "PROFILE"
}

// Get returns (nil, nil) when no profile exists yet.
func Get(ctx context.Context, client *dynamodb.Client, table, userID string) (*Profile, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("profiles table not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("missing user id")
	}

	pk, sk := key(userID)
	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var p Profile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes the profile, preserving CreatedAt on updates.
func Upsert(ctx context.Context, client *dynamodb.Client, table string, p Profile) (*Profile, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("profiles table not configured")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return nil, fmt.Errorf("missing user id")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	existing, err := Get(ctx, client, table, p.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		p.CreatedAt = existing.CreatedAt
		if p.ShopifyCustomerID == 0 {
			p.ShopifyCustomerID = existing.ShopifyCustomerID
		}
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.PK, p.SK = key(p.UserID)

	av, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, err
	}
	if _, err := client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	}); err != nil {
		return nil, fmt.Errorf("put profile: %w", err)
	}
	return &p, nil
}
