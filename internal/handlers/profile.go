package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"backend/internal/db"
	"backend/internal/profiles"
	"backend/internal/shopify"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type ProfileHandler struct {
	ddb *dynamodb.Client
}

func NewProfileHandler(cfg aws.Config) *ProfileHandler {
	return &ProfileHandler{ddb: dynamodb.NewFromConfig(cfg)}
}

// shopifyUserID derives a stable internal user id from a Shopify customer id.
func shopifyUserID(customerID int64) string {
	return fmt.Sprintf("shopify:%d", customerID)
}

type UpsertProfileRequest struct {
	UserID        string   `json:"userId" validate:"required,max=128"`
	Age           int      `json:"age" validate:"omitempty,min=13,max=120"`
	Gender        string   `json:"gender" validate:"omitempty,max=32"`
	Goals         []string `json:"goals" validate:"max=10,dive,max=64"`
	ActivityLevel string   `json:"activityLevel" validate:"omitempty,max=32"`
	DietaryFlags  []string `json:"dietaryFlags" validate:"max=10,dive,max=64"`
	BudgetMin     float64  `json:"budgetMin" validate:"omitempty,min=0"`
	BudgetMax     float64  `json:"budgetMax" validate:"omitempty,min=0"`
	Email         string   `json:"email" validate:"omitempty,email"`
}

type LinkShopifyRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *ProfileHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	switch {
	case req.RawPath == "/api/profile" && req.RequestContext.HTTP.Method == "GET":
		return h.get(ctx, req)
	case req.RawPath == "/api/profile" && req.RequestContext.HTTP.Method == "PUT":
		return h.upsert(ctx, req)
	case req.RawPath == "/api/profile/link-shopify" && req.RequestContext.HTTP.Method == "POST":
		return h.linkShopify(ctx, req)
	default:
		return errResp(404, "not found")
	}
}

func (h *ProfileHandler) get(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	userID := strings.TrimSpace(req.QueryStringParameters["userId"])
	if userID == "" {
		return errResp(400, "userId is required")
	}

	p, err := profiles.Get(ctx, h.ddb, db.ProfilesTableName(), userID)
	if err != nil {
		log.Printf("profile: get failed: %v", err)
		return errResp(500, "profile lookup failed")
	}
	if p == nil {
		return errResp(404, "profile not found")
	}
	return jsonResp(200, p)
}

func (h *ProfileHandler) upsert(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in UpsertProfileRequest
	if err := json.Unmarshal(rawBody(req), &in); err != nil {
		return errResp(400, "invalid json body")
	}
	if err := validate.Struct(in); err != nil {
		return errResp(400, "invalid profile fields")
	}
	if in.BudgetMax > 0 && in.BudgetMax < in.BudgetMin {
		return errResp(400, "budgetMax must be >= budgetMin")
	}

	p, err := profiles.Upsert(ctx, h.ddb, db.ProfilesTableName(), profiles.Profile{
		UserID:        in.UserID,
		Age:           in.Age,
		Gender:        in.Gender,
		Goals:         in.Goals,
		ActivityLevel: in.ActivityLevel,
		DietaryFlags:  in.DietaryFlags,
		BudgetMin:     in.BudgetMin,
		BudgetMax:     in.BudgetMax,
		Email:         in.Email,
	})
	if err != nil {
		log.Printf("profile: upsert failed: %v", err)
		return errResp(500, "profile save failed")
	}
	return jsonResp(200, p)
}

// linkShopify looks the customer up by email via the Admin API and creates or
// updates the profile with the linkage. This is the first-authenticated-visit
// path for customers who never did onboarding.
func (h *ProfileHandler) linkShopify(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in LinkShopifyRequest
	if err := json.Unmarshal(rawBody(req), &in); err != nil {
		return errResp(400, "invalid json body")
	}
	if err := validate.Struct(in); err != nil {
		return errResp(400, "a valid email is required")
	}

	shopDomain := strings.TrimSpace(os.Getenv("SHOPIFY_STORE_DOMAIN"))
	apiVersion := strings.TrimSpace(os.Getenv("SHOPIFY_API_VERSION"))
	if apiVersion == "" {
		apiVersion = "2026-01"
	}

	token, err := shopify.LoadAdminToken(ctx, h.ddb, shopDomain)
	if err != nil {
		log.Printf("profile: admin token load failed: %v", err)
		return errResp(500, "shopify admin access not configured")
	}

	customer, err := shopify.FindCustomerByEmail(ctx, shopDomain, apiVersion, token, in.Email)
	if err != nil {
		log.Printf("profile: customer lookup failed: %v", err)
		return errResp(502, "customer lookup failed")
	}
	if customer == nil {
		return errResp(404, "no shopify customer for that email")
	}

	p, err := profiles.Upsert(ctx, h.ddb, db.ProfilesTableName(), profiles.Profile{
		UserID:            shopifyUserID(customer.ID),
		Email:             customer.Email,
		ShopifyCustomerID: customer.ID,
	})
	if err != nil {
		log.Printf("profile: link upsert failed: %v", err)
		return errResp(500, "profile save failed")
	}
	return jsonResp(200, p)
}
