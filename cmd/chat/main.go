package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"

	"backend/internal/handlers"
	"backend/internal/shopify"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	// Warm the catalog before the first chat turn needs it.
	if sfCfg, err := shopify.StorefrontConfigFromEnv(); err == nil {
		shopify.PrefetchProducts(sfCfg)
	}

	h := handlers.NewChatHandler(cfg)
	lambda.Start(h.Handle)
}
