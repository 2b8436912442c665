package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"

	"backend/internal/export"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	h := export.NewDailyMetricsETL(cfg)
	lambda.Start(h.Handle)
}
