package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"backend/internal/handlers"
)

func main() {
	_ = godotenv.Load()

	lambda.Start(handlers.FilesHandler)
}
