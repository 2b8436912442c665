package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log"
	"os"
	"strings"
)

// VerifyWebhookSignature checks the x-shopify-hmac-sha256 header against the
// raw request body. Shopify signs the exact bytes it sent, so the caller must
// pass the body before any JSON decoding.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if len(expected) != len(signature) {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CheckWebhookRequest applies the deployment policy around signature checks:
// with no secret configured the request is rejected in production and waved
// through (with a warning) everywhere else, so local tunnels keep working.
func CheckWebhookRequest(body []byte, signature string) bool {
	secret := strings.TrimSpace(os.Getenv("SHOPIFY_WEBHOOK_SECRET"))
	if secret == "" {
		if isProduction() {
			log.Printf("webhook: SHOPIFY_WEBHOOK_SECRET not set, rejecting")
			return false
		}
		log.Printf("webhook: SHOPIFY_WEBHOOK_SECRET not set, skipping verification (non-production)")
		return true
	}
	return VerifyWebhookSignature(body, signature, secret)
}

func isProduction() bool {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	return env == "production" || env == "prod"
}
