package handlers

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func jsonResp(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
		Body: string(b),
	}, nil
}

func errResp(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(status, map[string]any{
		"error": msg,
	})
}

// rawBody returns the request body bytes, decoding the base64 wrapping API
// Gateway applies to binary payloads. Webhook HMACs are computed over these
// exact bytes.
func rawBody(req events.APIGatewayV2HTTPRequest) []byte {
	if req.IsBase64Encoded {
		if b, err := base64.StdEncoding.DecodeString(req.Body); err == nil {
			return b
		}
	}
	return []byte(req.Body)
}

func header(req events.APIGatewayV2HTTPRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// cookieValue pulls one cookie out of the APIGatewayV2 cookie slice.
func cookieValue(req events.APIGatewayV2HTTPRequest, name string) string {
	for _, c := range req.Cookies {
		parts := strings.SplitN(c, "=", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[0]) == name {
			return strings.TrimSpace(parts[1])
		}
	}
	// Some clients send a single Cookie header instead.
	raw := header(req, "cookie")
	for _, c := range strings.Split(raw, ";") {
		parts := strings.SplitN(strings.TrimSpace(c), "=", 2)
		if len(parts) == 2 && parts[0] == name {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
