package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"strings"

	"backend/internal/files"

	"github.com/aws/aws-lambda-go/events"
)

// FilesHandler serves generated report artifacts from a scoped directory.
func FilesHandler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.RequestContext.HTTP.Method != "GET" {
		return errResp(405, "method not allowed")
	}

	name := req.PathParameters["name"]
	if name == "" {
		// Function URL deployments route by raw path instead.
		name = strings.TrimPrefix(req.RawPath, "/api/files/")
	}

	baseDir := strings.TrimSpace(os.Getenv("FILES_BASE_DIR"))
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	data, contentType, err := files.Read(baseDir, name)
	if err != nil {
		if errors.Is(err, files.ErrOutsideBase) {
			return errResp(403, "access denied")
		}
		if errors.Is(err, fs.ErrNotExist) {
			return errResp(404, "file not found")
		}
		return errResp(500, "file read failed")
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode:      200,
		Headers:         map[string]string{"content-type": contentType},
		Body:            base64.StdEncoding.EncodeToString(data),
		IsBase64Encoded: true,
	}, nil
}
