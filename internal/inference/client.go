// Package inference holds the HTTP clients for the detector and classifier
// model servers. Both speak a minimal JSON-over-HTTP protocol: the image
// bytes go up as the request body, predictions come back as JSON.
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/wildscope/wildscope-backend/pkg/errors"
)

const maxResponseBytes = 8 << 20

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func trimBaseURL(baseURL string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "model server base URL is required")
	}
	return trimmed, nil
}

// postImage sends raw image bytes and returns the response body. Transport
// failures map to DEPENDENCY_ERROR so the consumer retries them; HTTP 4xx
// means the model rejected this input and retrying cannot help.
func postImage(ctx context.Context, client *http.Client, url string, image []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building model request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling model server")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading model response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, pkgerrors.New(pkgerrors.CodeInference,
			fmt.Sprintf("model server rejected request: status %d", resp.StatusCode)).
			WithDetails(string(body))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("model server unavailable: status %d", resp.StatusCode))
	}
}
