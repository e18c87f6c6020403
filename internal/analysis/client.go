package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/scribblelens/internal/logging"
)

// DefaultEndpoint is where `scribblelens serve` listens by default.
const DefaultEndpoint = "http://127.0.0.1:5000/analyze"

// ServiceError is a failed analysis request. Error returns the resolved
// human-readable message and nothing else.
type ServiceError struct {
	Status  int
	Message string
	Err     error
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Err }

// Client posts encoded regions to the analysis endpoint.
type Client struct {
	Endpoint   string
	Credential string
	HTTP       *http.Client
	Log        *logging.Logger
}

// NewClient returns a client for endpoint. credential may be empty, in which
// case no Authorization header is sent.
func NewClient(endpoint, credential string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint:   endpoint,
		Credential: credential,
		HTTP:       &http.Client{Timeout: 2 * time.Minute},
		Log:        logging.Nop(),
	}
}

type analyzeRequest struct {
	Image string `json:"image"`
}

// DataURL encodes a PNG the way the endpoint expects it.
func DataURL(pngData []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
}

// Analyze sends one PNG and returns the model's text payload.
func (c *Client) Analyze(ctx context.Context, pngData []byte) (string, error) {
	body, err := json.Marshal(analyzeRequest{Image: DataURL(pngData)})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &ServiceError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.Credential)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log().Warn("analysis request failed", zap.String("endpoint", c.Endpoint), zap.Error(err))
		return "", &ServiceError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ServiceError{Status: resp.StatusCode, Message: err.Error(), Err: err}
	}
	c.log().Debug("analysis response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return decodeResponse(resp.StatusCode, data)
}

func (c *Client) log() *logging.Logger {
	if c.Log == nil {
		return logging.Nop()
	}
	return c.Log
}

// decodeResponse returns the content field of a successful body. A non-2xx
// status or any non-null error field is a failure.
func decodeResponse(status int, data []byte) (string, error) {
	var fields map[string]json.RawMessage
	jsonErr := json.Unmarshal(data, &fields)
	failed := status < 200 || status > 299 || jsonErr != nil
	if raw, ok := fields["error"]; ok && !isNull(raw) {
		failed = true
	}
	if failed {
		return "", &ServiceError{Status: status, Message: ResolveErrorMessage(status, data)}
	}
	var content string
	if raw, ok := fields["content"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &content); err != nil {
			content = string(raw)
		}
	}
	return content, nil
}

// ResolveErrorMessage picks the message for a failed body: a string error
// field, then error.message, then the raw diagnostic, then the whole body.
func ResolveErrorMessage(status int, data []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		if raw, ok := fields["error"]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(raw, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
		if raw, ok := fields["raw"]; ok && !isNull(raw) {
			return compact(raw)
		}
		return compact(data)
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	if status != 0 {
		return fmt.Sprintf("analysis failed: %d %s", status, http.StatusText(status))
	}
	return "analysis failed"
}

func compact(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
