package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnreachableMessage is shown when the backend cannot be contacted at all.
const UnreachableMessage = "Cannot connect to the server. Please make sure the backend server is running."

// ErrUnreachable wraps transport failures: connection refused, DNS, timeouts.
var ErrUnreachable = errors.New("backend unreachable")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("API Error: %d", e.StatusCode)
}

// IsRetryable returns true for server errors (5xx).
// Client errors (4xx) are considered permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsUnauthorized reports whether err is a backend rejection of the bearer token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

// IsRetryable reports whether retrying err could succeed: transport failures
// and 5xx responses.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrUnreachable) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsRetryable()
}

// UserMessage renders err the way it is shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnreachable) {
		return UnreachableMessage
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

// HTTPClient talks to the processing and auth backend. Bearer tokens are
// passed per call; the client itself holds no session.
type HTTPClient struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
	logger       *slog.Logger
}

func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		// uploads of large files are bounded by the caller's context instead
		uploadClient: &http.Client{},
		logger:       logger,
	}
}

func (c *HTTPClient) Auth() AuthService {
	return &HTTPAuthService{client: c}
}

func (c *HTTPClient) Videos() VideoService {
	return &HTTPVideoService{client: c}
}

func (c *HTTPClient) Shorts() ShortService {
	return &HTTPShortService{client: c}
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(c.httpClient, req, token, out)
}

func (c *HTTPClient) do(hc *http.Client, req *http.Request, token string, out interface{}) error {
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("backend request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", requestID,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(respBody),
			Body:       string(respBody),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// parseDetail pulls the "detail" field out of an error body. FastAPI style
// validation errors carry a list there; those are returned as raw JSON.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
