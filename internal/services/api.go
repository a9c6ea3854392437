// Transport for the protocol backend: request building, timeouts and error mapping.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/protokoll/internal/shared"
)

const (
	defaultBaseURL = "http://127.0.0.1:5000"
	defaultTimeout = 30 * time.Second
)

// APIService performs raw HTTP requests against the backend base URL.
//
// Every call runs under the configured timeout. Non-2xx responses become [shared.NetworkError].
type APIService struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *log.Logger
}

// NewAPIService creates a transport for baseURL. Empty values fall back to defaults.
func NewAPIService(baseURL string, client *http.Client, timeout time.Duration, logger *log.Logger) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		timeout:    timeout,
		logger:     logger,
	}
}

// APIResponse represents a successful raw API response.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *APIResponse) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// BaseURL returns the normalized backend URL.
func (a *APIService) BaseURL() string { return a.baseURL }

// Get performs a GET request to path.
func (a *APIService) Get(ctx context.Context, op, path string) (*APIResponse, error) {
	return a.Do(ctx, op, http.MethodGet, path, nil, "")
}

// Post performs a POST request with a JSON body. A nil data sends no body.
func (a *APIService) Post(ctx context.Context, op, path string, data []byte) (*APIResponse, error) {
	if data == nil {
		return a.Do(ctx, op, http.MethodPost, path, nil, "")
	}
	return a.Do(ctx, op, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

// Do sends a request and reads the whole response body.
func (a *APIService) Do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*APIResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, a.transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, a.transportError(ctx, op, err)
	}

	a.logger.Debug("backend request", "op", op, "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &shared.NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, data),
		}
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}, nil
}

func (a *APIService) transportError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &shared.TimeoutError{Op: op, After: a.timeout}
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, context.Canceled)
	}
	return &shared.NetworkError{Op: op, Err: err}
}

// errorMessage pulls a message out of a failed response body.
//
// The backend answers with {"error": ...}; some routes use {"message": ...}.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(status)
}
