package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/common"
)

// ValidationError is a 4xx rejection carrying the server's message. It is
// recorded against the specific record and surfaced to the user; it never
// blocks unrelated records.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rejected by server (%d): %s", e.Status, e.Message)
}

// HTTPClient implements Client over the JSON/HTTP contract.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewHTTPClient returns a client for the server at baseURL. Per-request
// deadlines come from the caller's context; httpClient may be nil.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken installs the bearer token used on authenticated calls.
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var result LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health issues the header-only reachability probe. Any transport error or
// non-success status maps to common.ErrUnavailable.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return common.ErrUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return common.ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) SubmitSubmission(ctx context.Context, req *SubmissionRequest) (*SubmissionResult, error) {
	var result SubmissionResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/submissions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadAsset posts one asset's raw bytes and returns the durable public URL.
// Re-uploading an already stored asset is wasteful but safe.
func (c *HTTPClient) UploadAsset(ctx context.Context, filename string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/uploads", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", filename)
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.mapTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return result.URL, nil
}

func (c *HTTPClient) FetchSchools(ctx context.Context) ([]models.School, error) {
	var result []models.School
	if err := c.doJSON(ctx, http.MethodGet, "/api/schools", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) FetchAssessments(ctx context.Context) ([]models.Assessment, error) {
	var result []models.Assessment
	if err := c.doJSON(ctx, http.MethodGet, "/api/assessments", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) FetchGrading(ctx context.Context) ([]models.SyncedSubmission, error) {
	var result []models.SyncedSubmission
	if err := c.doJSON(ctx, http.MethodGet, "/api/grading", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) PushGrades(ctx context.Context, grades []GradePush) error {
	return c.doJSON(ctx, http.MethodPost, "/api/grading", grades, nil)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// mapTransportError folds timeouts and connection errors into ErrUnavailable
// so callers treat them as transient.
func (c *HTTPClient) mapTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return common.ErrUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return common.ErrUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return common.ErrUnavailable
	}
	return fmt.Errorf("request error: %w", err)
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return common.ErrUnauthorized
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg := readErrorMessage(resp.Body)
		return &ValidationError{Status: resp.StatusCode, Message: msg}
	default:
		return common.ErrUnavailable
	}
}

func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "unknown error"
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(data))
}
