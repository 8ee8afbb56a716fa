// API service for making raw HTTP requests to the jukebox backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

const (
	contentTypeJSON       = "application/json"
	contentTypeMergePatch = "application/merge-patch+json"
	contentTypeProblem    = "application/problem+json"
)

// APIService provides methods for making raw HTTP requests to the backend.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the backend URL requests are sent to.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Err returns an [*APIError] for non-2xx responses and nil otherwise.
func (r *APIResponse) Err() error {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: r.StatusCode, Body: string(r.Body)}
	if strings.HasPrefix(r.Headers.Get("Content-Type"), contentTypeProblem) || r.IsJSON {
		var problem models.Problem
		if err := json.Unmarshal(r.Body, &problem); err == nil && problem.Status != 0 {
			apiErr.Problem = &problem
		}
	}
	return apiErr
}

// Decode unmarshals the JSON body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// APIError is a non-2xx response. It matches [shared.ErrAPIRequest].
type APIError struct {
	StatusCode int
	Problem    *models.Problem
	Body       string
}

func (e *APIError) Error() string {
	if e.Problem != nil {
		detail := e.Problem.Detail
		if detail == "" {
			detail = e.Problem.Title
		}
		if e.Problem.Message != "" {
			return fmt.Sprintf("%v: status %d: %s (%s)", shared.ErrAPIRequest, e.StatusCode, detail, e.Problem.Message)
		}
		return fmt.Sprintf("%v: status %d: %s", shared.ErrAPIRequest, e.StatusCode, detail)
	}
	return fmt.Sprintf("%v: status %d, body: %s", shared.ErrAPIRequest, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// Get performs a GET request to the specified path with optional query parameters.
func (a *APIService) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, query, "", nil)
}

// Post performs a POST request with the given JSON data.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, nil, contentTypeJSON, data)
}

// Put performs a PUT request with the given JSON data.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPut, path, nil, contentTypeJSON, data)
}

// Patch performs a PATCH request with a JSON merge patch.
func (a *APIService) Patch(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPatch, path, nil, contentTypeMergePatch, data)
}

// Delete performs a DELETE request.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodDelete, path, nil, "", nil)
}

// Do sends a request and reads the whole response. Failures to reach the server wrap [shared.ErrTransport];
// HTTP error statuses are returned as a response, see [APIResponse.Err].
func (a *APIService) Do(ctx context.Context, method, path string, query url.Values, contentType string, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrTransport, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &jsonData); err == nil {
			apiResp.IsJSON = true
			apiResp.JSONData = jsonData
		}
	}

	return apiResp, nil
}
