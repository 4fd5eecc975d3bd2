package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"bucketctl/pkg/utils"
)

// listPageSize is the page size used when listing a bucket
const listPageSize = 100

// Client talks to the Supabase Storage REST API for one bucket
type Client struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

// FileObject is one entry returned by the list endpoint
type FileObject struct {
	Name      string     `json:"name"`
	ID        *string    `json:"id"`
	UpdatedAt *time.Time `json:"updated_at"`
	CreatedAt *time.Time `json:"created_at"`
	Metadata  *Metadata  `json:"metadata"`
}

// Metadata carries the object fields the API reports
type Metadata struct {
	Size     int64  `json:"size"`
	Mimetype string `json:"mimetype"`
}

// APIError is a non-2xx response from the storage API
type APIError struct {
	HTTPStatus int
	StatusCode json.Number `json:"statusCode"`
	Code       string      `json:"error"`
	Message    string      `json:"message"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.HTTPStatus)
	}
	return fmt.Sprintf("storage API error (status %d): %s", e.Status(), msg)
}

// Status returns the status code reported in the body, falling back to the HTTP status.
// Older API versions answer 400 and put the real code in the body.
func (e *APIError) Status() int {
	if e.StatusCode != "" {
		if code, err := strconv.Atoi(e.StatusCode.String()); err == nil {
			return code
		}
	}
	return e.HTTPStatus
}

// IsConflict reports whether err means the object already exists
func IsConflict(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status() == http.StatusConflict || apiErr.Code == "Duplicate"
}

// IsNotFound reports whether err means the object or bucket does not exist
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status() == http.StatusNotFound || apiErr.Code == "not_found"
}

// IsUnauthorized reports whether err is an authentication or authorization failure
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	status := apiErr.Status()
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// NewClient creates a client for apiURL (the project URL, without /storage/v1)
func NewClient(apiURL, apiKey, bucket string) (*Client, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Supabase URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid Supabase URL: %s", apiURL)
	}

	return &Client{
		baseURL: strings.TrimSuffix(apiURL, "/") + "/storage/v1",
		apiKey:  apiKey,
		bucket:  bucket,
		httpClient: &http.Client{
			Timeout: 0, // transfers are bounded by the caller's context
		},
	}, nil
}

// SetHTTPClient replaces the HTTP client used for API calls
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Upload sends data to the bucket under key
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, size int64, upsert bool) error {
	utils.Debug("Upload to Supabase: %s/%s (%d bytes, upsert=%t)", c.bucket, key, size, upsert)

	endpoint := fmt.Sprintf("%s/object/%s/%s", c.baseURL, url.PathEscape(c.bucket), escapeKey(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	if size == 0 {
		// A zero length with a non-nil body would be sent chunked
		req.Body = http.NoBody
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	if upsert {
		req.Header.Set("x-upsert", "true")
	}

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("error uploading %s: %w", key, err)
	}

	utils.Debug("Upload successful: %s/%s", c.bucket, key)
	return nil
}

// ListObjects lists every object under prefix, following pagination
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]FileObject, error) {
	utils.Debug("Supabase object list with prefix: %q", prefix)

	var objects []FileObject
	endpoint := fmt.Sprintf("%s/object/list/%s", c.baseURL, url.PathEscape(c.bucket))

	for offset := 0; ; offset += listPageSize {
		payload := map[string]any{
			"prefix": prefix,
			"limit":  listPageSize,
			"offset": offset,
			"sortBy": map[string]string{"column": "name", "order": "asc"},
		}

		req, err := c.newJSONRequest(ctx, http.MethodPost, endpoint, payload)
		if err != nil {
			return nil, err
		}

		var page []FileObject
		if err := c.do(req, &page); err != nil {
			return nil, fmt.Errorf("error listing objects: %w", err)
		}

		objects = append(objects, page...)
		if len(page) < listPageSize {
			break
		}
	}

	utils.Debug("Object list: %d objects found", len(objects))
	return objects, nil
}

// CreateSignedURL returns an absolute URL valid for expiry
func (c *Client) CreateSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	endpoint := fmt.Sprintf("%s/object/sign/%s/%s", c.baseURL, url.PathEscape(c.bucket), escapeKey(key))
	payload := map[string]int64{"expiresIn": int64(expiry / time.Second)}

	req, err := c.newJSONRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}

	var result struct {
		SignedURL string `json:"signedURL"`
	}
	if err := c.do(req, &result); err != nil {
		return "", fmt.Errorf("error signing %s: %w", key, err)
	}
	if result.SignedURL == "" {
		return "", fmt.Errorf("error signing %s: empty signed URL in response", key)
	}

	return c.baseURL + result.SignedURL, nil
}

// Remove deletes key. The API answers 200 with an empty list when nothing matched.
func (c *Client) Remove(ctx context.Context, key string) error {
	utils.Debug("Deleting Supabase object: %s/%s", c.bucket, key)

	endpoint := fmt.Sprintf("%s/object/%s", c.baseURL, url.PathEscape(c.bucket))
	payload := map[string][]string{"prefixes": {key}}

	req, err := c.newJSONRequest(ctx, http.MethodDelete, endpoint, payload)
	if err != nil {
		return err
	}

	var removed []FileObject
	if err := c.do(req, &removed); err != nil {
		return fmt.Errorf("error deleting %s: %w", key, err)
	}
	if len(removed) == 0 {
		return &APIError{
			HTTPStatus: http.StatusNotFound,
			Code:       "not_found",
			Message:    fmt.Sprintf("object not found: %s", key),
		}
	}

	utils.Debug("Deletion successful: %s/%s", c.bucket, key)
	return nil
}

// TestConnectivity fetches the bucket description
func (c *Client) TestConnectivity(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/bucket/%s", c.baseURL, url.PathEscape(c.bucket))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("bucket %s is not accessible: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, endpoint string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do authenticates and sends req, decoding a 2xx body into out when out is non-nil
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// escapeKey escapes each path segment of key
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
