package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Make sure *MockClient satisfies Client and serves its own signed URLs.
var (
	_ Client       = (*MockClient)(nil)
	_ http.Handler = (*MockClient)(nil)
)

const mockSignedPrefix = "/signed/"

type mockObject struct {
	data    []byte
	modTime time.Time
}

// MockClient is an in-memory Client for tests.
//
// Signed URLs point at BaseURL and are served by ServeHTTP, so a test can run
// it behind httptest.NewServer and set BaseURL to the server's URL.
type MockClient struct {
	BaseURL string

	// Fault, when set, is consulted before every operation. A non-nil return
	// value fails the operation with that error.
	Fault func(op, key string) error

	mu      sync.Mutex
	objects map[string]mockObject
	calls   map[string]int
	now     func() time.Time
}

// NewMockClient creates an empty in-memory bucket
func NewMockClient() *MockClient {
	return &MockClient{
		objects: make(map[string]mockObject),
		calls:   make(map[string]int),
		now:     time.Now,
	}
}

// Calls returns how many times op ("upload", "sign", "delete", "list", "connect") was invoked
func (m *MockClient) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Put stores data directly, bypassing Upload
func (m *MockClient) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = mockObject{data: append([]byte(nil), data...), modTime: m.now()}
}

// Get returns the stored data for key
func (m *MockClient) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj.data, ok
}

func (m *MockClient) begin(op, key string) error {
	m.mu.Lock()
	m.calls[op]++
	fault := m.Fault
	m.mu.Unlock()

	if fault != nil {
		return fault(op, key)
	}
	return nil
}

// Upload implements Client
func (m *MockClient) Upload(ctx context.Context, key string, body io.Reader, size int64, overwrite bool) error {
	if err := m.begin("upload", key); err != nil {
		return err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("error reading upload body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[key]; exists && !overwrite {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, key)
	}
	m.objects[key] = mockObject{data: data, modTime: m.now()}
	return nil
}

// SignedURL implements Client
func (m *MockClient) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := m.begin("sign", key); err != nil {
		return "", err
	}

	m.mu.Lock()
	_, exists := m.objects[key]
	m.mu.Unlock()
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	expires := m.now().Add(expiry).Unix()
	return fmt.Sprintf("%s%s%s?expires=%d", m.BaseURL, mockSignedPrefix, url.PathEscape(key), expires), nil
}

// DeleteObject implements Client
func (m *MockClient) DeleteObject(ctx context.Context, key string) error {
	if err := m.begin("delete", key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[key]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(m.objects, key)
	return nil
}

// ListObjects implements Client
func (m *MockClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := m.begin("list", prefix); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objects := make([]ObjectInfo, 0, len(m.objects))
	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.modTime})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// TestConnectivity implements Client
func (m *MockClient) TestConnectivity(ctx context.Context) error {
	return m.begin("connect", "")
}

// ServeHTTP serves GET requests for URLs produced by SignedURL
func (m *MockClient) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, mockSignedPrefix) {
		http.NotFound(w, r)
		return
	}

	expires, err := strconv.ParseInt(r.URL.Query().Get("expires"), 10, 64)
	if err != nil || m.now().Unix() > expires {
		http.Error(w, "signed URL expired", http.StatusForbidden)
		return
	}

	data, ok := m.Get(strings.TrimPrefix(r.URL.Path, mockSignedPrefix))
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
