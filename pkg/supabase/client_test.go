package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "secret-key", "files")
	require.NoError(t, err)
	return client
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient("not-a-url", "k", "b")
	assert.Error(t, err)
}

func TestUploadSendsAuthAndUpsert(t *testing.T) {
	var gotPath, gotAuth, gotKey, gotUpsert, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotUpsert = r.Header.Get("x-upsert")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Key":"files/a b.txt"}`))
	})

	err := client.Upload(context.Background(), "dir/a b.txt", strings.NewReader("hello"), 5, true)
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/files/dir/a%20b.txt", gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "true", gotUpsert)
	assert.Equal(t, "hello", gotBody)
}

func TestUploadEmptyFileHasZeroContentLength(t *testing.T) {
	var gotLength int64 = -1
	var gotEncoding []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
		gotEncoding = r.TransferEncoding
		w.WriteHeader(http.StatusOK)
	})

	// MultiReader hides the concrete type so net/http cannot infer the length
	err := client.Upload(context.Background(), "empty.txt", io.MultiReader(), 0, false)
	require.NoError(t, err)

	assert.Equal(t, int64(0), gotLength)
	assert.Empty(t, gotEncoding)
}

func TestUploadConflictIsStructured(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"legacy 400 with string code", http.StatusBadRequest, `{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`},
		{"plain 409", http.StatusConflict, `{"statusCode":409,"error":"Conflict","message":"exists"}`},
		{"duplicate code only", http.StatusBadRequest, `{"error":"Duplicate","message":"something else"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Empty(t, r.Header.Get("x-upsert"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.Upload(context.Background(), "a.txt", strings.NewReader("x"), 1, false)
			require.Error(t, err)
			assert.True(t, IsConflict(err))
			assert.False(t, IsNotFound(err))
		})
	}
}

func TestListObjectsPaginates(t *testing.T) {
	var offsets []int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/list/files", r.URL.Path)

		var payload struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		offsets = append(offsets, payload.Offset)

		count := payload.Limit
		if payload.Offset > 0 {
			count = 3
		}
		page := make([]map[string]any, count)
		for i := range page {
			page[i] = map[string]any{
				"name":     fmt.Sprintf("f%03d", payload.Offset+i),
				"id":       "id",
				"metadata": map[string]any{"size": 10},
			}
		}
		_ = json.NewEncoder(w).Encode(page)
	})

	objects, err := client.ListObjects(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, objects, listPageSize+3)
	assert.Equal(t, []int{0, listPageSize}, offsets)
	assert.Equal(t, int64(10), objects[0].Metadata.Size)
}

func TestListObjectsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	objects, err := client.ListObjects(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestCreateSignedURL(t *testing.T) {
	var expiresIn int64
	var base string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/sign/files/a.txt", r.URL.Path)
		var payload map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		expiresIn = payload["expiresIn"]
		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/files/a.txt?token=abc"}`))
	})
	base = client.baseURL

	signed, err := client.CreateSignedURL(context.Background(), "a.txt", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(60), expiresIn)
	assert.Equal(t, base+"/object/sign/files/a.txt?token=abc", signed)
}

func TestRemoveMissingIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = w.Write([]byte(`[]`))
	})

	err := client.Remove(context.Background(), "ghost.txt")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRemoveExisting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, []string{"a.txt"}, payload["prefixes"])
		_, _ = w.Write([]byte(`[{"name":"a.txt"}]`))
	})

	assert.NoError(t, client.Remove(context.Background(), "a.txt"))
}

func TestConnectivityUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/bucket/files", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":"403","error":"Unauthorized","message":"invalid signature"}`))
	})

	err := client.TestConnectivity(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "invalid signature")
}

func TestNonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	err := client.TestConnectivity(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
	assert.False(t, IsConflict(err))
}
