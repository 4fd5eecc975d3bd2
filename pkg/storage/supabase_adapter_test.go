package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseAdapterTranslatesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/storage/v1/object/list/"):
			_, _ = w.Write([]byte(`[{"name":"a.txt","id":"1","updated_at":"2024-05-01T10:00:00.000Z","metadata":{"size":42}}]`))
		case strings.HasPrefix(r.URL.Path, "/storage/v1/bucket/"):
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":"404","error":"Bucket not found","message":"Bucket not found"}`))
		case r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`))
		}
	}))
	defer srv.Close()

	adapter, err := NewSupabaseAdapter(srv.URL, "key", "files")
	require.NoError(t, err)
	ctx := context.Background()

	err = adapter.Upload(ctx, "a.txt", strings.NewReader("x"), 1, false)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	assert.ErrorIs(t, adapter.DeleteObject(ctx, "ghost"), ErrNotFound)
	assert.ErrorIs(t, adapter.TestConnectivity(ctx), ErrNotFound)

	objects, err := adapter.ListObjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "a.txt", objects[0].Key)
	assert.Equal(t, int64(42), objects[0].Size)
	assert.Equal(t, 2024, objects[0].LastModified.Year())
}
