package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()

	require.NoError(t, mock.Upload(ctx, "a.txt", bytes.NewReader([]byte("one")), 3, false))

	err := mock.Upload(ctx, "a.txt", bytes.NewReader([]byte("two")), 3, false)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, mock.Upload(ctx, "a.txt", bytes.NewReader([]byte("two")), 3, true))
	data, ok := mock.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "two", string(data))

	objects, err := mock.ListObjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, int64(3), objects[0].Size)

	require.NoError(t, mock.DeleteObject(ctx, "a.txt"))
	assert.ErrorIs(t, mock.DeleteObject(ctx, "a.txt"), ErrNotFound)
	assert.Equal(t, 3, mock.Calls("upload"))
	assert.Equal(t, 2, mock.Calls("delete"))
}

func TestMockClientServesSignedURL(t *testing.T) {
	mock := NewMockClient()
	srv := httptest.NewServer(mock)
	defer srv.Close()
	mock.BaseURL = srv.URL
	mock.Put("dir/a b.txt", []byte("payload"))

	signed, err := mock.SignedURL(context.Background(), "dir/a b.txt", time.Minute)
	require.NoError(t, err)

	resp, err := http.Get(signed)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "payload", string(body))
}

func TestMockClientExpiredLink(t *testing.T) {
	mock := NewMockClient()
	srv := httptest.NewServer(mock)
	defer srv.Close()
	mock.BaseURL = srv.URL
	mock.Put("a.txt", []byte("x"))

	signed, err := mock.SignedURL(context.Background(), "a.txt", -time.Minute)
	require.NoError(t, err)

	resp, err := http.Get(signed)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMockClientFault(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockClient()
	mock.Fault = func(op, key string) error {
		if op == "list" {
			return boom
		}
		return nil
	}

	_, err := mock.ListObjects(context.Background(), "")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.TestConnectivity(context.Background()))
}
