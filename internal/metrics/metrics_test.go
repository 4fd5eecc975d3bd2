package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketctl/internal/domain"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{domain.NewError(domain.KindConfig, "connect", "", errors.New("x")), "config_error"},
		{domain.NewError(domain.KindConnection, "list", "", errors.New("x")), "connection_error"},
		{domain.NewError(domain.KindAlreadyExists, "upload", "a", errors.New("x")), "already_exists"},
		{domain.NewError(domain.KindLocalIO, "download", "a", errors.New("x")), "local_io_error"},
		{domain.NewError(domain.KindRemote, "delete", "a", errors.New("x")), "remote_error"},
		{errors.New("plain"), "remote_error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Result(tt.err))
		})
	}
}

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.OperationFinished("upload", nil, 20*time.Millisecond)
	r.OperationFinished("upload", nil, 30*time.Millisecond)
	r.OperationFinished("upload", domain.NewError(domain.KindAlreadyExists, "upload", "a", errors.New("x")), time.Millisecond)
	r.BytesTransferred("upload", "a", 100)
	r.BytesTransferred("upload", "b", 28)
	r.BytesTransferred("download", "a", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operationsTotal.WithLabelValues("upload", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operationsTotal.WithLabelValues("upload", "already_exists")))
	assert.Equal(t, 128.0, testutil.ToFloat64(r.transferBytesTotal.WithLabelValues("upload")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.transferBytesTotal.WithLabelValues("download")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.operationDurationSeconds))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.OperationFinished("list", nil, time.Millisecond)

	path := filepath.Join(t.TempDir(), "bucketctl.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.Contains(content, `bucketctl_operations_total{op="list",result="success"} 1`))
	assert.Contains(t, content, "bucketctl_operation_duration_seconds_bucket")
}

func TestWriteTextfileBadPath(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "bucketctl.prom"))
	assert.Error(t, err)
}
