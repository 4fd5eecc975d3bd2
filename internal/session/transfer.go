package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fishy/wrapreader"
	"github.com/google/uuid"

	"bucketctl/internal/domain"
	"bucketctl/pkg/storage"
	"bucketctl/pkg/utils"
)

// Upload sends req.LocalPath to the bucket. With the Overwrite policy a name
// conflict is retried exactly once with overwriting enabled; no other failure
// is retried.
func (s *Session) Upload(ctx context.Context, req TransferRequest) (result Uploaded, err error) {
	defer s.observe(OpUpload, time.Now(), &err)

	name := req.RemoteName
	if name == "" {
		name = filepath.Base(req.LocalPath)
	}

	client, err := s.ready(OpUpload, name)
	if err != nil {
		return Uploaded{}, err
	}

	size, err := s.putFile(ctx, client, req.LocalPath, name, false)
	if err == nil {
		utils.Debug("Uploaded %s as %s (%d bytes)", req.LocalPath, name, size)
		return Uploaded{Name: name, Size: size}, nil
	}
	if domain.KindOf(err) == domain.KindLocalIO {
		return Uploaded{}, err
	}
	if !errors.Is(err, storage.ErrAlreadyExists) || req.Policy != Overwrite {
		return Uploaded{}, remoteError(OpUpload, name, err)
	}

	utils.Debug("%s already exists, retrying with overwrite", name)
	size, err = s.putFile(ctx, client, req.LocalPath, name, true)
	if err != nil {
		if domain.KindOf(err) == domain.KindLocalIO {
			return Uploaded{}, err
		}
		return Uploaded{}, remoteError(OpUpload, name, err)
	}

	utils.Debug("Overwrote %s with %s (%d bytes)", name, req.LocalPath, size)
	return Uploaded{Name: name, Size: size, Overwritten: true}, nil
}

// putFile streams one local file to the backend. Local failures come back as
// *domain.Error, backend failures unwrapped.
func (s *Session) putFile(ctx context.Context, client storage.Client, localPath, name string, overwrite bool) (int64, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return 0, domain.NewError(domain.KindLocalIO, OpUpload, name, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return 0, domain.NewError(domain.KindLocalIO, OpUpload, name, err)
	}
	if info.IsDir() {
		file.Close()
		return 0, domain.NewError(domain.KindLocalIO, OpUpload, name, fmt.Errorf("%s is a directory", localPath))
	}

	counter := &countingReader{reader: file, onRead: func(n int) {
		s.observer.BytesTransferred(OpUpload, name, int64(n))
	}}
	body := wrapreader.Wrap(counter, file)
	defer body.Close()

	err = client.Upload(ctx, name, body, info.Size(), overwrite)
	total, readErr := counter.result()
	if readErr != nil {
		return 0, domain.NewError(domain.KindLocalIO, OpUpload, name, readErr)
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Download fetches name through a signed link into destPath. The content is
// written to a temporary sibling first and renamed into place, so a failed
// download never leaves a partial file at destPath.
func (s *Session) Download(ctx context.Context, name, destPath string) (result Downloaded, err error) {
	defer s.observe(OpDownload, time.Now(), &err)

	client, err := s.ready(OpDownload, name)
	if err != nil {
		return Downloaded{}, err
	}

	if utils.IsDirectory(destPath) {
		return Downloaded{}, domain.NewError(domain.KindLocalIO, OpDownload, name, fmt.Errorf("%s is a directory", destPath))
	}

	tmpPath := filepath.Join(filepath.Dir(destPath), fmt.Sprintf(".%s.%s.part", filepath.Base(destPath), uuid.NewString()))
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return Downloaded{}, domain.NewError(domain.KindLocalIO, OpDownload, name, err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	link, err := s.signedLink(ctx, client, name)
	if err != nil {
		return Downloaded{}, err
	}

	size, err := s.fetch(ctx, link, name, tmp)
	if err != nil {
		return Downloaded{}, err
	}

	if err := tmp.Close(); err != nil {
		return Downloaded{}, domain.NewError(domain.KindLocalIO, OpDownload, name, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return Downloaded{}, domain.NewError(domain.KindLocalIO, OpDownload, name, err)
	}
	committed = true

	utils.Debug("Downloaded %s to %s (%d bytes)", name, destPath, size)
	return Downloaded{Name: name, Path: destPath, Size: size}, nil
}

// fetch copies the body behind link into w
func (s *Session) fetch(ctx context.Context, link SignedLink, name string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		return 0, domain.NewError(domain.KindRemote, OpDownload, name, fmt.Errorf("invalid signed URL: %w", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, domain.NewError(domain.KindRemote, OpDownload, name, err)
	}

	counter := &countingReader{reader: resp.Body, onRead: func(n int) {
		s.observer.BytesTransferred(OpDownload, name, int64(n))
	}}
	body := wrapreader.Wrap(counter, resp.Body)
	defer body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, domain.NewError(domain.KindRemote, OpDownload, name, fmt.Errorf("download failed with status %s", resp.Status))
	}

	dst := &errWriter{writer: w}
	if _, err := io.Copy(dst, body); err != nil {
		if dst.err != nil {
			return 0, domain.NewError(domain.KindLocalIO, OpDownload, name, dst.err)
		}
		return 0, domain.NewError(domain.KindRemote, OpDownload, name, err)
	}
	total, _ := counter.result()
	return total, nil
}

// countingReader counts bytes and remembers the first non-EOF read error.
// HTTP transports may read request bodies from their own goroutine.
type countingReader struct {
	reader io.Reader
	onRead func(int)

	mu    sync.Mutex
	total int64
	err   error
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)

	r.mu.Lock()
	r.total += int64(n)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	r.mu.Unlock()

	if n > 0 && r.onRead != nil {
		r.onRead(n)
	}
	return n, err
}

func (r *countingReader) result() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.err
}

// errWriter remembers the first write error
type errWriter struct {
	writer io.Writer
	err    error
}

func (w *errWriter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	if err != nil && w.err == nil {
		w.err = err
	}
	return n, err
}
