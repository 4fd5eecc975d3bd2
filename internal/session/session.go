// Package session holds the connection to one storage bucket and runs the
// list, upload, download and delete operations against it.
//
// Every failure crossing this package is a *domain.Error so callers can tell
// configuration, connection, remote and local file problems apart.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bucketctl/internal/domain"
	"bucketctl/pkg/storage"
	"bucketctl/pkg/utils"
)

// ClientFactory builds a backend client for a connection
type ClientFactory func(storage.Connection) (storage.Client, error)

// Options configures a Session. The zero value is usable.
type Options struct {
	// HTTPClient fetches signed download links. Defaults to a client without
	// timeout; the operation context bounds each request.
	HTTPClient *http.Client
	// Observer receives operation outcomes and transferred bytes
	Observer Observer
	// NewClient defaults to storage.NewStorageClient
	NewClient ClientFactory
}

// Session is the connection to a bucket. It is safe for concurrent use; the
// lock only guards the client, operations run in parallel.
type Session struct {
	httpClient *http.Client
	observer   Observer
	newClient  ClientFactory

	mu     sync.RWMutex
	conn   storage.Connection
	client storage.Client
}

// New creates a disconnected session
func New(opts Options) *Session {
	s := &Session{
		httpClient: opts.HTTPClient,
		observer:   opts.Observer,
		newClient:  opts.NewClient,
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{}
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.newClient == nil {
		s.newClient = storage.NewStorageClient
	}
	return s
}

// Connect validates conn, builds the backend client and checks that the
// bucket is reachable. On failure the session is left disconnected.
func (s *Session) Connect(ctx context.Context, conn storage.Connection) (err error) {
	defer s.observe(OpConnect, time.Now(), &err)

	s.disconnect()

	if err := conn.Validate(); err != nil {
		return domain.NewError(domain.KindConfig, OpConnect, "", err)
	}

	client, err := s.newClient(conn)
	if err != nil {
		return domain.NewError(domain.KindConfig, OpConnect, "", err)
	}

	utils.Debug("Testing connectivity to %s (bucket %s, provider %s)", conn.EndpointURL, conn.Bucket, conn.Type())
	if err := client.TestConnectivity(ctx); err != nil {
		return domain.NewError(domain.KindConnection, OpConnect, "", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.client = client
	s.mu.Unlock()

	utils.Info("Connected to bucket %s", conn.Bucket)
	return nil
}

// State reports whether the session is connected
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return Disconnected
	}
	return Ready
}

// Connection returns the connection of a ready session
func (s *Session) Connection() (storage.Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn, s.client != nil
}

func (s *Session) disconnect() {
	s.mu.Lock()
	s.conn = storage.Connection{}
	s.client = nil
	s.mu.Unlock()
}

// ready returns the client or a connection error naming op
func (s *Session) ready(op, name string) (storage.Client, error) {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	if client == nil {
		return nil, domain.NewError(domain.KindConnection, op, name, domain.ErrNotConnected)
	}
	return client, nil
}

func (s *Session) observe(op string, start time.Time, err *error) {
	s.observer.OperationFinished(op, *err, time.Since(start))
}

// ListFiles returns a snapshot of the bucket
func (s *Session) ListFiles(ctx context.Context) (listing *Listing, err error) {
	defer s.observe(OpList, time.Now(), &err)

	client, err := s.ready(OpList, "")
	if err != nil {
		return nil, err
	}

	objects, err := client.ListObjects(ctx, "")
	if err != nil {
		return nil, remoteError(OpList, "", err)
	}

	listing = &Listing{objects: make([]RemoteObject, 0, len(objects))}
	for _, obj := range objects {
		listing.objects = append(listing.objects, RemoteObject{
			Name:         obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	utils.Debug("Listed %d objects in bucket", len(listing.objects))
	return listing, nil
}

// Delete removes name from the bucket. A missing object is a remote error
// wrapping storage.ErrNotFound.
func (s *Session) Delete(ctx context.Context, name string) (result Deleted, err error) {
	defer s.observe(OpDelete, time.Now(), &err)

	client, err := s.ready(OpDelete, name)
	if err != nil {
		return Deleted{}, err
	}

	if err := client.DeleteObject(ctx, name); err != nil {
		return Deleted{}, remoteError(OpDelete, name, err)
	}

	utils.Debug("Deleted %s", name)
	return Deleted{Name: name}, nil
}

// SignedLink returns a read link for name valid for SignedLinkExpiry
func (s *Session) SignedLink(ctx context.Context, name string) (SignedLink, error) {
	client, err := s.ready(OpDownload, name)
	if err != nil {
		return SignedLink{}, err
	}
	return s.signedLink(ctx, client, name)
}

func (s *Session) signedLink(ctx context.Context, client storage.Client, name string) (SignedLink, error) {
	issued := time.Now()
	url, err := client.SignedURL(ctx, name, SignedLinkExpiry)
	if err != nil {
		return SignedLink{}, remoteError(OpDownload, name, err)
	}
	if url == "" {
		return SignedLink{}, domain.NewError(domain.KindRemote, OpDownload, name, fmt.Errorf("backend returned an empty signed URL"))
	}
	return SignedLink{URL: url, ExpiresAt: issued.Add(SignedLinkExpiry)}, nil
}

// remoteError classifies a backend failure
func remoteError(op, name string, err error) error {
	if errors.Is(err, storage.ErrAlreadyExists) {
		return domain.NewError(domain.KindAlreadyExists, op, name, err)
	}
	return domain.NewError(domain.KindRemote, op, name, err)
}
