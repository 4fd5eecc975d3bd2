// Package app wires the connection file, the session, the dispatcher and the
// metrics recorder together and runs batch commands on top of them.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fishy/errbatch"
	"golang.org/x/sync/errgroup"

	"bucketctl/internal/configstore"
	"bucketctl/internal/dispatch"
	"bucketctl/internal/domain"
	"bucketctl/internal/metrics"
	"bucketctl/internal/session"
	"bucketctl/pkg/storage"
	"bucketctl/pkg/utils"
)

// ReportFunc receives the outcome of each item of a batch as it finishes
type ReportFunc func(item string, result fmt.Stringer, err error)

// Options configures an App
type Options struct {
	// ConfigPath defaults to configstore.DefaultPath()
	ConfigPath string
	// Settings defaults to the built-in defaults
	Settings *utils.Settings
	// Report is called once per batch item; nil discards outcomes
	Report ReportFunc

	// NewClient and HTTPClient are passed through to the session
	NewClient  session.ClientFactory
	HTTPClient *http.Client
}

// App is the handle every command works through
type App struct {
	configPath string
	settings   *utils.Settings
	report     ReportFunc

	session    *session.Session
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Recorder

	progress   atomic.Pointer[utils.ProgressBar]
	reportMu   sync.Mutex
	closeOnce  sync.Once
	closeError error
}

// New builds a disconnected App
func New(opts Options) (*App, error) {
	settings := opts.Settings
	if settings == nil {
		loaded, err := utils.LoadSettings("")
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = configstore.DefaultPath()
	}

	a := &App{
		configPath: configPath,
		settings:   settings,
		report:     opts.Report,
		dispatcher: dispatch.New(),
		metrics:    metrics.NewRecorder(),
	}

	a.session = session.New(session.Options{
		HTTPClient: opts.HTTPClient,
		Observer:   a,
		NewClient:  opts.NewClient,
	})

	return a, nil
}

// Open builds an App, reads the connection file and connects
func Open(ctx context.Context, opts Options) (*App, error) {
	a, err := New(opts)
	if err != nil {
		return nil, err
	}

	conn, err := configstore.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	if err := a.Connect(ctx, conn); err != nil {
		return nil, err
	}
	return a, nil
}

// Connect (re)connects the session, bounded by the configured timeout
func (a *App) Connect(ctx context.Context, conn storage.Connection) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.session.Connect(ctx, conn)
}

// ConfigPath returns the connection file location
func (a *App) ConfigPath() string {
	return a.configPath
}

// Settings returns the application settings
func (a *App) Settings() *utils.Settings {
	return a.settings
}

// Session returns the underlying session
func (a *App) Session() *session.Session {
	return a.session
}

// Metrics returns the metrics recorder
func (a *App) Metrics() *metrics.Recorder {
	return a.metrics
}

// TrackProgress forwards transferred bytes to bar until it is replaced; nil stops tracking
func (a *App) TrackProgress(bar *utils.ProgressBar) {
	a.progress.Store(bar)
}

// OperationFinished implements session.Observer
func (a *App) OperationFinished(op string, err error, elapsed time.Duration) {
	a.metrics.OperationFinished(op, err, elapsed)
	if err != nil {
		utils.Debug("%s failed after %s: %v", op, elapsed, err)
	}
}

// BytesTransferred implements session.Observer
func (a *App) BytesTransferred(op, name string, n int64) {
	a.metrics.BytesTransferred(op, name, n)
	if bar := a.progress.Load(); bar != nil {
		bar.Add(n)
	}
}

// Close waits for running tasks and writes the metrics textfile when configured
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.dispatcher.Wait()

		if path := a.settings.Metrics.File; path != "" {
			if err := a.metrics.WriteTextfile(path); err != nil {
				a.closeError = err
				return
			}
			utils.Debug("Metrics written to %s", path)
		}
	})
	return a.closeError
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := a.settings.Transfer.Timeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// List returns a fresh snapshot of the bucket
func (a *App) List(ctx context.Context) (*session.Listing, error) {
	return run(ctx, a, session.OpList, "", a.session.ListFiles)
}

// Upload sends one file
func (a *App) Upload(ctx context.Context, req session.TransferRequest) (session.Uploaded, error) {
	name := req.RemoteName
	if name == "" {
		name = filepath.Base(req.LocalPath)
	}
	return run(ctx, a, session.OpUpload, name, func(ctx context.Context) (session.Uploaded, error) {
		return a.session.Upload(ctx, req)
	})
}

// UploadAll uploads paths in parallel. remoteName renames a single file and
// must be empty when several paths are given.
//
// With several failures the returned error is an *errbatch.ErrBatch, which
// does not unwrap: domain.KindOf and errors.Is only see single failures.
func (a *App) UploadAll(ctx context.Context, paths []string, remoteName string, policy session.ConflictPolicy) error {
	if remoteName != "" && len(paths) != 1 {
		return domain.NewError(domain.KindConfig, session.OpUpload, remoteName, fmt.Errorf("a remote name can only be given for a single file"))
	}

	return batch(ctx, a, paths, func(ctx context.Context, path string) (fmt.Stringer, error) {
		result, err := a.Upload(ctx, session.TransferRequest{LocalPath: path, RemoteName: remoteName, Policy: policy})
		return result, err
	})
}

// Download fetches one object to destPath
func (a *App) Download(ctx context.Context, name, destPath string) (session.Downloaded, error) {
	return run(ctx, a, session.OpDownload, name, func(ctx context.Context) (session.Downloaded, error) {
		return a.session.Download(ctx, name, destPath)
	})
}

// DownloadAll downloads names in parallel. dest is a file path for a single
// name and a directory (created if needed) for several; empty dest uses the
// configured download directory. Names that would land on a local path
// already claimed by an earlier name fail with a local I/O error and are not
// fetched.
//
// With several failures the returned error is an *errbatch.ErrBatch, which
// does not unwrap: domain.KindOf and errors.Is only see single failures.
func (a *App) DownloadAll(ctx context.Context, names []string, dest string) error {
	if len(names) > 1 && dest != "" {
		if err := utils.EnsureDirectory(dest); err != nil {
			return domain.NewError(domain.KindLocalIO, session.OpDownload, "", err)
		}
		dest += string(os.PathSeparator)
	}

	targets := make(map[string]string, len(names))
	claimedBy := make(map[string]string, len(names))
	for _, name := range names {
		target := utils.ResolveDownloadPath(dest, a.settings.Transfer.DownloadDir, name)
		targets[name] = target
		if _, ok := claimedBy[target]; !ok {
			claimedBy[target] = name
		}
	}

	return batch(ctx, a, names, func(ctx context.Context, name string) (fmt.Stringer, error) {
		target := targets[name]
		if owner := claimedBy[target]; owner != name {
			return nil, domain.NewError(domain.KindLocalIO, session.OpDownload, name,
				fmt.Errorf("%s is also the destination of %s", target, owner))
		}
		result, err := a.Download(ctx, name, target)
		return result, err
	})
}

// Delete removes one object
func (a *App) Delete(ctx context.Context, name string) (session.Deleted, error) {
	return run(ctx, a, session.OpDelete, name, func(ctx context.Context) (session.Deleted, error) {
		return a.session.Delete(ctx, name)
	})
}

// DeleteAll removes names in parallel.
//
// With several failures the returned error is an *errbatch.ErrBatch, which
// does not unwrap: domain.KindOf and errors.Is only see single failures.
func (a *App) DeleteAll(ctx context.Context, names []string) error {
	return batch(ctx, a, names, func(ctx context.Context, name string) (fmt.Stringer, error) {
		result, err := a.Delete(ctx, name)
		return result, err
	})
}

// run executes fn as a dispatched task keyed by name under the configured
// timeout. Failures always come back as *domain.Error.
func run[T any](ctx context.Context, a *App, op, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	value, err := dispatch.Run(ctx, a.dispatcher, name, fn)
	if err != nil && domain.KindOf(err) == domain.KindUnknown {
		err = domain.NewError(domain.KindRemote, op, name, err)
	}
	return value, err
}

// batch runs fn for every item, at most transfer.parallel at a time. Every
// item runs even when others fail; the failures are compiled into one error,
// returned as is when there is only one.
func batch(ctx context.Context, a *App, items []string, fn func(context.Context, string) (fmt.Stringer, error)) error {
	var g errgroup.Group
	g.SetLimit(a.settings.Transfer.Parallel)

	var mu sync.Mutex
	var failures errbatch.ErrBatch

	for _, item := range items {
		g.Go(func() error {
			result, err := fn(ctx, item)
			a.emit(item, result, err)
			if err != nil {
				mu.Lock()
				failures.Add(err)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return failures.Compile()
}

func (a *App) emit(item string, result fmt.Stringer, err error) {
	if a.report == nil {
		return
	}
	a.reportMu.Lock()
	defer a.reportMu.Unlock()
	a.report(item, result, err)
}
