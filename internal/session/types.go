package session

import (
	"fmt"
	"iter"
	"sync/atomic"
	"time"
)

// Operation names reported to observers and carried by errors
const (
	OpConnect  = "connect"
	OpList     = "list"
	OpUpload   = "upload"
	OpDownload = "download"
	OpDelete   = "delete"
)

// SignedLinkExpiry is the lifetime of every download link
const SignedLinkExpiry = 60 * time.Second

// State is the connection state of a Session
type State int

const (
	Disconnected State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "disconnected"
}

// ConflictPolicy decides what an upload does when the name is taken
type ConflictPolicy int

const (
	// Fail reports the conflict. It is the zero value.
	Fail ConflictPolicy = iota
	// Overwrite retries once with the backend's overwrite flag.
	Overwrite
)

func (p ConflictPolicy) String() string {
	if p == Overwrite {
		return "overwrite"
	}
	return "fail"
}

// RemoteObject is one entry of the bucket
type RemoteObject struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// Listing is a snapshot of the bucket that can be iterated once
type Listing struct {
	objects []RemoteObject
	used    atomic.Bool
}

// Len returns the number of objects in the snapshot
func (l *Listing) Len() int {
	return len(l.objects)
}

// All yields the objects in backend order. Only the first iteration yields
// anything.
func (l *Listing) All() iter.Seq[RemoteObject] {
	return func(yield func(RemoteObject) bool) {
		if l.used.Swap(true) {
			return
		}
		for _, obj := range l.objects {
			if !yield(obj) {
				return
			}
		}
	}
}

func (l *Listing) String() string {
	return fmt.Sprintf("Listed %d files", len(l.objects))
}

// TransferRequest describes one upload
type TransferRequest struct {
	LocalPath string
	// RemoteName defaults to the base name of LocalPath
	RemoteName string
	Policy     ConflictPolicy
}

// SignedLink is a short-lived read URL for one object
type SignedLink struct {
	URL       string
	ExpiresAt time.Time
}

// Expired reports whether the link can no longer be used
func (l SignedLink) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Uploaded is the result of a successful upload
type Uploaded struct {
	Name        string
	Size        int64
	Overwritten bool
}

func (u Uploaded) String() string {
	if u.Overwritten {
		return fmt.Sprintf("Uploaded (overwritten): %s", u.Name)
	}
	return fmt.Sprintf("Uploaded: %s", u.Name)
}

// Downloaded is the result of a successful download
type Downloaded struct {
	Name string
	Path string
	Size int64
}

func (d Downloaded) String() string {
	return fmt.Sprintf("Downloaded: %s -> %s", d.Name, d.Path)
}

// Deleted is the result of a successful delete
type Deleted struct {
	Name string
}

func (d Deleted) String() string {
	return fmt.Sprintf("Deleted: %s", d.Name)
}

// Observer receives operation outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	OperationFinished(op string, err error, elapsed time.Duration)
	BytesTransferred(op, name string, n int64)
}

type nopObserver struct{}

func (nopObserver) OperationFinished(string, error, time.Duration) {}
func (nopObserver) BytesTransferred(string, string, int64)         {}
