package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoConfig         = errors.New("no config found")
	ErrIncompleteConfig = errors.New("config file is missing values")
	ErrNotConnected     = errors.New("session is not connected")
)

// Kind classifies a failure so the presentation layer can render it.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindConnection
	KindRemote
	// KindAlreadyExists is the "already exists" subdivision of KindRemote.
	KindAlreadyExists
	KindLocalIO
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config error"
	case KindConnection:
		return "connection error"
	case KindRemote:
		return "remote error"
	case KindAlreadyExists:
		return "already exists"
	case KindLocalIO:
		return "local I/O error"
	default:
		return "unknown error"
	}
}

// Error is the failure type returned across the session boundary.
type Error struct {
	Kind Kind
	Op   string
	Name string
	Err  error
}

// NewError wraps err with a kind, the failing operation and the object name (may be empty).
func NewError(kind Kind, op, name string, err error) *Error {
	return &Error{Kind: kind, Op: op, Name: name, Err: err}
}

func (e *Error) Error() string {
	prefix := e.Op
	if e.Name != "" {
		prefix = fmt.Sprintf("%s %s", e.Op, e.Name)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRemote reports whether err is a RemoteError, including the "already exists" subdivision.
func IsRemote(err error) bool {
	k := KindOf(err)
	return k == KindRemote || k == KindAlreadyExists
}

// Describe renders err as a single status line for the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return fmt.Sprintf("Error: %v", err)
	}

	cause := "unknown cause"
	if e.Err != nil {
		cause = e.Err.Error()
	}

	switch e.Kind {
	case KindConfig:
		return fmt.Sprintf("Configuration error: %s", cause)
	case KindConnection:
		return fmt.Sprintf("Connection failed: %s", cause)
	case KindAlreadyExists:
		return fmt.Sprintf("File already exists: %s", e.Name)
	case KindLocalIO:
		if e.Op == "download" {
			return fmt.Sprintf("Access to path denied: %s", cause)
		}
		return fmt.Sprintf("Local file error: %s", cause)
	case KindRemote:
		if e.Name == "" {
			return fmt.Sprintf("Error %s files: %s", verb(e.Op), cause)
		}
		return fmt.Sprintf("Error %s file %s: %s", verb(e.Op), e.Name, cause)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func verb(op string) string {
	switch op {
	case "upload":
		return "uploading"
	case "download":
		return "downloading"
	case "delete":
		return "deleting"
	case "list":
		return "listing"
	default:
		return op
	}
}
