package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrTranscriptNotFound is returned when no saved transcript matches an id
	ErrTranscriptNotFound = errors.New("transcript not found")
	// ErrAmbiguousID is returned when an id prefix matches more than one transcript
	ErrAmbiguousID = errors.New("ambiguous transcript id")
)

// RequestError represents a non-2xx response from the RAG service
type RequestError struct {
	Endpoint   string
	StatusCode int
	Message    string // "error" field of the response body, if any
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request error: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request error: %s returned %d", e.Endpoint, e.StatusCode)
}

// TransportError represents a network, encoding or decoding failure
type TransportError struct {
	Endpoint string
	Op       string // "encode", "send", "decode"
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StoreError represents errors reading or writing the history database
type StoreError struct {
	Op  string // "open", "migrate", "save", "load", "list", "delete"
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store error: %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
