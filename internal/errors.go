package internal

import (
	"errors"
	"fmt"
)

// ErrExtractionEmpty is reported when an extraction found no messages
var ErrExtractionEmpty = errors.New("no conversation found")

// StorageError represents errors accessing the key-value store
type StorageError struct {
	Path string
	Op   string // "open", "get", "set", "migrate"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing data
type ParseError struct {
	Source string // "html", "backend", "bridge"
	Key    string // field, subject or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError means the page context could not be reached: no agent
// loaded for the tab, tab closed, or navigation mid-flight. It is distinct
// from an extraction that ran and found nothing.
type TransportError struct {
	TabID string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error [tab %s]: %v", e.TabID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExtractionError represents a failure inside a provider extractor
type ExtractionError struct {
	Provider Provider
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error [%s]: %v", e.Provider, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// BackendError is a non-success HTTP response from the processing service
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// NetworkError means the processing service could not be reached
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error [%s]: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ClipboardError represents a failed copy
type ClipboardError struct {
	Target string
	Err    error
}

func (e *ClipboardError) Error() string {
	return fmt.Sprintf("clipboard error [%s]: %v", e.Target, e.Err)
}

func (e *ClipboardError) Unwrap() error {
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
