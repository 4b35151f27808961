// Package apperr holds the error taxonomy shared by the store client, the
// metadata client and the flow controllers.
package apperr

import (
	"errors"
	"fmt"
)

// RemoteError reports a failed call to the liked-movie/recommendation store.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote store %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Remote wraps err as a RemoteError; nil stays nil.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}

// MetadataError reports a failed metadata API call. Status is zero when no
// HTTP response was received.
type MetadataError struct {
	Op     string
	Status int
	Err    error
}

func (e *MetadataError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("metadata %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("metadata %s: %v", e.Op, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// ValidationError is a request the server refuses before doing any I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

var (
	ErrEmptyQuery = &ValidationError{Field: "query", Message: "search query is empty"}
	ErrAnonymous  = &ValidationError{Field: "user", Message: "sign in required"}
)

// IsRemote reports whether err is or wraps a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsMetadata reports whether err is or wraps a MetadataError.
func IsMetadata(err error) bool {
	var me *MetadataError
	return errors.As(err, &me)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
