// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrNoActivePlaylist is returned when switching to the playlist source
	// while no stored playlist backs the playlist queue.
	ErrNoActivePlaylist = errors.New("no active playlist")

	// ErrQueueEmpty is returned when queue operations are attempted on an empty queue.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrInvalidIndex is returned when a queue index is out of bounds.
	ErrInvalidIndex = errors.New("invalid queue index")

	// ErrInvalidSource is returned for an unknown queue source.
	ErrInvalidSource = errors.New("invalid queue source")

	// ErrPlaylistNotFound is returned when a stored playlist does not exist.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrDuplicateTrack is returned when a track is already stored in a playlist.
	ErrDuplicateTrack = errors.New("track already exists in playlist")

	// ErrTrackNotFound is returned when a requested track cannot be found.
	ErrTrackNotFound = errors.New("track not found")

	// ErrMissingTrackID is returned when a track without an ID is resolved.
	ErrMissingTrackID = errors.New("track has no id")

	// ErrMissingStreamURL is returned when a backend answers without a playable URL.
	ErrMissingStreamURL = errors.New("response missing audio url")

	// ErrNoBackend is returned when no resolution backend handles a track.
	ErrNoBackend = errors.New("no backend for track")

	// ErrEngineClosed is returned when the engine has been shut down.
	ErrEngineClosed = errors.New("engine closed")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrNotAuthenticated is returned by sinks that need credentials.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ResolutionError is returned when a track cannot be turned into a playable URL.
// The play request is aborted and no state is mutated.
type ResolutionError struct {
	TrackID string // Track that failed to resolve
	Err     error  // Underlying cause
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve track '%s' failed: %v", e.TrackID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NewResolutionError creates a new ResolutionError.
func NewResolutionError(trackID string, err error) *ResolutionError {
	return &ResolutionError{
		TrackID: trackID,
		Err:     err,
	}
}

// EngineSyncError is returned when an engine primitive fails mid-sync.
// The store is left in a well-defined safe state before it is returned.
type EngineSyncError struct {
	Op  string // Engine operation that failed (e.g., "skip", "add", "reset")
	Err error  // Underlying engine error
}

// Error implements the error interface.
func (e *EngineSyncError) Error() string {
	return fmt.Sprintf("engine %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineSyncError) Unwrap() error {
	return e.Err
}

// NewEngineSyncError creates a new EngineSyncError.
func NewEngineSyncError(op string, err error) *EngineSyncError {
	return &EngineSyncError{
		Op:  op,
		Err: err,
	}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load", "delete")
	Type    string // Repository type (e.g., "state", "playlist", "recent")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "Synchronizer", "PlaylistService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
