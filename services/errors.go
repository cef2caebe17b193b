// services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Validation codes returned to clients.
const (
	CodeDistanceViolation = "DISTANCE_VIOLATION"
	CodeDurationViolation = "DURATION_VIOLATION"
	CodePaceViolation     = "PACE_VIOLATION"
)

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrRunNotFound           = errors.New("run not found")
	ErrUserNotFound          = errors.New("user not found with this email")
	ErrSelfFriendRequest     = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends        = errors.New("already friends with this user")
	ErrFriendRequestPending  = errors.New("friend request already pending")
	ErrFriendRequestNotFound = errors.New("friend request not found or already processed")
	ErrSeedingDisabled       = errors.New("test data seeding is disabled")
)

// ValidationError rejects a request before anything is written.
type ValidationError struct {
	Code    string
	Message string
	Details string
}

func (e *ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DependencyError wraps a failing call to the store or another collaborator.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

func dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DependencyError{Op: op, Err: err}
}
