// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrExpired      = errors.New("expired")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUnresolvedRef    = errors.New("unresolved reference")
	ErrTimeout          = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "scoring", "ranking", "metrics"
	Op      string // Operation that failed, e.g., "Calculate", "Rank"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Scoring domain errors
var (
	ErrSolveStoreUnavailable = NewDomainError("scoring", "FindSolves", ErrStoreUnavailable, "solve store is unavailable")
	ErrChallengeUnresolved   = NewDomainError("scoring", "ResolveChallenge", ErrUnresolvedRef, "challenge reference cannot be resolved")
	ErrCompetitionUnresolved = NewDomainError("scoring", "ResolveCompetition", ErrUnresolvedRef, "competition metadata cannot be resolved")
	ErrInvalidFilter         = NewDomainError("scoring", "Validate", ErrInvalidInput, "invalid solve filter")
)

// Ranking domain errors
var (
	ErrUserNotRanked   = NewDomainError("ranking", "Rank", ErrNotFound, "user not present in snapshot")
	ErrEmptySnapshot   = NewDomainError("ranking", "Stats", ErrInvalidState, "snapshot has no aggregates")
	ErrInvalidMonthKey = NewDomainError("ranking", "Validate", ErrInvalidFormat, "month key must be YYYY-MM")
)

// Metrics domain errors
var (
	ErrHistoryUnavailable = NewDomainError("metrics", "FetchHistory", ErrStoreUnavailable, "solve history is unavailable")
	ErrRankHistoryMissing = NewDomainError("metrics", "RankImprovement", ErrNotFound, "no monthly rank history")
)

// Cache errors
var (
	ErrCacheEntryExpired = NewDomainError("cache", "Get", ErrExpired, "cache entry expired")
	ErrCacheMiss         = NewDomainError("cache", "Get", ErrNotFound, "cache entry not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreUnavailable checks if the error indicates an unreachable raw store.
// The application layer converts these into empty results (fail soft).
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrTimeout)
}

// IsUnresolvedRef checks if the error is a dangling challenge/competition reference.
// Individual solves carrying such references are skipped, never fatal.
func IsUnresolvedRef(err error) bool {
	return errors.Is(err, ErrUnresolvedRef)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}
