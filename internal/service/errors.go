// Package service provides application-level services for cycle tracking,
// predictions, wellness, recommendations, and insights.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// This is typically returned when a user attempts to read or modify a resource they don't own.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrInsightNotFound indicates that the requested insight does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrInsightNotFound = errors.New("insight not found")

	// ErrUnknownRecommendation indicates feedback was submitted for a
	// recommendation ID that is not part of the loaded rule pack.
	// API layer should map this to HTTP 404 Not Found.
	ErrUnknownRecommendation = errors.New("unknown recommendation")
)
