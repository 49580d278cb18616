package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed   = fmt.Errorf("authentication failed")
	ErrInvalidState = fmt.Errorf("invalid state parameter")
	ErrTokenExpired = fmt.Errorf("access token expired")

	// API and service errors
	ErrAPIRequest  = fmt.Errorf("API request failed")
	ErrRateLimited = fmt.Errorf("rate limited")

	// Library errors
	ErrMalformedItem      = fmt.Errorf("malformed library item")
	ErrMissingReleaseDate = fmt.Errorf("missing release date")

	// Session errors
	ErrSessionNotFound = fmt.Errorf("session not found")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
