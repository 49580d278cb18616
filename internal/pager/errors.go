package pager

import (
	"context"
	"errors"
	"net"

	"github.com/desertthunder/songyears/internal/shared"
	"golang.org/x/oauth2"
)

// ErrorType maps a page fetch error to a metric label.
func ErrorType(err error) string {
	if err == nil {
		return "unknown"
	}

	var retrieveErr *oauth2.RetrieveError
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, shared.ErrTokenExpired):
		return "unauthorized"
	case errors.Is(err, shared.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, shared.ErrAPIRequest):
		return "api"
	case errors.As(err, &retrieveErr):
		return "token_refresh"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &netErr):
		return "connection"
	default:
		return "other"
	}
}
