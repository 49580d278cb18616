// package services defines the interfaces for the streaming provider the web app talks to
//
// Spotify (OAuth + Web API)
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"

	"golang.org/x/oauth2"
)

// OAuthService is a provider that signs users in with the authorization-code flow.
type OAuthService interface {
	// Name returns the name of the service (e.g., "Spotify")
	Name() string

	// GetAuthURL returns the consent page URL carrying the given CSRF state.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying client configuration.
	GetOAuthConfig() *oauth2.Config

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// LibraryService reads the authenticated user's profile and saved tracks.
type LibraryService interface {
	// UserProfile returns the current user.
	UserProfile(ctx context.Context) (*SpotifyUser, error)

	// SavedTracks returns one page of the user's saved tracks.
	SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error)
}

// Count is a JSON integer that decodes missing, null, or non-numeric values as zero.
//
// Numeric strings ("120") are accepted. Negative values decode as zero and values above [MaxCount] as MaxCount.
type Count int

// MaxCount bounds a decoded [Count].
const MaxCount = 1_000_000

// UnmarshalJSON decodes data leniently; it never returns an error.
func (c *Count) UnmarshalJSON(data []byte) error {
	*c = 0

	data = bytes.TrimSpace(data)
	if len(data) > 1 && data[0] == '"' {
		if n, err := strconv.ParseFloat(string(data[1:len(data)-1]), 64); err == nil {
			*c = clampCount(n)
		}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*c = clampCount(n)
	}
	return nil
}

func clampCount(n float64) Count {
	switch {
	case math.IsNaN(n) || n <= 0:
		return 0
	case n >= MaxCount:
		return MaxCount
	}
	return Count(n)
}
