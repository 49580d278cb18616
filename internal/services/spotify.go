// Spotify API implementation of [OAuthService] and [LibraryService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/songyears/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultRedirectURI = "http://localhost:3000/auth/spotify/callback"
)

// Scopes requested on the consent page.
var spotifyScopes = []string{
	"user-read-email",
	"user-read-private",
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-library-read",
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID           string         `json:"id"`
	DisplayName  string         `json:"display_name"`
	Email        string         `json:"email"`
	Country      string         `json:"country"`
	Product      string         `json:"product"` // premium, free, etc.
	ExternalURLs externalURLs   `json:"external_urls"`
	Images       []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	ReleaseDate          string         `json:"release_date"`           // YYYY-MM-DD, YYYY-MM or YYYY
	ReleaseDatePrecision string         `json:"release_date_precision"` // day, month or year
	Images               []SpotifyImage `json:"images"`
	URI                  string         `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
//
// Track is nil when Spotify returns an entry for content that is no longer available.
type SpotifySavedTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    Count               `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// SpotifyService holds the application's Spotify OAuth client and issues per-user API clients.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// The http client is used for token exchange and as the transport beneath every user client; nil means [http.DefaultClient].
func NewSpotifyService(credentials map[string]string, client *http.Client) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	if client == nil {
		client = http.DefaultClient
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{config: config, httpClient: client}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
//
// show_dialog forces the consent screen so users can switch accounts after logging out.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// GetOAuthConfig returns the OAuth2 configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Exchange trades an authorization code for an access and refresh token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Client returns an API client authorized with token.
//
// When the access token is refreshed the new token is passed to onRefresh, which may be nil.
func (s *SpotifyService) Client(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) *SpotifyClient {
	ctx = s.withClient(ctx)
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: onRefresh,
		last:     token.AccessToken,
	}

	return &SpotifyClient{
		httpClient: oauth2.NewClient(ctx, source),
		baseURL:    spotifyBaseURL,
	}
}

func (s *SpotifyService) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// NewTokenClient returns an API client for a bare access token, with no refresh.
//
// A nil client means [http.DefaultClient].
func NewTokenClient(ctx context.Context, client *http.Client, accessToken string) *SpotifyClient {
	if client == nil {
		client = http.DefaultClient
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	return &SpotifyClient{
		httpClient: oauth2.NewClient(ctx, source),
		baseURL:    spotifyBaseURL,
	}
}

// SpotifyClient performs Web API calls on behalf of one user.
type SpotifyClient struct {
	httpClient *http.Client
	baseURL    string
}

// doRequest performs an authenticated GET request to the Spotify API and decodes the JSON body into result.
func (c *SpotifyClient) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrTokenExpired, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: spotify API status %d, retry after %q", shared.ErrRateLimited, resp.StatusCode, resp.Header.Get("Retry-After"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (c *SpotifyClient) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := c.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// MaxSavedTracksLimit is the largest page Spotify serves from /me/tracks.
const MaxSavedTracksLimit = 50

// SavedTracks retrieves the user's saved tracks with pagination.
//
// A limit above [MaxSavedTracksLimit] is rejected rather than lowered, since callers step offsets by the
// limit they asked for.
func (c *SpotifyClient) SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxSavedTracksLimit {
		return nil, fmt.Errorf("%w: saved tracks limit %d exceeds %d", shared.ErrInvalidArgument, limit, MaxSavedTracksLimit)
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedTracks
	if err := c.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}
