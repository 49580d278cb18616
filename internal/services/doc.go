// Package services implements the Spotify side of the web app: the OAuth client that signs users in and the per-user
// Web API client that reads their library.
//
// # OAuth
//
// [SpotifyService] implements [OAuthService]. It is created once at startup from the configured credentials, builds the
// consent URL (with show_dialog so users can switch accounts) and exchanges callback codes for tokens.
//
// # Web API
//
// [SpotifyService.Client] returns a [SpotifyClient] bound to one user's token. The client is backed by an
// [oauth2.Transport], so expired access tokens are refreshed transparently when a refresh token is present; every new
// token is reported through the refresh callback so the caller can write it back to the session.
//
// [SpotifyClient] implements [LibraryService]:
//   - [SpotifyClient.UserProfile] : GET /me
//   - [SpotifyClient.SavedTracks] : GET /me/tracks?limit&offset
//
// The saved-tracks total is decoded with [Count], which turns a missing or non-numeric value into zero.
//
// # Error Handling
//
// HTTP failures are wrapped with sentinel errors from the shared package:
//   - [shared.ErrTokenExpired] : 401 from the Web API
//   - [shared.ErrRateLimited] : 429 from the Web API
//   - [shared.ErrAPIRequest] : any other non-2xx status
//   - [shared.ErrAuthFailed] : authorization code exchange failed
package services
