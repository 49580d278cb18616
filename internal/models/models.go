// package models defines the data model for the songyears web service
package models

import (
	"time"

	"golang.org/x/oauth2"
)

// Identity is the logged-in Spotify user.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	ProfileURL  string `json:"profile_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Name returns the display name, falling back to the Spotify user ID.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.ID
}

// AuthenticatedSession binds a Spotify identity to the OAuth tokens issued for it.
type AuthenticatedSession struct {
	Identity     Identity  `json:"identity"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// NewAuthenticatedSession builds a session from an exchanged token.
func NewAuthenticatedSession(identity Identity, token *oauth2.Token) *AuthenticatedSession {
	s := &AuthenticatedSession{Identity: identity}
	s.UpdateToken(token)
	return s
}

// Token returns the stored credentials as an [oauth2.Token].
func (s *AuthenticatedSession) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// UpdateToken copies refreshed credentials into the session.
//
// Spotify may omit the refresh token on refresh; the previous one is kept in that case.
func (s *AuthenticatedSession) UpdateToken(token *oauth2.Token) {
	if token == nil {
		return
	}
	s.AccessToken = token.AccessToken
	s.TokenType = token.TokenType
	s.Expiry = token.Expiry
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
}

// Usable reports whether the session can still reach Spotify, either with a live access token or by refreshing.
func (s *AuthenticatedSession) Usable(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	if s.RefreshToken != "" || s.Expiry.IsZero() {
		return true
	}
	return now.Before(s.Expiry)
}
