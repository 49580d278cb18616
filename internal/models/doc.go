// Package models defines the values shared between the web layer, the session store and the Spotify client.
//
// [AuthenticatedSession] is the only persisted entity: it is written by the OAuth callback, stored by the
// session store for the life of a browser session, and passed explicitly to the handlers that call Spotify.
// [Identity] is the subset of the Spotify profile shown in pages.
package models
