// Package repositories persists browser session state.
//
// A session is an opaque blob keyed by the ID carried in the signed session cookie. Two backends implement
// [SessionRepository]:
//   - [SQLiteSessionRepository] : rows in the sessions table created by the shared migrations
//   - [MemorySessionRepository] : an expiring LRU, lost on restart
//
// Both treat an expired record as missing and report [shared.ErrSessionNotFound].
package repositories
