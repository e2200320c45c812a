// Package google provides OAuth2 authentication and token management for
// the Google Calendar API.
//
// Tokens are persisted through the TokenStore interface, which has a JSON
// file implementation and a SQLite implementation keyed by account name.
// The Manager owns the credential lifecycle: it loads the stored token,
// refreshes it when expired, persists it back after refresh or first
// authorization, and builds authenticated Calendar service handles.
package google
