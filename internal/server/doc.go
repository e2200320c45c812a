// Package server provides the HTTP action server the dialogue manager
// calls, along with its health endpoints and the dedicated metrics server.
//
// # Key Components
//
// ServerContext manages the Google Calendar client with lazy initialization
// and caching. It implements the action handlers' service provider
// interface, so handlers never construct clients themselves; credential
// problems surface per invocation instead of at startup.
//
// WebhookServer exposes the action-server protocol:
//   - POST /webhook executes an action and returns its events and responses
//   - GET /actions lists the registered actions
//   - GET /health answers the dialogue manager's health poll
//
// HealthChecker additionally serves /healthz, /readyz and /healthz/detailed
// for deployment probes. Readiness flips to false while the server drains
// during shutdown.
//
// MetricsServer serves Prometheus metrics on a separate port so operational
// data never shares a listener with webhook traffic.
//
// Every webhook request is assigned a UUID correlation ID, returned in the
// X-Request-Id header and attached to the request's log lines. Conversation
// sender IDs are hashed before they reach logs, metrics or spans.
package server
