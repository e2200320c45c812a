// Package logging provides structured logging utilities for the calactions
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (sender ID anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithAction(slog.Default(), "action_add_event")
//	logger.Info("handling action",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("webhook request",
//	    logging.SenderHash(tracker.SenderID))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Conversation sender IDs are hashed to prevent PII leakage while
//     allowing correlation
//   - Tokens are never logged directly
package logging
