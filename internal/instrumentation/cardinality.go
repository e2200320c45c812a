package instrumentation

import "calactions/internal/logging"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with user identifiers.

// SenderLabel reduces a conversation sender ID to a metrics-safe label value.
// Sender IDs issued by the dialogue manager may embed usernames or phone
// numbers, so the raw value is never used. The anonymized hash keeps a
// stable, bounded-length value per conversation.
//
// Example:
//
//	SenderLabel("alice@example.com")  // "sender:3c81...."
//	SenderLabel("")                   // "unknown"
func SenderLabel(senderID string) string {
	if senderID == "" {
		return "unknown"
	}
	return logging.AnonymizeSender(senderID)
}

// Common operation types for Google API metrics.
// Status, OAuth, and Service constants are defined in config.go.
const (
	OperationList   = "list"
	OperationInsert = "insert"
)
