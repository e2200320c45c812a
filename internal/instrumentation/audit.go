package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"calactions/internal/logging"
)

// ActionInvocation captures all information about a custom action invocation
// for audit logging. This provides an audit trail for every action the
// dialogue manager dispatches to this server.
//
// # Privacy Considerations
//
// The SenderID field identifies a conversation and may identify a person.
// When logging, consider:
//   - Using SenderHash() for metrics/general logs
//   - Only logging the raw sender ID in audit-specific log streams
//   - Ensuring audit logs have appropriate access controls
type ActionInvocation struct {
	// Action name as dispatched by the dialogue manager
	Action string

	// SenderID is the conversation identifier from the request
	SenderID string

	// Target information for Google services
	Account   string // Google account name (default, work, personal)
	Operation string // Calendar operation performed (list, insert)

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// SenderHash returns an anonymized identifier for the sender, suitable for
// general logging.
func (ai *ActionInvocation) SenderHash() string {
	return logging.AnonymizeSender(ai.SenderID)
}

// Status returns "success" or "error" based on the Success field.
func (ai *ActionInvocation) Status() string {
	if ai.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
// This provides a consistent set of fields for all action invocation logs.
//
// # Cardinality
//
// This function uses anonymized values (sender_hash) for metrics-compatible
// logging. For full audit logging, use LogAuditAttrs.
func (ai *ActionInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", ai.Action),
		slog.String("sender_hash", ai.SenderHash()),
		slog.Duration("duration", ai.Duration),
		slog.Bool("success", ai.Success),
	}

	// Add optional fields only if present
	if ai.Account != "" && ai.Account != "default" {
		attrs = append(attrs, slog.String("account", ai.Account))
	}
	if ai.Operation != "" {
		attrs = append(attrs, slog.String("operation", ai.Operation))
	}
	if ai.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ai.TraceID))
	}
	if ai.Error != "" {
		attrs = append(attrs, slog.String("error", ai.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes for full audit logging.
// This includes the raw sender ID for compliance/audit purposes.
//
// # Security Warning
//
// This method includes the raw conversation identifier. Ensure audit logs are:
//   - Stored securely with appropriate access controls
//   - Not exposed to general monitoring dashboards
//   - Retained according to compliance requirements
func (ai *ActionInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", ai.Action),
		slog.String("sender", ai.SenderID),
		slog.Duration("duration", ai.Duration),
		slog.Bool("success", ai.Success),
	}

	// Add all optional fields
	if ai.Account != "" {
		attrs = append(attrs, slog.String("account", ai.Account))
	}
	if ai.Operation != "" {
		attrs = append(attrs, slog.String("operation", ai.Operation))
	}
	if ai.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ai.TraceID))
	}
	if ai.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ai.SpanID))
	}
	if ai.Error != "" {
		attrs = append(attrs, slog.String("error", ai.Error))
	}

	return attrs
}

// NewActionInvocation creates a new ActionInvocation with timing started.
// Call Complete() when the action finishes.
func NewActionInvocation(action string) *ActionInvocation {
	return &ActionInvocation{
		Action:    action,
		StartTime: time.Now(),
	}
}

// WithSender sets the conversation sender ID.
func (ai *ActionInvocation) WithSender(senderID string) *ActionInvocation {
	ai.SenderID = senderID
	return ai
}

// WithAccount sets the Google account name.
func (ai *ActionInvocation) WithAccount(account string) *ActionInvocation {
	ai.Account = account
	return ai
}

// WithOperation sets the calendar operation the action performed.
func (ai *ActionInvocation) WithOperation(operation string) *ActionInvocation {
	ai.Operation = operation
	return ai
}

// WithSpanContext extracts trace context from the current span.
func (ai *ActionInvocation) WithSpanContext(ctx context.Context) *ActionInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ai.TraceID = span.SpanContext().TraceID().String()
		ai.SpanID = span.SpanContext().SpanID().String()
	}
	return ai
}

// Complete marks the invocation as completed and calculates duration.
// Returns the same ActionInvocation for method chaining.
func (ai *ActionInvocation) Complete(success bool, err error) *ActionInvocation {
	ai.Duration = time.Since(ai.StartTime)
	ai.Success = success
	if err != nil {
		ai.Error = err.Error()
	}
	return ai
}

// CompleteWithError marks the invocation as failed with the given error.
func (ai *ActionInvocation) CompleteWithError(err error) *ActionInvocation {
	return ai.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ai *ActionInvocation) CompleteSuccess() *ActionInvocation {
	return ai.Complete(true, nil)
}

// AuditLogger provides structured audit logging for action invocations.
// It wraps slog.Logger with convenience methods for logging action runs.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// By default, PII is not included in logs (anonymized identifiers are used instead).
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: false,
		enabled:    true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether to include raw sender IDs in audit logs.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogActionInvocation logs an action invocation using the standard log attributes.
// This is suitable for general operational logging with cardinality controls.
// If the logger is configured with IncludePII, raw sender IDs are logged;
// otherwise, only anonymized sender hashes are used.
func (al *AuditLogger) LogActionInvocation(ai *ActionInvocation) {
	if !al.enabled {
		return
	}

	// Choose between PII and anonymized logging based on configuration
	var attrs []slog.Attr
	if al.includePII {
		attrs = ai.LogAuditAttrs()
	} else {
		attrs = ai.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ai.Success {
		al.logger.Info("action_executed", args...)
	} else {
		al.logger.Warn("action_failed", args...)
	}
}

// LogActionAudit logs an action invocation with full audit details.
// This includes PII (raw sender IDs) for compliance/audit purposes.
// SECURITY: Ensure audit logs are routed to secure storage with appropriate access controls.
//
// Note: This method respects the enabled flag but always includes PII when called,
// regardless of the IncludePII configuration. Use LogActionInvocation for
// configuration-aware logging.
func (al *AuditLogger) LogActionAudit(ai *ActionInvocation) {
	if !al.enabled {
		return
	}

	attrs := ai.LogAuditAttrs()
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	al.logger.Info("action_audit", args...)
}
