package mcptools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"calactions/internal/instrumentation"
)

// ToolHandler is the handler signature tools are registered with.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with metrics and audit
// logging. It records one invocation metric and one audit entry per call.
// Tool results flagged IsError count as failures even though the handler
// returned no Go error.
//
// Usage:
//
//	s.AddTool(myTool, InstrumentedToolHandler("my_tool", metrics, audit, handler))
func InstrumentedToolHandler(
	toolName string,
	metrics *instrumentation.Metrics,
	audit *instrumentation.AuditLogger,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// If no instrumentation is configured, just call the handler.
		if metrics == nil && audit == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		invocation := instrumentation.NewActionInvocation(toolName).
			WithSpanContext(ctx)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			if err != nil {
				invocation.CompleteWithError(err)
			} else {
				invocation.Complete(false, nil)
			}
		} else {
			invocation.CompleteSuccess()
		}

		// No sender label here: MCP invocations have no conversation
		// sender behind them.
		if metrics != nil {
			metrics.RecordActionInvocation(ctx, toolName, status, duration)
		}
		if audit != nil {
			audit.LogActionInvocation(invocation)
		}

		return result, err
	}
}
