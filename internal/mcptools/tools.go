package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"calactions/internal/instrumentation"
	"calactions/internal/rasa"
)

// Action names behind the tools. They match the webhook registrations, so
// both transports run the same implementations.
const (
	actionAddEvent  = "action_add_event"
	actionGetEvents = "action_get_event"
)

// RegisterCalendarTools registers the calendar actions as MCP tools on the
// server. The executor must have the actions registered.
func RegisterCalendarTools(s *mcpserver.MCPServer, executor *rasa.Executor, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) error {
	if executor == nil {
		return fmt.Errorf("executor is required to register calendar tools")
	}

	addEventTool := mcp.NewTool("calendar_add_event",
		mcp.WithDescription("Add a one-hour event to the Google Calendar. Refuses time slots that already contain an event."),
		mcp.WithString("event",
			mcp.Required(),
			mcp.Description("Event title, e.g. 'Team Sync'"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Event start time in DD/MM/YY HH:MM:SS format, e.g. '01/06/24 09:00:00'"),
		),
	)

	s.AddTool(addEventTool, mcpserver.ToolHandlerFunc(InstrumentedToolHandler("calendar_add_event", metrics, audit,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddEvent(ctx, request, executor)
		})))

	getEventsTool := mcp.NewTool("calendar_get_events",
		mcp.WithDescription("List the Google Calendar events of the coming year."),
	)

	s.AddTool(getEventsTool, mcpserver.ToolHandlerFunc(InstrumentedToolHandler("calendar_get_events", metrics, audit,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvents(ctx, request, executor)
		})))

	return nil
}

func handleAddEvent(ctx context.Context, request mcp.CallToolRequest, executor *rasa.Executor) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	slots := make(map[string]any)
	if v, ok := args["event"].(string); ok && v != "" {
		slots["event"] = v
	}
	if v, ok := args["time"].(string); ok && v != "" {
		slots["time"] = v
	}

	return runAction(ctx, executor, actionAddEvent, slots)
}

func handleGetEvents(ctx context.Context, _ mcp.CallToolRequest, executor *rasa.Executor) (*mcp.CallToolResult, error) {
	return runAction(ctx, executor, actionGetEvents, nil)
}

// runAction drives the named action through the executor and flattens the
// dispatched messages into one text result. Missing or malformed input
// comes back as a normal text reply with the same wording users see in
// chat, not as a tool error.
func runAction(ctx context.Context, executor *rasa.Executor, actionName string, slots map[string]any) (*mcp.CallToolResult, error) {
	req := &rasa.Request{
		NextAction: actionName,
		Tracker: rasa.Tracker{
			Slots: slots,
		},
	}

	resp, err := executor.Run(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to run %s: %v", actionName, err)), nil
	}

	texts := make([]string, 0, len(resp.Responses))
	for _, msg := range resp.Responses {
		if msg.Text != "" {
			texts = append(texts, msg.Text)
		}
	}
	if len(texts) == 0 {
		return mcp.NewToolResultText("Done."), nil
	}
	return mcp.NewToolResultText(strings.Join(texts, "\n")), nil
}
