package mcptools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"calactions/internal/actions"
	"calactions/internal/calendar"
	"calactions/internal/rasa"
)

type fakeCalendar struct {
	events    []calendar.EventSummary
	listErr   error
	insertErr error
	inserted  []calendar.EventInput
}

func (f *fakeCalendar) ListEvents(context.Context, time.Time, time.Time) ([]calendar.EventSummary, error) {
	return f.events, f.listErr
}

func (f *fakeCalendar) InsertEvent(_ context.Context, input calendar.EventInput) (*calendar.EventSummary, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, input)
	return &calendar.EventSummary{ID: "created-1", Summary: input.Summary}, nil
}

type fakeProvider struct {
	api actions.CalendarAPI
	err error
}

func (f *fakeProvider) Calendar(context.Context) (actions.CalendarAPI, error) {
	return f.api, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(t *testing.T, api actions.CalendarAPI) *rasa.Executor {
	t.Helper()

	logger := discardLogger()
	provider := &fakeProvider{api: api}

	executor := rasa.NewExecutor(logger)
	executor.Register(
		actions.NewAddEvent(provider, logger),
		actions.NewGetEvents(provider, logger),
	)
	return executor
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if result == nil || len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestRegisterCalendarTools(t *testing.T) {
	s := mcpserver.NewMCPServer("calactions-test", "0.0.1")
	executor := newTestExecutor(t, &fakeCalendar{})

	if err := RegisterCalendarTools(s, executor, nil, nil); err != nil {
		t.Fatalf("RegisterCalendarTools() error = %v", err)
	}
}

func TestRegisterCalendarTools_NilExecutor(t *testing.T) {
	s := mcpserver.NewMCPServer("calactions-test", "0.0.1")

	if err := RegisterCalendarTools(s, nil, nil, nil); err == nil {
		t.Fatal("RegisterCalendarTools() with nil executor expected error, got nil")
	}
}

func TestHandleAddEvent_Success(t *testing.T) {
	api := &fakeCalendar{}
	executor := newTestExecutor(t, api)

	request := toolRequest("calendar_add_event", map[string]any{
		"event": "Team Sync",
		"time":  "01/06/24 09:00:00",
	})

	result, err := handleAddEvent(context.Background(), request, executor)
	if err != nil {
		t.Fatalf("handleAddEvent() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("result.IsError = true, text = %q", resultText(t, result))
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Event 'Team Sync' successfully added to your calendar") {
		t.Errorf("text = %q, want success message", text)
	}
	if len(api.inserted) != 1 {
		t.Fatalf("inserted %d events, want 1", len(api.inserted))
	}
	if api.inserted[0].TimeZone != "Asia/Ho_Chi_Minh" {
		t.Errorf("TimeZone = %q, want Asia/Ho_Chi_Minh", api.inserted[0].TimeZone)
	}
}

func TestHandleAddEvent_MissingArguments(t *testing.T) {
	api := &fakeCalendar{}
	executor := newTestExecutor(t, api)

	request := toolRequest("calendar_add_event", map[string]any{})

	result, err := handleAddEvent(context.Background(), request, executor)
	if err != nil {
		t.Fatalf("handleAddEvent() error = %v", err)
	}
	// Input problems answer in the action's own words, not as a tool error.
	if result.IsError {
		t.Fatal("result.IsError = true, want chat-style reply")
	}
	if got := resultText(t, result); got != "Please provide both the event name and time." {
		t.Errorf("text = %q, want the missing-input message", got)
	}
	if len(api.inserted) != 0 {
		t.Errorf("inserted %d events, want 0", len(api.inserted))
	}
}

func TestHandleAddEvent_Conflict(t *testing.T) {
	api := &fakeCalendar{
		events: []calendar.EventSummary{
			{Summary: "Standup", StartRaw: "2024-06-01T09:30:00+07:00"},
		},
	}
	executor := newTestExecutor(t, api)

	request := toolRequest("calendar_add_event", map[string]any{
		"event": "Team Sync",
		"time":  "01/06/24 09:00:00",
	})

	result, err := handleAddEvent(context.Background(), request, executor)
	if err != nil {
		t.Fatalf("handleAddEvent() error = %v", err)
	}

	text := resultText(t, result)
	if !strings.HasPrefix(text, "Cannot create new event because the time slot is already taken") {
		t.Errorf("text = %q, want conflict message", text)
	}
	if len(api.inserted) != 0 {
		t.Errorf("inserted %d events, want 0", len(api.inserted))
	}
}

func TestHandleAddEvent_TimeParseError(t *testing.T) {
	executor := newTestExecutor(t, &fakeCalendar{})

	request := toolRequest("calendar_add_event", map[string]any{
		"event": "Team Sync",
		"time":  "2024-06-01",
	})

	result, err := handleAddEvent(context.Background(), request, executor)
	if err != nil {
		t.Fatalf("handleAddEvent() error = %v", err)
	}

	if got := resultText(t, result); !strings.HasPrefix(got, "Time parsing error: ") {
		t.Errorf("text = %q, want time parsing error", got)
	}
}

func TestHandleGetEvents_Success(t *testing.T) {
	api := &fakeCalendar{
		events: []calendar.EventSummary{
			{Summary: "Team Sync", StartRaw: "2024-06-01T09:00:00+07:00"},
			{StartRaw: "2024-06-02"},
		},
	}
	executor := newTestExecutor(t, api)

	result, err := handleGetEvents(context.Background(), toolRequest("calendar_get_events", nil), executor)
	if err != nil {
		t.Fatalf("handleGetEvents() error = %v", err)
	}

	text := resultText(t, result)
	if !strings.HasPrefix(text, "Your upcoming events:\n") {
		t.Errorf("text = %q, want upcoming events listing", text)
	}
	if !strings.Contains(text, "2024-06-01T09:00:00+07:00: Team Sync") {
		t.Errorf("text = %q, want the first event line", text)
	}
	if !strings.Contains(text, "2024-06-02: No Title") {
		t.Errorf("text = %q, want the untitled event line", text)
	}
}

func TestHandleGetEvents_Empty(t *testing.T) {
	executor := newTestExecutor(t, &fakeCalendar{})

	result, err := handleGetEvents(context.Background(), toolRequest("calendar_get_events", nil), executor)
	if err != nil {
		t.Fatalf("handleGetEvents() error = %v", err)
	}

	if got := resultText(t, result); got != "You have no upcoming events." {
		t.Errorf("text = %q, want the no-events message", got)
	}
}

func TestRunAction_UnknownAction(t *testing.T) {
	executor := rasa.NewExecutor(discardLogger())

	result, err := runAction(context.Background(), executor, "action_unknown", nil)
	if err != nil {
		t.Fatalf("runAction() error = %v", err)
	}
	if !result.IsError {
		t.Error("result.IsError = false for unknown action, want true")
	}
}

func TestRunAction_ServiceUnavailable(t *testing.T) {
	logger := discardLogger()
	provider := &fakeProvider{err: errors.New("credentials missing")}

	executor := rasa.NewExecutor(logger)
	executor.Register(actions.NewGetEvents(provider, logger))

	result, err := runAction(context.Background(), executor, actionGetEvents, nil)
	if err != nil {
		t.Fatalf("runAction() error = %v", err)
	}
	if result.IsError {
		t.Fatal("result.IsError = true, want chat-style reply")
	}
	if got := resultText(t, result); got != "Failed to initialize Google Calendar service." {
		t.Errorf("text = %q, want service unavailable message", got)
	}
}
