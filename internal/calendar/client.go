package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"calactions/internal/logging"
)

// Client wraps the Google Calendar service for a single calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	logger     *slog.Logger
}

// NewClient creates a client bound to the given calendar. An empty
// calendarID defaults to the user's primary calendar; a nil logger defaults
// to slog.Default().
func NewClient(svc *calendar.Service, calendarID string, logger *slog.Logger) *Client {
	if calendarID == "" {
		calendarID = "primary"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		svc:        svc,
		calendarID: calendarID,
		logger:     logger,
	}
}

// CalendarID returns the calendar this client is bound to.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// ListEvents lists single events within a time range, ordered by start
// time. Recurring events are expanded into their instances.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]EventSummary, error) {
	events, err := c.svc.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var summaries []EventSummary
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}

	c.logger.Debug("listed events",
		logging.Operation("calendar.list_events"),
		slog.Int("count", len(summaries)))

	return summaries, nil
}

// InsertEvent creates a new calendar event with the calendar's default
// reminders enabled.
func (c *Client) InsertEvent(ctx context.Context, input EventInput) (*EventSummary, error) {
	timeZone := input.TimeZone
	if timeZone == "" {
		timeZone = "UTC"
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Location:    input.Location,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: timeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: timeZone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: true,
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	c.logger.Debug("created event",
		logging.Operation("calendar.insert_event"),
		slog.String("event_id", created.Id))

	summary := toEventSummary(created)
	return &summary, nil
}
