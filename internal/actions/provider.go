package actions

import (
	"context"
	"time"

	"calactions/internal/calendar"
)

// CalendarAPI is the slice of the calendar client the actions use.
type CalendarAPI interface {
	// ListEvents lists single events within [timeMin, timeMax], ordered by
	// start time.
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]calendar.EventSummary, error)

	// InsertEvent creates a new event.
	InsertEvent(ctx context.Context, input calendar.EventInput) (*calendar.EventSummary, error)
}

// ServiceProvider yields an authenticated calendar client for one action
// invocation. Acquisition failures surface to the user as a chat message,
// never as a crash.
type ServiceProvider interface {
	Calendar(ctx context.Context) (CalendarAPI, error)
}
