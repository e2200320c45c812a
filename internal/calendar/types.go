package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventInput represents the input for creating a calendar event.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// EventSummary represents a simplified calendar event for listing.
//
// StartRaw and EndRaw carry the service's verbatim timestamp strings
// (RFC3339 for timed events, YYYY-MM-DD for all-day events). User-facing
// messages echo these instead of reformatting, so the text matches what the
// calendar UI shows.
type EventSummary struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Status      string
	Start       time.Time
	End         time.Time
	StartRaw    string
	EndRaw      string
	AllDay      bool
}

// toEventSummary converts a Google Calendar event to an EventSummary.
func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
	}

	if event.Start != nil {
		if event.Start.DateTime != "" {
			summary.StartRaw = event.Start.DateTime
			if t, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
				summary.Start = t
			}
		} else if event.Start.Date != "" {
			summary.StartRaw = event.Start.Date
			summary.AllDay = true
			if t, err := time.Parse("2006-01-02", event.Start.Date); err == nil {
				summary.Start = t
			}
		}
	}

	if event.End != nil {
		if event.End.DateTime != "" {
			summary.EndRaw = event.End.DateTime
			if t, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
				summary.End = t
			}
		} else if event.End.Date != "" {
			summary.EndRaw = event.End.Date
			if t, err := time.Parse("2006-01-02", event.End.Date); err == nil {
				summary.End = t
			}
		}
	}

	return summary
}
